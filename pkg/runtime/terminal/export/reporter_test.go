package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

func TestReporter_Handle(t *testing.T) {
	var out bytes.Buffer
	report := &domain.Report{Page: domain.PageSpec{
		Title:      "Benford's Law Analysis",
		Verdict:    "No",
		Timestamp:  time.Date(2025, 2, 20, 10, 30, 0, 0, time.UTC),
		SampleSize: 5,
		Tolerance:  5,
		Rows: []domain.DigitRow{
			{Digit: 1, Count: 3, Observed: 60, Expected: 30.1, Deviation: 29.9},
			{Digit: 2, Count: 1, Observed: 20, Expected: 17.6, Deviation: 2.4},
		},
	}}

	require.NoError(t, NewReporter(&out).Handle(report))

	text := out.String()
	assert.Contains(t, text, "Passes: No")
	assert.Contains(t, text, "| 1     | 3        | 60.00      | 30.10      | +29.90    | ✗      |")
	assert.Contains(t, text, "| 2     | 1        | 20.00      | 17.60      | +2.40     | ✓      |")

	// Every table line has the same display width.
	var widths []int
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "|") || strings.HasPrefix(line, "+") {
			widths = append(widths, runewidth.StringWidth(line))
		}
	}
	require.NotEmpty(t, widths)
	for _, w := range widths {
		assert.Equal(t, widths[0], w)
	}
}

func TestCell(t *testing.T) {
	assert.Equal(t, "ab   ", cell("ab", 5))
	assert.Equal(t, 4, runewidth.StringWidth(cell("abcdefgh", 4)))
}
