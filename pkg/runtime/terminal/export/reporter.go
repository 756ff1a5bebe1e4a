package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/mattn/go-runewidth"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

type TableConfig struct {
	DigitWidth     int
	CountWidth     int
	PercentWidth   int
	DeviationWidth int
	MarkWidth      int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		DigitWidth:     5,
		CountWidth:     8,
		PercentWidth:   10,
		DeviationWidth: 9,
		MarkWidth:      6,
	}
}

// Reporter prints the per-digit breakdown of an analysis as a fixed width table.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

// cell pads or truncates s to width terminal columns.
func cell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func (c *Reporter) Handle(report *domain.Report) error {
	page := report.Page
	widths := []int{
		c.config.DigitWidth,
		c.config.CountWidth,
		c.config.PercentWidth,
		c.config.PercentWidth,
		c.config.DeviationWidth,
		c.config.MarkWidth,
	}

	funcMap := template.FuncMap{
		"formatRow": func(cols ...string) string {
			cells := make([]string, len(cols))
			for i, col := range cols {
				cells[i] = cell(col, widths[i])
			}
			return "| " + strings.Join(cells, " | ") + " |"
		},
		"separator": func() string {
			parts := make([]string, len(widths))
			for i, w := range widths {
				parts[i] = strings.Repeat("-", w+2)
			}
			return "+" + strings.Join(parts, "+") + "+"
		},
		"itoa":  func(v int) string { return fmt.Sprintf("%d", v) },
		"pct":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"delta": func(v float64) string { return fmt.Sprintf("%+.2f", v) },
		"mark": func(deviation float64) string {
			if deviation > page.Tolerance || deviation < -page.Tolerance {
				return "✗"
			}
			return "✓"
		},
	}

	tmpl := `
{{.Title}}

Last Analysis: {{.Timestamp.Format "2006-01-02 15:04:05 MST"}}
Sample Size: {{.SampleSize}}
Passes: {{.Verdict}}

{{separator}}
{{formatRow "Digit" "Count" "Observed %" "Expected %" "Deviation" "Within"}}
{{separator}}
{{range .Rows}}{{formatRow (itoa .Digit) (itoa .Count) (pct .Observed) (pct .Expected) (delta .Deviation) (mark .Deviation)}}
{{end}}{{separator}}
`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, page)
}
