// Package report turns an analysis result into chart and page specifications.
package report

import (
	"strconv"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

const (
	DefaultChartFile      = "combined_benfords_chart.png"
	DefaultRefreshSeconds = 60

	ObservedSeriesLabel  = "DOGE Benford's Law Dist"
	ReferenceSeriesLabel = "Expected %"

	chartWidth  = 800
	chartHeight = 600
)

var (
	gold  = domain.RGBA{R: 255, G: 215, B: 0, A: 1}
	white = domain.RGBA{R: 255, G: 255, B: 255, A: 1}
)

type Settings struct {
	Title          string
	ChartFile      string
	RefreshSeconds int
}

type Renderer struct {
	settings Settings
}

func NewRenderer(settings Settings) *Renderer {
	if settings.Title == "" {
		settings.Title = "Benford's Law Analysis"
	}
	if settings.ChartFile == "" {
		settings.ChartFile = DefaultChartFile
	}
	if settings.RefreshSeconds <= 0 {
		settings.RefreshSeconds = DefaultRefreshSeconds
	}
	return &Renderer{settings: settings}
}

// Render builds the chart and page specifications for one analysis.
func (r *Renderer) Render(result domain.AnalysisResult, reference domain.Distribution) domain.Report {
	return domain.Report{
		Chart: r.Chart(result.Observed, reference),
		Page:  r.Page(result, reference),
	}
}

// Chart lays the observed distribution out as bars under a line of reference values.
func (r *Renderer) Chart(observed, reference domain.Distribution) domain.ChartSpec {
	labels := make([]string, domain.DigitCount)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}

	return domain.ChartSpec{
		Title:  r.settings.Title,
		Labels: labels,
		Series: []domain.ChartSeries{
			{
				Label:       ObservedSeriesLabel,
				Kind:        domain.SeriesBar,
				Values:      observed[:],
				Fill:        withAlpha(gold, 0.2),
				Border:      gold,
				BorderWidth: 1,
			},
			{
				Label:       ReferenceSeriesLabel,
				Kind:        domain.SeriesLine,
				Values:      reference[:],
				Fill:        withAlpha(white, 0.2),
				Border:      white,
				BorderWidth: 1,
			},
		},
		Width:       chartWidth,
		Height:      chartHeight,
		BeginAtZero: true,
	}
}

func (r *Renderer) Page(result domain.AnalysisResult, reference domain.Distribution) domain.PageSpec {
	rows := make([]domain.DigitRow, 0, domain.DigitCount)
	for i := 0; i < domain.DigitCount; i++ {
		rows = append(rows, domain.DigitRow{
			Digit:     i + 1,
			Count:     result.Counts[i],
			Observed:  result.Observed[i],
			Expected:  reference[i],
			Deviation: result.Observed[i] - reference[i],
		})
	}

	return domain.PageSpec{
		Title:          r.settings.Title,
		Verdict:        result.Verdict(),
		Passes:         result.Passes,
		Timestamp:      result.Timestamp,
		ChartFile:      r.settings.ChartFile,
		RefreshSeconds: r.settings.RefreshSeconds,
		SampleSize:     result.SampleSize,
		Tolerance:      result.Tolerance,
		Rows:           rows,
	}
}

func withAlpha(c domain.RGBA, a float64) domain.RGBA {
	c.A = a
	return c
}
