package domain

import "time"

// SeriesKind tells the chart renderer how to draw a series.
type SeriesKind string

const (
	SeriesBar  SeriesKind = "bar"
	SeriesLine SeriesKind = "line"
)

// RGBA is a colour with an alpha channel in the 0..1 range, as used by CSS rgba().
type RGBA struct {
	R, G, B uint8
	A       float64
}

type ChartSeries struct {
	Label       string
	Kind        SeriesKind
	Values      []float64
	Fill        RGBA
	Border      RGBA
	BorderWidth float64
}

// ChartSpec describes the chart handed to a renderer. It carries no timestamp so two
// renders of the same distribution are identical.
type ChartSpec struct {
	Title       string
	Labels      []string
	Series      []ChartSeries
	Width       int
	Height      int
	BeginAtZero bool
}

// DigitRow is one line of the per-digit table on the summary page.
type DigitRow struct {
	Digit     int
	Count     int
	Observed  float64
	Expected  float64
	Deviation float64
}

// PageSpec is everything the summary page template needs.
type PageSpec struct {
	Title          string
	Verdict        string
	Passes         bool
	Timestamp      time.Time
	ChartFile      string
	RefreshSeconds int
	SampleSize     int
	Tolerance      float64
	Rows           []DigitRow
}

// Report bundles the chart and page specifications produced for one cycle.
type Report struct {
	Chart ChartSpec
	Page  PageSpec
}
