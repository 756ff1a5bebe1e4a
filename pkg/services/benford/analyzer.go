// Package benford implements the leading digit analysis of a dataset against
// Benford's Law.
package benford

import (
	"math"
	"time"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

// Analyzer turns a dataset into an AnalysisResult.
type Analyzer interface {
	Analyze(dataset domain.Dataset) domain.AnalysisResult
}

type analyzer struct {
	tolerance float64
	now       func() time.Time
}

// NewAnalyzer returns an Analyzer applying the given per-digit tolerance against
// domain.BenfordReference.
func NewAnalyzer(tolerance float64) Analyzer {
	return &analyzer{
		tolerance: tolerance,
		now:       time.Now,
	}
}

func (a *analyzer) Analyze(dataset domain.Dataset) domain.AnalysisResult {
	counts := CountDigits(dataset)
	observed := distributionFromCounts(counts)

	total := 0
	for _, c := range counts {
		total += c
	}

	return domain.AnalysisResult{
		Observed:   observed,
		Counts:     counts,
		SampleSize: total,
		Passes:     Evaluate(observed, domain.BenfordReference, a.tolerance),
		Tolerance:  a.tolerance,
		Timestamp:  a.now(),
	}
}

// CountDigits tallies leading digits. Records without one are skipped.
func CountDigits(dataset domain.Dataset) [domain.DigitCount]int {
	var counts [domain.DigitCount]int
	for _, record := range dataset {
		if d, ok := LeadingDigit(record); ok {
			counts[d-1]++
		}
	}
	return counts
}

// ComputeDistribution returns the percentage of records per leading digit. An empty
// dataset, or one with no valid digits, yields all zeros.
func ComputeDistribution(dataset domain.Dataset) domain.Distribution {
	return distributionFromCounts(CountDigits(dataset))
}

func distributionFromCounts(counts [domain.DigitCount]int) domain.Distribution {
	var dist domain.Distribution

	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return dist
	}

	for i, c := range counts {
		dist[i] = float64(c) / float64(total) * 100
	}
	return dist
}

// Evaluate reports whether every digit stays within tolerance percentage points of the
// reference. A single digit outside the bound fails the whole distribution.
func Evaluate(observed, reference domain.Distribution, tolerance float64) bool {
	for i := range observed {
		if math.Abs(observed[i]-reference[i]) > tolerance {
			return false
		}
	}
	return true
}
