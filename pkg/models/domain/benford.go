package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DigitCount is the number of possible leading significant digits (1..9).
const DigitCount = 9

// Distribution maps a leading digit to its percentage share. Index 0 holds digit 1.
type Distribution [DigitCount]float64

// At returns the percentage recorded for digit d (1..9).
func (d Distribution) At(digit int) float64 {
	if digit < 1 || digit > DigitCount {
		return 0
	}
	return d[digit-1]
}

// Sum returns the total of all nine percentages.
func (d Distribution) Sum() float64 {
	var total float64
	for _, v := range d {
		total += v
	}
	return total
}

// BenfordReference holds the theoretical leading digit percentages.
var BenfordReference = Distribution{30.1, 17.6, 12.5, 9.7, 7.9, 6.7, 5.8, 5.1, 4.6}

// DefaultTolerance is the allowed absolute deviation in percentage points per digit.
const DefaultTolerance = 5.0

// Record is a single observed monetary value.
type Record = decimal.Decimal

// Dataset is the flat collection of records analysed in one cycle.
type Dataset []Record

type AnalysisResult struct {
	CycleID    string
	Observed   Distribution
	Counts     [DigitCount]int
	SampleSize int // records carrying a valid leading digit
	Passes     bool
	Tolerance  float64
	Timestamp  time.Time
}

// Deviation returns observed minus reference for digit d.
func (r AnalysisResult) Deviation(digit int) float64 {
	return r.Observed.At(digit) - BenfordReference.At(digit)
}

// Verdict renders the pass flag as the "Yes"/"No" shown to readers.
func (r AnalysisResult) Verdict() string {
	if r.Passes {
		return "Yes"
	}
	return "No"
}
