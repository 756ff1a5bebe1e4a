package benford

import (
	"math"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// NoDigit is returned alongside ok=false when a value has no leading digit in 1..9.
const NoDigit = 0

// LeadingDigit returns the first significant digit of v's decimal representation.
// Zero and negative values have no leading digit.
func LeadingDigit(v domain.Record) (int, bool) {
	if v.Sign() <= 0 {
		return NoDigit, false
	}

	// The coefficient of a positive decimal never carries leading zeros, so its first
	// character is the first significant digit whatever the exponent is.
	coefficient := v.Coefficient().String()
	d := int(coefficient[0] - '0')
	if d < 1 || d > domain.DigitCount {
		return NoDigit, false
	}
	return d, true
}

// LeadingDigitFloat is LeadingDigit for float inputs. NaN and infinities have no digit.
func LeadingDigitFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NoDigit, false
	}
	return LeadingDigit(decimal.NewFromFloat(f))
}
