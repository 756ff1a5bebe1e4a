package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// SavingsResponse is the envelope returned by GET /savings/{category}. Result is keyed by
// category name, e.g. {"grants": [...]}.
type SavingsResponse struct {
	Success bool                     `json:"success"`
	Result  map[string][]SavingsItem `json:"result"`
}

type SavingsItem struct {
	Savings Amount `json:"savings"`
}

// Amount is a monetary value that tolerates null, missing or malformed input by
// decoding it as invalid instead of failing the whole envelope.
type Amount struct {
	decimal.NullDecimal
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if string(data) == "null" || d.UnmarshalJSON(data) != nil {
		a.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	a.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Decimal)
}
