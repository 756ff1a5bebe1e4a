package adapters

import (
	"errors"
	"fmt"

	"github.com/de-tools/benford-monitor/pkg/models/api"
	"github.com/de-tools/benford-monitor/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// ErrUnsuccessful is returned for an envelope flagged success=false.
var ErrUnsuccessful = errors.New("savings response flagged unsuccessful")

// MapSavingsResponseToRecords extracts the savings values of one category. Items whose
// amount could not be decoded become zero, which carries no leading digit.
func MapSavingsResponseToRecords(resp api.SavingsResponse, category domain.Category) ([]domain.Record, error) {
	if !resp.Success {
		return nil, ErrUnsuccessful
	}

	items, ok := resp.Result[string(category)]
	if !ok {
		return nil, fmt.Errorf("savings response has no %q result", category)
	}

	records := make([]domain.Record, 0, len(items))
	for _, item := range items {
		if !item.Savings.Valid {
			records = append(records, decimal.Zero)
			continue
		}
		records = append(records, item.Savings.Decimal)
	}
	return records, nil
}
