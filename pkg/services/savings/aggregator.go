// Package savings merges the savings values of all categories into one dataset.
package savings

import (
	"context"
	"fmt"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
	savingsstore "github.com/de-tools/benford-monitor/pkg/store/savings"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"
)

type Aggregator interface {
	// Aggregate fetches every category concurrently and concatenates the results in
	// category order. A failing category contributes nothing; it never fails the call.
	Aggregate(ctx context.Context) (domain.Dataset, []domain.CategorySavings)
}

type aggregator struct {
	store      savingsstore.Store
	categories []domain.Category
}

func NewAggregator(store savingsstore.Store, categories []domain.Category) Aggregator {
	if len(categories) == 0 {
		categories = domain.DefaultCategories
	}
	return &aggregator{
		store:      store,
		categories: append([]domain.Category(nil), categories...),
	}
}

func (a *aggregator) Aggregate(ctx context.Context) (domain.Dataset, []domain.CategorySavings) {
	logger := zerolog.Ctx(ctx)

	// Fetches are I/O bound, so every category gets its own goroutine regardless of GOMAXPROCS.
	mapper := iter.Mapper[domain.Category, domain.CategorySavings]{MaxGoroutines: len(a.categories)}
	outcomes := mapper.Map(a.categories, func(category *domain.Category) domain.CategorySavings {
		return a.fetch(ctx, *category)
	})

	total := 0
	for _, outcome := range outcomes {
		total += len(outcome.Records)
	}

	dataset := make(domain.Dataset, 0, total)
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			logger.Warn().
				Err(outcome.Err).
				Str("category", string(outcome.Category)).
				Msg("source fetch failed, continuing without it")
			continue
		}
		dataset = append(dataset, outcome.Records...)
	}

	return dataset, outcomes
}

func (a *aggregator) fetch(ctx context.Context, category domain.Category) (outcome domain.CategorySavings) {
	outcome.Category = category

	defer func() {
		if r := recover(); r != nil {
			outcome.Records = nil
			outcome.Err = fmt.Errorf("panic while fetching %s savings: %v", category, r)
		}
	}()

	records, err := a.store.Fetch(ctx, category)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Records = records
	return outcome
}
