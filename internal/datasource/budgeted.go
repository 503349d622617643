package datasource

import (
	"context"

	"github.com/yourusername/sharpline/internal/budget"
	"github.com/yourusername/sharpline/internal/models"
)

// BudgetedSource gates a QuoteSource's fetches through the budget store.
// Health checks are free; only Fetch consumes quota.
type BudgetedSource struct {
	source QuoteSource
	store  budget.Store
}

// NewBudgetedSource wraps a source with budget enforcement
func NewBudgetedSource(source QuoteSource, store budget.Store) *BudgetedSource {
	return &BudgetedSource{
		source: source,
		store:  store,
	}
}

// Fetch consumes one budget unit and delegates; an exhausted budget returns
// ErrBudgetExhausted without touching the upstream
func (b *BudgetedSource) Fetch(ctx context.Context) ([]*models.OddsQuote, error) {
	outcome, err := b.store.TryConsume(ctx, b.source.Name())
	if err != nil {
		return nil, err
	}
	if outcome == models.ConsumeDenied {
		return nil, NewSourceError(b.source.Name(), ErrCodeBudgetExhausted, "daily fetch quota spent", ErrBudgetExhausted)
	}

	return b.source.Fetch(ctx)
}

// HealthCheck delegates to the wrapped source
func (b *BudgetedSource) HealthCheck(ctx context.Context) error {
	return b.source.HealthCheck(ctx)
}

// Name returns the wrapped source's identifier
func (b *BudgetedSource) Name() string {
	return b.source.Name()
}
