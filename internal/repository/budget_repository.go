package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// PostgresBudgetRepository implements BudgetRepository for PostgreSQL.
// It satisfies budget.Store so engine replicas sharing a database also share
// quota state.
type PostgresBudgetRepository struct {
	db     *database.DB
	limits map[string]int
	now    func() time.Time
}

// NewPostgresBudgetRepository creates a new budget repository
func NewPostgresBudgetRepository(db *database.DB, limits map[string]int) *PostgresBudgetRepository {
	return &PostgresBudgetRepository{
		db:     db,
		limits: limits,
		now:    time.Now,
	}
}

// WithClock overrides the repository's clock, for tests
func (r *PostgresBudgetRepository) WithClock(now func() time.Time) *PostgresBudgetRepository {
	r.now = now
	return r
}

// TryConsume counts one call against the source's current window. The upsert
// is guarded so calls_used can never pass daily_limit: when the guard fails
// no row comes back and the caller is Denied. Rollover needs no reset job,
// a new window_date simply inserts a fresh row.
func (r *PostgresBudgetRepository) TryConsume(ctx context.Context, sourceID string) (models.ConsumeOutcome, error) {
	window := models.BudgetWindow(r.now())
	limit := r.limits[sourceID]

	query := `
		INSERT INTO budget_counters (source_id, window_date, calls_used, daily_limit)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (source_id, window_date) DO UPDATE
		SET calls_used = budget_counters.calls_used + 1
		WHERE budget_counters.calls_used < budget_counters.daily_limit
		RETURNING calls_used
	`

	var callsUsed int
	err := r.db.GetPool().QueryRow(ctx, query, sourceID, window, limit).Scan(&callsUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.BudgetConsumedTotal.WithLabelValues(sourceID, "denied").Inc()
		return models.ConsumeDenied, nil
	}
	if err != nil {
		return models.ConsumeDenied, fmt.Errorf("failed to consume budget for %s: %w", sourceID, err)
	}

	metrics.BudgetConsumedTotal.WithLabelValues(sourceID, "granted").Inc()
	metrics.BudgetRemaining.WithLabelValues(sourceID).Set(float64(limit - callsUsed))
	return models.ConsumeGranted, nil
}

// Remaining reports the unused quota for the current window
func (r *PostgresBudgetRepository) Remaining(ctx context.Context, sourceID string) (int, error) {
	counter, err := r.Counter(ctx, sourceID)
	if err != nil {
		return 0, err
	}
	return counter.Remaining(), nil
}

// Counter reads the current window's counter; a missing row means an unused
// window
func (r *PostgresBudgetRepository) Counter(ctx context.Context, sourceID string) (*models.BudgetCounter, error) {
	window := models.BudgetWindow(r.now())

	query := `
		SELECT calls_used, daily_limit
		FROM budget_counters
		WHERE source_id = $1 AND window_date = $2
	`

	counter := &models.BudgetCounter{
		SourceID:   sourceID,
		WindowDate: window,
		DailyLimit: r.limits[sourceID],
	}
	err := r.db.GetPool().QueryRow(ctx, query, sourceID, window).Scan(&counter.CallsUsed, &counter.DailyLimit)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read budget counter for %s: %w", sourceID, err)
	}

	return counter, nil
}
