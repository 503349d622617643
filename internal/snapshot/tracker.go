package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/oddsmath"
)

// Tracker settles actioned recommendations against closing lines.
// A missing closing line never fails a settlement: CLV simply stays nil.
type Tracker struct {
	store  Store
	now    func() time.Time
	logger *logrus.Logger
}

// NewTracker creates a settlement tracker backed by the given snapshot store
func NewTracker(store Store, logger *logrus.Logger) *Tracker {
	return &Tracker{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock overrides the tracker's clock, for tests
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Settle resolves a recommendation's final result and its CLV against the
// closing line from the source that offered the recommended price
func (t *Tracker) Settle(ctx context.Context, rec *models.Recommendation, result models.BetResult, stakeUnits float64, eventStart time.Time) (*models.SettledBet, error) {
	if stakeUnits <= 0 {
		return nil, fmt.Errorf("stake must be positive, got %f", stakeUnits)
	}

	bet := &models.SettledBet{
		ID:               uuid.New(),
		RecommendationID: rec.ID,
		StakeUnits:       stakeUnits,
		Result:           result,
		SettledAt:        t.now(),
	}

	closing, err := t.store.ClosingLine(ctx, rec.EventID, rec.BestSource, rec.MarketType, rec.Outcome, eventStart)
	switch {
	case err == nil:
		clv := oddsmath.ComputeCLV(rec.Price, closing.Price)
		bet.CLVPercentage = &clv
		bet.ClosingPrice = &closing.Price
	case errors.Is(err, models.ErrNotFound):
		t.logger.WithFields(logrus.Fields{
			"event_id": rec.EventID,
			"source":   rec.BestSource,
			"outcome":  rec.Outcome,
		}).Debug("No closing line for settled bet")
	default:
		return nil, fmt.Errorf("closing line lookup: %w", err)
	}

	metrics.BetsSettledTotal.Inc()
	t.logger.WithFields(logrus.Fields{
		"recommendation_id": rec.ID,
		"result":            result,
		"stake_units":       stakeUnits,
		"has_clv":           bet.HasCLV(),
	}).Info("Bet settled")

	return bet, nil
}

// ClosingLineFor exposes the closing-line lookup for callers that want the
// line without settling anything
func (t *Tracker) ClosingLineFor(ctx context.Context, eventID, sourceID string, marketType models.MarketType, outcome string, eventStart time.Time) (*models.ClosingLine, error) {
	snap, err := t.store.ClosingLine(ctx, eventID, sourceID, marketType, outcome, eventStart)
	if err != nil {
		return nil, err
	}
	return &models.ClosingLine{Snapshot: snap, EventStartTime: eventStart}, nil
}
