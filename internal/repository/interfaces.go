// Package repository provides PostgreSQL persistence for the engine's
// durable entities.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/sharpline/internal/models"
)

// SnapshotRepository persists the append-only odds history
type SnapshotRepository interface {
	Record(ctx context.Context, snap *models.OddsSnapshot) (models.RecordOutcome, error)
	ClosingLine(ctx context.Context, eventID, sourceID string, marketType models.MarketType, outcome string, eventStart time.Time) (*models.OddsSnapshot, error)
	History(ctx context.Context, eventID string, marketType models.MarketType, outcome string) ([]*models.OddsSnapshot, error)
}

// RecommendationRepository persists emitted recommendations
type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.Recommendation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Recommendation, error)
}

// BetRepository persists settled bets
type BetRepository interface {
	Create(ctx context.Context, bet *models.SettledBet) error
	GetByRecommendationID(ctx context.Context, recommendationID uuid.UUID) (*models.SettledBet, error)
	ListSettledBetween(ctx context.Context, start, end time.Time) ([]*models.SettledBet, error)
}

// BudgetRepository persists per-source daily counters
type BudgetRepository interface {
	TryConsume(ctx context.Context, sourceID string) (models.ConsumeOutcome, error)
	Remaining(ctx context.Context, sourceID string) (int, error)
	Counter(ctx context.Context, sourceID string) (*models.BudgetCounter, error)
}
