package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/models"
)

// PostgresRecommendationRepository implements RecommendationRepository for PostgreSQL
type PostgresRecommendationRepository struct {
	db *database.DB
}

// NewPostgresRecommendationRepository creates a new recommendation repository
func NewPostgresRecommendationRepository(db *database.DB) RecommendationRepository {
	return &PostgresRecommendationRepository{db: db}
}

// Create inserts a new recommendation. Recommendations are immutable; there
// is no update path.
func (r *PostgresRecommendationRepository) Create(ctx context.Context, rec *models.Recommendation) error {
	query := `
		INSERT INTO recommendations (id, event_id, market_type, outcome, line_value, price, best_source,
		                             edge, ev_fraction, ev_percentage,
		                             kelly_full, kelly_fraction_used, recommended_fraction, capped_fraction,
		                             gate_passed, failed_rules, decision, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		rec.ID, rec.EventID, rec.MarketType, rec.Outcome, rec.LineValue, rec.Price, rec.BestSource,
		rec.Value.Edge, rec.Value.EVFraction, rec.Value.EVPercentage,
		rec.Stake.KellyFull, rec.Stake.KellyFractionUsed, rec.Stake.RecommendedFraction, rec.Stake.CappedFraction,
		rec.Gate.Passed, rec.Gate.FailedRules, rec.Decision, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}

	return nil
}

// GetByID retrieves a recommendation by ID
func (r *PostgresRecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	query := `
		SELECT id, event_id, market_type, outcome, line_value, price, best_source,
		       edge, ev_fraction, ev_percentage,
		       kelly_full, kelly_fraction_used, recommended_fraction, capped_fraction,
		       gate_passed, failed_rules, decision, created_at
		FROM recommendations WHERE id = $1
	`

	rec := &models.Recommendation{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.EventID, &rec.MarketType, &rec.Outcome, &rec.LineValue, &rec.Price, &rec.BestSource,
		&rec.Value.Edge, &rec.Value.EVFraction, &rec.Value.EVPercentage,
		&rec.Stake.KellyFull, &rec.Stake.KellyFractionUsed, &rec.Stake.RecommendedFraction, &rec.Stake.CappedFraction,
		&rec.Gate.Passed, &rec.Gate.FailedRules, &rec.Decision, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}

	return rec, nil
}

// ListByEvent retrieves all recommendations for an event, newest first
func (r *PostgresRecommendationRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Recommendation, error) {
	query := `
		SELECT id, event_id, market_type, outcome, line_value, price, best_source,
		       edge, ev_fraction, ev_percentage,
		       kelly_full, kelly_fraction_used, recommended_fraction, capped_fraction,
		       gate_passed, failed_rules, decision, created_at
		FROM recommendations
		WHERE event_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		rec := &models.Recommendation{}
		err := rows.Scan(
			&rec.ID, &rec.EventID, &rec.MarketType, &rec.Outcome, &rec.LineValue, &rec.Price, &rec.BestSource,
			&rec.Value.Edge, &rec.Value.EVFraction, &rec.Value.EVPercentage,
			&rec.Stake.KellyFull, &rec.Stake.KellyFractionUsed, &rec.Stake.RecommendedFraction, &rec.Stake.CappedFraction,
			&rec.Gate.Passed, &rec.Gate.FailedRules, &rec.Decision, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
