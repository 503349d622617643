package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/models"
)

// PostgresBetRepository implements BetRepository for PostgreSQL
type PostgresBetRepository struct {
	db *database.DB
}

// NewPostgresBetRepository creates a new bet repository
func NewPostgresBetRepository(db *database.DB) BetRepository {
	return &PostgresBetRepository{db: db}
}

// Create inserts a settled bet
func (b *PostgresBetRepository) Create(ctx context.Context, bet *models.SettledBet) error {
	query := `
		INSERT INTO settled_bets (id, recommendation_id, stake_units, result, clv_percentage, closing_price, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := b.db.GetPool().Exec(ctx, query,
		bet.ID, bet.RecommendationID, bet.StakeUnits, bet.Result,
		bet.CLVPercentage, bet.ClosingPrice, bet.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create settled bet: %w", err)
	}

	return nil
}

// GetByRecommendationID retrieves the settled bet for a recommendation
func (b *PostgresBetRepository) GetByRecommendationID(ctx context.Context, recommendationID uuid.UUID) (*models.SettledBet, error) {
	query := `
		SELECT id, recommendation_id, stake_units, result, clv_percentage, closing_price, settled_at
		FROM settled_bets WHERE recommendation_id = $1
	`

	bet := &models.SettledBet{}
	err := b.db.GetPool().QueryRow(ctx, query, recommendationID).Scan(
		&bet.ID, &bet.RecommendationID, &bet.StakeUnits, &bet.Result,
		&bet.CLVPercentage, &bet.ClosingPrice, &bet.SettledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settled bet: %w", err)
	}

	return bet, nil
}

// ListSettledBetween retrieves bets settled within a date range, newest first
func (b *PostgresBetRepository) ListSettledBetween(ctx context.Context, start, end time.Time) ([]*models.SettledBet, error) {
	query := `
		SELECT id, recommendation_id, stake_units, result, clv_percentage, closing_price, settled_at
		FROM settled_bets
		WHERE settled_at >= $1 AND settled_at <= $2
		ORDER BY settled_at DESC
	`

	rows, err := b.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.SettledBet
	for rows.Next() {
		bet := &models.SettledBet{}
		err := rows.Scan(
			&bet.ID, &bet.RecommendationID, &bet.StakeUnits, &bet.Result,
			&bet.CLVPercentage, &bet.ClosingPrice, &bet.SettledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settled bet: %w", err)
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}
