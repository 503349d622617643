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

// PostgresSnapshotRepository implements SnapshotRepository for PostgreSQL.
// It satisfies snapshot.Store, so the engine can run against Postgres or the
// in-memory store interchangeably.
type PostgresSnapshotRepository struct {
	db *database.DB
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *database.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// Record appends a snapshot unless one with the same content hash exists.
// The unique constraint on content_hash makes the insert-if-absent atomic;
// racing writers resolve to one insert with the losers seeing Duplicate.
func (r *PostgresSnapshotRepository) Record(ctx context.Context, snap *models.OddsSnapshot) (models.RecordOutcome, error) {
	query := `
		INSERT INTO odds_snapshots (event_id, source_id, market_type, outcome, line_value, price, content_hash, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (content_hash) DO NOTHING
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		snap.EventID, snap.SourceID, snap.MarketType, snap.Outcome,
		snap.LineValue, snap.Price, snap.ContentHash, snap.ObservedAt,
	)
	if err != nil {
		return models.RecordDuplicate, fmt.Errorf("failed to record snapshot: %w", err)
	}

	if tag.RowsAffected() == 0 {
		metrics.SnapshotsDuplicateTotal.Inc()
		return models.RecordDuplicate, nil
	}

	metrics.SnapshotsRecordedTotal.Inc()
	return models.RecordOK, nil
}

// ClosingLine selects the last snapshot strictly before event start
func (r *PostgresSnapshotRepository) ClosingLine(ctx context.Context, eventID, sourceID string, marketType models.MarketType, outcome string, eventStart time.Time) (*models.OddsSnapshot, error) {
	query := `
		SELECT event_id, source_id, market_type, outcome, line_value, price, content_hash, observed_at
		FROM odds_snapshots
		WHERE event_id = $1 AND source_id = $2 AND market_type = $3 AND outcome = $4
		  AND observed_at < $5
		ORDER BY observed_at DESC
		LIMIT 1
	`

	snap := &models.OddsSnapshot{}
	err := r.db.GetPool().QueryRow(ctx, query, eventID, sourceID, marketType, outcome, eventStart).Scan(
		&snap.EventID, &snap.SourceID, &snap.MarketType, &snap.Outcome,
		&snap.LineValue, &snap.Price, &snap.ContentHash, &snap.ObservedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get closing line: %w", err)
	}

	return snap, nil
}

// History returns a tuple's snapshots across all sources, oldest first
func (r *PostgresSnapshotRepository) History(ctx context.Context, eventID string, marketType models.MarketType, outcome string) ([]*models.OddsSnapshot, error) {
	query := `
		SELECT event_id, source_id, market_type, outcome, line_value, price, content_hash, observed_at
		FROM odds_snapshots
		WHERE event_id = $1 AND market_type = $2 AND outcome = $3
		ORDER BY observed_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, eventID, marketType, outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer rows.Close()

	var snaps []*models.OddsSnapshot
	for rows.Next() {
		snap := &models.OddsSnapshot{}
		err := rows.Scan(
			&snap.EventID, &snap.SourceID, &snap.MarketType, &snap.Outcome,
			&snap.LineValue, &snap.Price, &snap.ContentHash, &snap.ObservedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}

	return snaps, rows.Err()
}
