package repository

import (
	"fmt"

	"github.com/yourusername/sharpline/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Snapshot       SnapshotRepository
	Recommendation RecommendationRepository
	Bet            BetRepository
	Budget         BudgetRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB, dailyLimits map[string]int) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Snapshot:       NewPostgresSnapshotRepository(db),
		Recommendation: NewPostgresRecommendationRepository(db),
		Bet:            NewPostgresBetRepository(db),
		Budget:         NewPostgresBudgetRepository(db, dailyLimits),
	}, nil
}
