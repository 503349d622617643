package repository

import (
	"testing"
)

const skipIntegrationMsg = "Integration test - requires database setup"

// TestSnapshotRepositoryDedup verifies the content-hash unique constraint
// resolves racing writers to a single stored snapshot
func TestSnapshotRepositoryDedup(t *testing.T) {
	// db := database.SetupTestDB(t)
	// defer database.TeardownTestDB(t, db)

	// repos, err := NewRepositories(db, map[string]int{"oddsfeed": 100})
	// if err != nil {
	// 	t.Fatalf("failed to create repositories: %v", err)
	// }

	// ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	// defer cancel()

	// quote := &models.OddsQuote{
	// 	SourceID:   "oddsfeed",
	// 	EventID:    "evt-1",
	// 	MarketType: models.MarketTypeMoneyline,
	// 	Outcome:    "home",
	// 	Price:      1.909,
	// 	Format:     models.PriceFormatDecimal,
	// 	ObservedAt: time.Now(),
	// }
	// snap := models.SnapshotFromQuote(quote, 1.909)

	// first, err := repos.Snapshot.Record(ctx, snap)
	// if err != nil {
	// 	t.Fatalf("failed to record snapshot: %v", err)
	// }
	// if first != models.RecordOK {
	// 	t.Errorf("expected RecordOK, got %v", first)
	// }

	// second, err := repos.Snapshot.Record(ctx, snap)
	// if err != nil {
	// 	t.Fatalf("failed to re-record snapshot: %v", err)
	// }
	// if second != models.RecordDuplicate {
	// 	t.Errorf("expected RecordDuplicate, got %v", second)
	// }
	t.Skip(skipIntegrationMsg)
}

// TestBudgetRepositoryGuardedUpsert verifies the quota guard denies the call
// after the limit is reached within one window
func TestBudgetRepositoryGuardedUpsert(t *testing.T) {
	// db := database.SetupTestDB(t)
	// defer database.TeardownTestDB(t, db)

	// repos, err := NewRepositories(db, map[string]int{"oddsfeed": 2})
	// if err != nil {
	// 	t.Fatalf("failed to create repositories: %v", err)
	// }

	// ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	// defer cancel()

	// for i := 0; i < 2; i++ {
	// 	outcome, err := repos.Budget.TryConsume(ctx, "oddsfeed")
	// 	if err != nil {
	// 		t.Fatalf("failed to consume budget: %v", err)
	// 	}
	// 	if outcome != models.ConsumeGranted {
	// 		t.Errorf("expected Granted on call %d, got %v", i+1, outcome)
	// 	}
	// }

	// outcome, err := repos.Budget.TryConsume(ctx, "oddsfeed")
	// if err != nil {
	// 	t.Fatalf("failed to consume budget: %v", err)
	// }
	// if outcome != models.ConsumeDenied {
	// 	t.Errorf("expected Denied, got %v", outcome)
	// }
	t.Skip(skipIntegrationMsg)
}
