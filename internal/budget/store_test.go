package budget

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestMemoryStoreGrantsUpToLimit(t *testing.T) {
	store := NewMemoryStore(map[string]int{"oddsfeed": 3}, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		outcome, err := store.TryConsume(ctx, "oddsfeed")
		require.NoError(t, err)
		assert.Equal(t, models.ConsumeGranted, outcome)
	}

	outcome, err := store.TryConsume(ctx, "oddsfeed")
	require.NoError(t, err)
	assert.Equal(t, models.ConsumeDenied, outcome)

	remaining, err := store.Remaining(ctx, "oddsfeed")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestMemoryStoreDeniedIsNotAnError(t *testing.T) {
	store := NewMemoryStore(map[string]int{"oddsfeed": 0}, testLogger())

	outcome, err := store.TryConsume(context.Background(), "oddsfeed")
	require.NoError(t, err)
	assert.Equal(t, models.ConsumeDenied, outcome)
}

func TestMemoryStoreSourcesAreIndependent(t *testing.T) {
	store := NewMemoryStore(map[string]int{"a": 1, "b": 1}, testLogger())
	ctx := context.Background()

	outcome, err := store.TryConsume(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.ConsumeGranted, outcome)

	outcome, err = store.TryConsume(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.ConsumeDenied, outcome)

	// Exhausting a does not touch b
	outcome, err = store.TryConsume(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, models.ConsumeGranted, outcome)
}

func TestMemoryStoreWindowRollover(t *testing.T) {
	current := time.Date(2026, 1, 15, 23, 50, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	store := NewMemoryStore(map[string]int{"oddsfeed": 10}, testLogger()).WithClock(now)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		outcome, err := store.TryConsume(ctx, "oddsfeed")
		require.NoError(t, err)
		require.Equal(t, models.ConsumeGranted, outcome)
	}

	outcome, err := store.TryConsume(ctx, "oddsfeed")
	require.NoError(t, err)
	assert.Equal(t, models.ConsumeDenied, outcome)

	// Cross UTC midnight
	mu.Lock()
	current = time.Date(2026, 1, 16, 0, 0, 5, 0, time.UTC)
	mu.Unlock()

	outcome, err = store.TryConsume(ctx, "oddsfeed")
	require.NoError(t, err)
	assert.Equal(t, models.ConsumeGranted, outcome)

	counter, err := store.Counter(ctx, "oddsfeed")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-16", counter.WindowDate)
	assert.Equal(t, 1, counter.CallsUsed)
}

func TestMemoryStoreConcurrentConsume(t *testing.T) {
	const limit = 50
	const workers = 200

	store := NewMemoryStore(map[string]int{"oddsfeed": limit}, testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	var granted, denied int64
	var countMu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := store.TryConsume(ctx, "oddsfeed")
			require.NoError(t, err)
			countMu.Lock()
			defer countMu.Unlock()
			if outcome == models.ConsumeGranted {
				granted++
			} else {
				denied++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), granted)
	assert.Equal(t, int64(workers-limit), denied)

	counter, err := store.Counter(ctx, "oddsfeed")
	require.NoError(t, err)
	assert.Equal(t, limit, counter.CallsUsed)
	assert.LessOrEqual(t, counter.CallsUsed, counter.DailyLimit)
}

func TestMemoryStoreRemainingDoesNotConsume(t *testing.T) {
	store := NewMemoryStore(map[string]int{"oddsfeed": 5}, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		remaining, err := store.Remaining(ctx, "oddsfeed")
		require.NoError(t, err)
		assert.Equal(t, 5, remaining)
	}

	_, err := store.TryConsume(ctx, "oddsfeed")
	require.NoError(t, err)

	remaining, err := store.Remaining(ctx, "oddsfeed")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestBudgetWindowIsUTC(t *testing.T) {
	// 23:30 New York on Jan 15 is already Jan 16 UTC
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	local := time.Date(2026, 1, 15, 23, 30, 0, 0, loc)
	assert.Equal(t, "2026-01-16", models.BudgetWindow(local))
}
