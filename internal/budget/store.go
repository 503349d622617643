// Package budget enforces daily fetch quotas per upstream source.
//
// The store is an explicit object injected into the callers that fetch quotes;
// there is no process-global counter state. Increment-and-check is atomic:
// concurrent callers racing on the last slot resolve to exactly one Granted.
package budget

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// Store tracks and enforces per-source daily call quotas
type Store interface {
	// TryConsume atomically counts one call against the source's current
	// window. Denied is an expected outcome, not an error.
	TryConsume(ctx context.Context, sourceID string) (models.ConsumeOutcome, error)

	// Remaining reports the calls left in the current window without
	// consuming. May reset the window lazily for display purposes.
	Remaining(ctx context.Context, sourceID string) (int, error)

	// Counter returns the live counter for a source's current window
	Counter(ctx context.Context, sourceID string) (*models.BudgetCounter, error)
}

type sourceCounter struct {
	mu         sync.Mutex
	windowDate string
	callsUsed  int
	dailyLimit int
}

// MemoryStore is an in-process Store backed by per-source serialized counters
type MemoryStore struct {
	mu       sync.RWMutex
	counters map[string]*sourceCounter
	limits   map[string]int
	now      func() time.Time
	logger   *logrus.Logger
}

// NewMemoryStore creates a memory-backed budget store with the given
// per-source daily limits
func NewMemoryStore(limits map[string]int, logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*sourceCounter),
		limits:   limits,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock overrides the store's clock, for tests
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) counter(sourceID string) *sourceCounter {
	s.mu.RLock()
	c, ok := s.counters[sourceID]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.counters[sourceID]; ok {
		return c
	}
	c = &sourceCounter{
		windowDate: models.BudgetWindow(s.now()),
		dailyLimit: s.limits[sourceID],
	}
	s.counters[sourceID] = c
	return c
}

// TryConsume atomically increments the source's counter if quota remains.
// A stale window is reset to zero first; losers of a race on the last slot
// receive Denied immediately rather than retrying.
func (s *MemoryStore) TryConsume(ctx context.Context, sourceID string) (models.ConsumeOutcome, error) {
	c := s.counter(sourceID)
	today := models.BudgetWindow(s.now())

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.windowDate != today {
		c.windowDate = today
		c.callsUsed = 0
	}

	if c.callsUsed >= c.dailyLimit {
		metrics.BudgetConsumedTotal.WithLabelValues(sourceID, "denied").Inc()
		s.logger.WithFields(logrus.Fields{
			"source":      sourceID,
			"calls_used":  c.callsUsed,
			"daily_limit": c.dailyLimit,
		}).Debug("Budget denied")
		return models.ConsumeDenied, nil
	}

	c.callsUsed++
	metrics.BudgetConsumedTotal.WithLabelValues(sourceID, "granted").Inc()
	metrics.BudgetRemaining.WithLabelValues(sourceID).Set(float64(c.dailyLimit - c.callsUsed))
	return models.ConsumeGranted, nil
}

// Remaining reports the unused quota for the current window
func (s *MemoryStore) Remaining(ctx context.Context, sourceID string) (int, error) {
	counter, err := s.Counter(ctx, sourceID)
	if err != nil {
		return 0, err
	}
	return counter.Remaining(), nil
}

// Counter returns a copy of the live counter, lazily rolled to today's window
func (s *MemoryStore) Counter(ctx context.Context, sourceID string) (*models.BudgetCounter, error) {
	c := s.counter(sourceID)
	today := models.BudgetWindow(s.now())

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.windowDate != today {
		c.windowDate = today
		c.callsUsed = 0
	}

	return &models.BudgetCounter{
		SourceID:   sourceID,
		WindowDate: c.windowDate,
		CallsUsed:  c.callsUsed,
		DailyLimit: c.dailyLimit,
	}, nil
}
