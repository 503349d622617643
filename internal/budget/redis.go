package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// consumeScript performs check-and-increment atomically on the Redis side so
// the counter can never exceed the limit, even across processes. Returns the
// counter value after a grant, or -1 on denial.
var consumeScript = redis.NewScript(`
local used = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if used >= limit then
  return -1
end
used = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return used
`)

// RedisStore is a Store backed by Redis, shared across engine replicas.
// Window rollover needs no sweeper: each window has its own key and stale
// keys expire on their own.
type RedisStore struct {
	client *redis.Client
	limits map[string]int
	now    func() time.Time
	logger *logrus.Logger
}

// NewRedisStore creates a Redis-backed budget store
func NewRedisStore(client *redis.Client, limits map[string]int, logger *logrus.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		limits: limits,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock overrides the store's clock, for tests
func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	s.now = now
	return s
}

func (s *RedisStore) key(sourceID, window string) string {
	return fmt.Sprintf("sharpline:budget:%s:%s", sourceID, window)
}

// Counter keys live two days so yesterday's window stays inspectable
// briefly after rollover.
const counterTTLSeconds = 2 * 24 * 60 * 60

// TryConsume atomically counts one call via a server-side script
func (s *RedisStore) TryConsume(ctx context.Context, sourceID string) (models.ConsumeOutcome, error) {
	window := models.BudgetWindow(s.now())
	limit := s.limits[sourceID]

	used, err := consumeScript.Run(ctx, s.client, []string{s.key(sourceID, window)}, limit, counterTTLSeconds).Int64()
	if err != nil {
		return models.ConsumeDenied, fmt.Errorf("budget consume for %s: %w", sourceID, err)
	}

	if used < 0 {
		metrics.BudgetConsumedTotal.WithLabelValues(sourceID, "denied").Inc()
		s.logger.WithFields(logrus.Fields{
			"source":      sourceID,
			"daily_limit": limit,
			"window":      window,
		}).Debug("Budget denied")
		return models.ConsumeDenied, nil
	}

	metrics.BudgetConsumedTotal.WithLabelValues(sourceID, "granted").Inc()
	metrics.BudgetRemaining.WithLabelValues(sourceID).Set(float64(limit - int(used)))
	return models.ConsumeGranted, nil
}

// Remaining reports the unused quota for the current window
func (s *RedisStore) Remaining(ctx context.Context, sourceID string) (int, error) {
	counter, err := s.Counter(ctx, sourceID)
	if err != nil {
		return 0, err
	}
	return counter.Remaining(), nil
}

// Counter reads the current window's counter state
func (s *RedisStore) Counter(ctx context.Context, sourceID string) (*models.BudgetCounter, error) {
	window := models.BudgetWindow(s.now())

	used, err := s.client.Get(ctx, s.key(sourceID, window)).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("budget read for %s: %w", sourceID, err)
	}

	return &models.BudgetCounter{
		SourceID:   sourceID,
		WindowDate: window,
		CallsUsed:  used,
		DailyLimit: s.limits[sourceID],
	}, nil
}
