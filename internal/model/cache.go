package model

import (
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// CacheKey identifies a cached estimate
type CacheKey struct {
	EventID string
	Outcome string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s", k.EventID, k.Outcome)
}

// EstimateCache provides in-memory caching for probability estimates
type EstimateCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewEstimateCache creates a new estimate cache
func NewEstimateCache(ttl time.Duration, maxSize int) *EstimateCache {
	return &EstimateCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached estimate, nil on miss
func (ec *EstimateCache) Get(key CacheKey) *models.ModelProbability {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if result, found := ec.cache.Get(key.String()); found {
		ec.hitCount++
		ec.updateMetrics()
		if estimate, ok := result.(*models.ModelProbability); ok {
			return estimate
		}
	}

	ec.missCount++
	ec.updateMetrics()
	return nil
}

// Set stores an estimate in cache
func (ec *EstimateCache) Set(key CacheKey, estimate *models.ModelProbability) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if ec.cache.ItemCount() >= ec.maxSize {
		ec.cache.DeleteExpired()
	}

	ec.cache.Set(key.String(), estimate, ec.ttl)
}

// InvalidateEvent removes all cached estimates for one event
func (ec *EstimateCache) InvalidateEvent(eventID string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	prefix := eventID + ":"
	for k := range ec.cache.Items() {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			ec.cache.Delete(k)
		}
	}
}

// Clear flushes the entire cache
func (ec *EstimateCache) Clear() {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	ec.cache.Flush()
	ec.hitCount = 0
	ec.missCount = 0
}

// Stats returns cache statistics
func (ec *EstimateCache) Stats() (hits, misses uint64, ratio float64) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.hitCount, ec.missCount, ec.ratioLocked()
}

func (ec *EstimateCache) ratioLocked() float64 {
	total := ec.hitCount + ec.missCount
	if total == 0 {
		return 0
	}
	return float64(ec.hitCount) / float64(total)
}

// ItemCount returns the number of items in cache
func (ec *EstimateCache) ItemCount() int {
	return ec.cache.ItemCount()
}

// updateMetrics runs with ec.mu held
func (ec *EstimateCache) updateMetrics() {
	metrics.ModelCacheHitRatio.Set(ec.ratioLocked())
}
