package model

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// CachedClient wraps a Client with estimate caching
type CachedClient struct {
	client Client
	cache  *EstimateCache
	logger *logrus.Logger
}

// NewCachedClient creates a cached probability client
func NewCachedClient(cfg *config.ModelConfig, logger *logrus.Logger) *CachedClient {
	return &CachedClient{
		client: NewHTTPClient(cfg, logger),
		cache: NewEstimateCache(
			time.Duration(cfg.CacheTTLSeconds)*time.Second,
			cfg.CacheMaxSize,
		),
		logger: logger,
	}
}

// NewCachedClientWith wraps an existing client, for tests
func NewCachedClientWith(client Client, cache *EstimateCache, logger *logrus.Logger) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// GetProbability retrieves an estimate with caching
func (c *CachedClient) GetProbability(ctx context.Context, eventID, outcome string) (*models.ModelProbability, error) {
	key := CacheKey{EventID: eventID, Outcome: outcome}

	if cached := c.cache.Get(key); cached != nil {
		metrics.ModelRequestsTotal.WithLabelValues("cached").Inc()
		return cached, nil
	}

	estimate, err := c.client.GetProbability(ctx, eventID, outcome)
	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	c.cache.Set(key, estimate)
	metrics.ModelRequestsTotal.WithLabelValues("fetched").Inc()
	return estimate, nil
}

// BatchProbabilities retrieves estimates with partial caching. Misses go to
// the service in a single batch call.
func (c *CachedClient) BatchProbabilities(ctx context.Context, requests []ProbabilityRequest) ([]*models.ModelProbability, error) {
	results := make([]*models.ModelProbability, len(requests))
	uncachedRequests := make([]ProbabilityRequest, 0)
	uncachedIndices := make([]int, 0)

	for i, req := range requests {
		key := CacheKey{EventID: req.EventID, Outcome: req.Outcome}
		if cached := c.cache.Get(key); cached != nil {
			results[i] = cached
		} else {
			uncachedRequests = append(uncachedRequests, req)
			uncachedIndices = append(uncachedIndices, i)
		}
	}

	metrics.ModelRequestsTotal.WithLabelValues("cached").Add(float64(len(requests) - len(uncachedRequests)))

	if len(uncachedRequests) > 0 {
		c.logger.WithFields(logrus.Fields{
			"total_requests": len(requests),
			"cached":         len(requests) - len(uncachedRequests),
			"uncached":       len(uncachedRequests),
		}).Debug("Batch probabilities with partial cache")

		uncachedResults, err := c.client.BatchProbabilities(ctx, uncachedRequests)
		if err != nil {
			metrics.ModelRequestsTotal.WithLabelValues("error").Inc()
			return nil, err
		}

		for i, estimate := range uncachedResults {
			idx := uncachedIndices[i]
			if estimate == nil {
				continue
			}
			req := uncachedRequests[i]
			c.cache.Set(CacheKey{EventID: req.EventID, Outcome: req.Outcome}, estimate)
			results[idx] = estimate
		}
		metrics.ModelRequestsTotal.WithLabelValues("fetched").Add(float64(len(uncachedRequests)))
	}

	return results, nil
}

// HealthCheck delegates to the underlying client
func (c *CachedClient) HealthCheck(ctx context.Context) error {
	return c.client.HealthCheck(ctx)
}

// InvalidateEvent drops cached estimates for an event, used when fresh stats
// arrive mid-window
func (c *CachedClient) InvalidateEvent(eventID string) {
	c.cache.InvalidateEvent(eventID)
}

// ClearCache clears all cached estimates
func (c *CachedClient) ClearCache() {
	c.cache.Clear()
}

// CacheStats returns cache statistics
func (c *CachedClient) CacheStats() (hits, misses uint64, hitRatio float64) {
	return c.cache.Stats()
}
