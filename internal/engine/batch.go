package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// RunBatch evaluates every tuple with bounded parallelism and returns the
// recommendations in input order. Tuple-local failures (insufficient data,
// malformed prices) skip that tuple only; cancellation stops dispatching new
// tuples and abandons nothing mid-write since per-tuple evaluation has no
// shared mutable state beyond the snapshot append.
func (e *Engine) RunBatch(ctx context.Context, requests []TupleRequest) []*models.Recommendation {
	batchStart := e.now()
	defer func() {
		metrics.BatchDuration.Observe(time.Since(batchStart).Seconds())
	}()

	workers := e.cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	results := make([]*models.Recommendation, len(requests))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec, err := e.Evaluate(ctx, requests[i])
				if err != nil {
					reason := "evaluation_error"
					if errors.Is(err, models.ErrInsufficientData) {
						reason = "insufficient_data"
					}
					metrics.TuplesSkippedTotal.WithLabelValues(reason).Inc()
					e.logger.WithFields(logrus.Fields{
						"event_id": requests[i].EventID,
						"outcome":  requests[i].Outcome,
					}).WithError(err).Warn("Tuple skipped")
					continue
				}
				results[i] = rec
			}
		}()
	}

dispatch:
	for i := range requests {
		if ctx.Err() != nil {
			e.logger.WithField("remaining", len(requests)-i).Warn("Batch cancelled")
			break
		}
		select {
		case <-ctx.Done():
			e.logger.WithField("remaining", len(requests)-i).Warn("Batch cancelled")
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	out := make([]*models.Recommendation, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			out = append(out, rec)
		}
	}

	metrics.LastBatchSize.Set(float64(len(out)))
	e.logger.WithFields(logrus.Fields{
		"tuples":          len(requests),
		"recommendations": len(out),
		"duration":        time.Since(batchStart),
	}).Info("Batch complete")

	return out
}
