// Package metrics provides the centralized Prometheus registry for the engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "recommendations_total",
		Help:      "Total recommendations emitted, by decision",
	}, []string{"decision"})
	TuplesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "tuples_skipped_total",
		Help:      "Tuples skipped during a batch, by reason",
	}, []string{"reason"})
	SnapshotsRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "snapshots_recorded_total",
		Help:      "Total odds snapshots appended to the store",
	})
	SnapshotsDuplicateTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "snapshots_duplicate_total",
		Help:      "Snapshot writes suppressed as duplicates",
	})
	BudgetConsumedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "budget_consumed_total",
		Help:      "Budget consumption attempts, by source and outcome",
	}, []string{"source", "outcome"})
	QuotesFetchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "quotes_fetched_total",
		Help:      "Quotes fetched from upstream sources",
	}, []string{"source"})
	GateFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "gate_failures_total",
		Help:      "Gate rule failures, by rule",
	}, []string{"rule"})
	BetsSettledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "bets_settled_total",
		Help:      "Total bets settled",
	})
	ModelRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "model_requests_total",
		Help:      "Win-probability lookups, by outcome (cached, fetched, error)",
	}, []string{"outcome"})
)

// Gauge metrics
var (
	BudgetRemaining = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "budget_remaining",
		Help:      "Remaining daily fetch quota per source",
	}, []string{"source"})
	LastBatchSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "last_batch_size",
		Help:      "Number of tuples evaluated in the last batch",
	})
	ModelCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "model_cache_hit_ratio",
		Help:      "Hit ratio of the win-probability cache",
	})
)

// Histogram metrics
var (
	BatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharpline",
		Name:      "batch_duration_seconds",
		Help:      "Duration of full batch evaluations in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	TupleEvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharpline",
		Name:      "tuple_evaluation_duration_seconds",
		Help:      "Duration of single tuple evaluations in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RecommendationsTotal)
		registry.MustRegister(TuplesSkippedTotal)
		registry.MustRegister(SnapshotsRecordedTotal)
		registry.MustRegister(SnapshotsDuplicateTotal)
		registry.MustRegister(BudgetConsumedTotal)
		registry.MustRegister(QuotesFetchedTotal)
		registry.MustRegister(GateFailuresTotal)
		registry.MustRegister(BetsSettledTotal)
		registry.MustRegister(ModelRequestsTotal)

		registry.MustRegister(BudgetRemaining)
		registry.MustRegister(LastBatchSize)
		registry.MustRegister(ModelCacheHitRatio)

		registry.MustRegister(BatchDuration)
		registry.MustRegister(TupleEvaluationDuration)
	})
	return registry
}

// Registry returns the initialized registry, initializing it if needed
func Registry() *prometheus.Registry {
	return InitRegistry()
}
