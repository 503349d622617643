// Package engine orchestrates normalization, consensus, value computation,
// sizing and gating into final recommendations.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/consensus"
	"github.com/yourusername/sharpline/internal/gates"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/oddsmath"
	"github.com/yourusername/sharpline/internal/snapshot"
)

// TupleRequest carries everything needed to evaluate one
// (event, market, outcome) tuple. Quotes hold the target outcome's prices;
// OpposingQuotes hold the rest of the market.
type TupleRequest struct {
	EventID          string
	MarketType       models.MarketType
	Outcome          string
	LineValue        *float64
	Quotes           []*models.OddsQuote
	OpposingQuotes   []*models.OddsQuote
	Prediction       *models.ModelProbability
	StatsFresh       bool
	ClosingTrackable bool
	Combo            *gates.ComboContext
}

// Engine evaluates tuples into recommendations. Evaluation reads only
// immutable quote data and configuration; the snapshot store append is the
// single side effect.
type Engine struct {
	cfg       *config.EngineConfig
	consensus *consensus.Builder
	gate      *gates.Evaluator
	snapshots snapshot.Store
	now       func() time.Time
	logger    *logrus.Logger
}

// New creates an engine
func New(cfg *config.EngineConfig, snapshots snapshot.Store, logger *logrus.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		consensus: consensus.NewBuilder(logger),
		gate:      gates.NewEvaluator(cfg, logger),
		snapshots: snapshots,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock overrides the engine's clock, for tests
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Evaluate runs the full pipeline for one tuple and always returns a fully
// populated Recommendation when consensus is computable, including failed
// ones, so callers can display why a bet was rejected.
//
// Tuples without enough data for consensus return an error wrapping
// ErrInsufficientData; batch callers skip those tuples rather than aborting.
func (e *Engine) Evaluate(ctx context.Context, req TupleRequest) (*models.Recommendation, error) {
	start := e.now()
	defer func() {
		metrics.TupleEvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	e.recordSnapshots(ctx, req)

	cons, err := e.consensus.Build(consensus.Input{
		EventID:        req.EventID,
		MarketType:     req.MarketType,
		Outcome:        req.Outcome,
		Quotes:         req.Quotes,
		OpposingQuotes: req.OpposingQuotes,
	})
	if err != nil {
		return nil, fmt.Errorf("consensus for %s %s %s: %w", req.EventID, req.MarketType, req.Outcome, err)
	}

	value := oddsmath.ComputeValue(cons.FairProbability, cons.BestPrice)
	stake := oddsmath.SizeStake(cons.FairProbability, cons.BestPrice, e.cfg.KellyMultiplier, e.cfg.MaxStakeCap)

	sampleSize := 0
	if req.Prediction != nil {
		sampleSize = req.Prediction.SampleSize
	}

	gateResult, outcomes := e.gate.Evaluate(gates.Context{
		Now:              start,
		MarketType:       req.MarketType,
		LineValue:        req.LineValue,
		LatestQuoteAt:    latestObservation(req.Quotes),
		ClosingTrackable: req.ClosingTrackable,
		SampleSize:       sampleSize,
		StatsFresh:       req.StatsFresh,
		Overround:        cons.Overround,
		FairProbability:  cons.FairProbability,
		Value:            value,
		Stake:            stake,
		Combo:            req.Combo,
	})
	for _, o := range outcomes {
		if !o.Passed && !o.Informational {
			metrics.GateFailuresTotal.WithLabelValues(o.RuleID).Inc()
		}
	}

	decision := models.DecisionNoBet
	if gateResult.Passed && stake.CappedFraction > 0 {
		decision = models.DecisionBet
	}
	metrics.RecommendationsTotal.WithLabelValues(string(decision)).Inc()

	rec := &models.Recommendation{
		ID:         uuid.New(),
		EventID:    req.EventID,
		MarketType: req.MarketType,
		Outcome:    req.Outcome,
		LineValue:  req.LineValue,
		Price:      cons.BestPrice,
		BestSource: cons.BestSource,
		Value:      value,
		Stake:      stake,
		Gate:       gateResult,
		Decision:   decision,
		CreatedAt:  start,
	}

	e.logger.WithFields(logrus.Fields{
		"event_id":    req.EventID,
		"market_type": req.MarketType,
		"outcome":     req.Outcome,
		"decision":    decision,
		"edge":        value.Edge,
		"ev_pct":      value.EVPercentage,
		"stake":       stake.CappedFraction,
	}).Info("Tuple evaluated")

	return rec, nil
}

// recordSnapshots appends every observed quote to the history store.
// Snapshot failures never fail an evaluation.
func (e *Engine) recordSnapshots(ctx context.Context, req TupleRequest) {
	all := make([]*models.OddsQuote, 0, len(req.Quotes)+len(req.OpposingQuotes))
	all = append(all, req.Quotes...)
	all = append(all, req.OpposingQuotes...)

	for _, q := range all {
		decimal, err := oddsmath.ToDecimal(q.Price, q.Format)
		if err != nil {
			continue
		}
		if _, err := e.snapshots.Record(ctx, models.SnapshotFromQuote(q, decimal)); err != nil {
			e.logger.WithFields(logrus.Fields{
				"event_id": q.EventID,
				"source":   q.SourceID,
			}).WithError(err).Warn("Snapshot write failed")
		}
	}
}

func latestObservation(quotes []*models.OddsQuote) time.Time {
	var latest time.Time
	for _, q := range quotes {
		if q.ObservedAt.After(latest) {
			latest = q.ObservedAt
		}
	}
	return latest
}
