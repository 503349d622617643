package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/gates"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/snapshot"
)

var evalTime = time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testConfig() *config.EngineConfig {
	return &config.EngineConfig{
		MinEV:               2.0,
		MinEdge:             0.003,
		MinConfidence:       0.4,
		KellyMultiplier:     0.25,
		MaxStakeCap:         0.03,
		MaxQuoteAgeHours:    12,
		MaxOverround:        0.08,
		MinSampleSize:       10,
		MaxComboLegs:        3,
		MinComboProbability: 0.1,
		MaxWorkers:          4,
	}
}

func newTestEngine(cfg *config.EngineConfig) *Engine {
	logger := testLogger()
	return New(cfg, snapshot.NewMemoryStore(logger), logger).WithClock(func() time.Time { return evalTime })
}

func quote(sourceID, outcome string, price float64) *models.OddsQuote {
	return &models.OddsQuote{
		SourceID:   sourceID,
		EventID:    "evt-1",
		MarketType: models.MarketTypeMoneyline,
		Outcome:    outcome,
		Price:      price,
		Format:     models.PriceFormatDecimal,
		ObservedAt: evalTime.Add(-time.Hour),
	}
}

func symmetricRequest(price float64) TupleRequest {
	return TupleRequest{
		EventID:    "evt-1",
		MarketType: models.MarketTypeMoneyline,
		Outcome:    "home",
		Quotes:     []*models.OddsQuote{quote("oddsfeed", "home", price)},
		OpposingQuotes: []*models.OddsQuote{
			quote("oddsfeed", "away", price),
		},
		Prediction: &models.ModelProbability{
			EventID: "evt-1", Outcome: "home", Probability: 0.5,
			SampleSize: 50, AsOf: evalTime.Add(-time.Hour),
		},
		StatsFresh:       true,
		ClosingTrackable: true,
	}
}

func TestEvaluateEmitsBet(t *testing.T) {
	eng := newTestEngine(testConfig())

	// Symmetric 2.10 market: fair 0.5, EV +5%, edge +0.0238
	rec, err := eng.Evaluate(context.Background(), symmetricRequest(2.10))
	require.NoError(t, err)

	assert.Equal(t, models.DecisionBet, rec.Decision)
	assert.True(t, rec.Gate.Passed)
	assert.Empty(t, rec.Gate.FailedRules)
	assert.InDelta(t, 2.10, rec.Price, 1e-9)
	assert.Equal(t, "oddsfeed", rec.BestSource)
	assert.InDelta(t, 5.0, rec.Value.EVPercentage, 1e-6)
	assert.InDelta(t, 0.5-1.0/2.10, rec.Value.Edge, 1e-9)
	// kelly_full = 0.05/1.10, quartered
	assert.InDelta(t, 0.25*0.05/1.10, rec.Stake.CappedFraction, 1e-9)
	assert.NotEqual(t, uuid.Nil, rec.ID)
}

func TestEvaluateLowEVFailsExactlyOneRule(t *testing.T) {
	eng := newTestEngine(testConfig())

	// Symmetric 2.016 market: fair 0.5, EV +0.8% against min_ev 2.0.
	// Every other rule passes, so the failure list has exactly the EV entry.
	rec, err := eng.Evaluate(context.Background(), symmetricRequest(2.016))
	require.NoError(t, err)

	assert.Equal(t, models.DecisionNoBet, rec.Decision)
	assert.False(t, rec.Gate.Passed)
	require.Len(t, rec.Gate.FailedRules, 1)
	assert.Equal(t, gates.RuleMinEV, rec.Gate.FailedRules[0].RuleID)
	assert.NotEmpty(t, rec.Gate.FailedRules[0].Observed)
	assert.NotEmpty(t, rec.Gate.FailedRules[0].Required)
}

func TestEvaluateGateDeterminism(t *testing.T) {
	eng := newTestEngine(testConfig())
	req := symmetricRequest(2.016)
	req.StatsFresh = false

	first, err := eng.Evaluate(context.Background(), req)
	require.NoError(t, err)
	second, err := eng.Evaluate(context.Background(), req)
	require.NoError(t, err)

	require.Greater(t, len(first.Gate.FailedRules), 1)
	assert.Equal(t, first.Gate.FailedRules, second.Gate.FailedRules)
}

func TestEvaluateStaleQuotesFail(t *testing.T) {
	eng := newTestEngine(testConfig())
	req := symmetricRequest(2.10)
	for _, q := range req.Quotes {
		q.ObservedAt = evalTime.Add(-13 * time.Hour)
	}

	rec, err := eng.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionNoBet, rec.Decision)
	require.Len(t, rec.Gate.FailedRules, 1)
	assert.Equal(t, gates.RuleQuoteFreshness, rec.Gate.FailedRules[0].RuleID)
}

func TestEvaluateMissingLineIsGateFailureNotError(t *testing.T) {
	eng := newTestEngine(testConfig())
	req := symmetricRequest(2.10)
	req.MarketType = models.MarketTypeSpread
	req.LineValue = nil
	for _, q := range req.Quotes {
		q.MarketType = models.MarketTypeSpread
	}
	for _, q := range req.OpposingQuotes {
		q.MarketType = models.MarketTypeSpread
	}

	rec, err := eng.Evaluate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, models.DecisionNoBet, rec.Decision)
	require.Len(t, rec.Gate.FailedRules, 1)
	assert.Equal(t, gates.RuleRequiredFields, rec.Gate.FailedRules[0].RuleID)
}

func TestEvaluateMissingClosingContextDoesNotBlock(t *testing.T) {
	eng := newTestEngine(testConfig())
	req := symmetricRequest(2.10)
	req.ClosingTrackable = false

	rec, err := eng.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionBet, rec.Decision)
	assert.True(t, rec.Gate.Passed)
}

func TestEvaluateInsufficientData(t *testing.T) {
	eng := newTestEngine(testConfig())

	// One-sided book: best price exists but nothing can be de-vigged
	req := symmetricRequest(2.10)
	req.OpposingQuotes = nil

	_, err := eng.Evaluate(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestEvaluateRecordsSnapshots(t *testing.T) {
	logger := testLogger()
	store := snapshot.NewMemoryStore(logger)
	cfg := testConfig()
	eng := New(cfg, store, logger).WithClock(func() time.Time { return evalTime })

	_, err := eng.Evaluate(context.Background(), symmetricRequest(2.10))
	require.NoError(t, err)

	history, err := store.History(context.Background(), "evt-1", models.MarketTypeMoneyline, "home")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// Re-evaluating the same quotes does not grow the history
	_, err = eng.Evaluate(context.Background(), symmetricRequest(2.10))
	require.NoError(t, err)

	history, err = store.History(context.Background(), "evt-1", models.MarketTypeMoneyline, "home")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRunBatchSkipsBadTuples(t *testing.T) {
	eng := newTestEngine(testConfig())

	bad := symmetricRequest(2.10)
	bad.Outcome = "away"
	bad.Quotes = nil

	recs := eng.RunBatch(context.Background(), []TupleRequest{
		symmetricRequest(2.10),
		bad,
		symmetricRequest(2.016),
	})

	require.Len(t, recs, 2)
	assert.Equal(t, models.DecisionBet, recs[0].Decision)
	assert.Equal(t, models.DecisionNoBet, recs[1].Decision)
}

func TestRunBatchPreservesInputOrder(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWorkers = 8
	eng := newTestEngine(cfg)

	var reqs []TupleRequest
	for i := 0; i < 20; i++ {
		req := symmetricRequest(2.10)
		if i%2 == 1 {
			req = symmetricRequest(2.016)
		}
		reqs = append(reqs, req)
	}

	recs := eng.RunBatch(context.Background(), reqs)
	require.Len(t, recs, 20)
	for i, rec := range recs {
		want := models.DecisionBet
		if i%2 == 1 {
			want = models.DecisionNoBet
		}
		assert.Equal(t, want, rec.Decision, "index %d", i)
	}
}

func TestRunBatchCancelledContext(t *testing.T) {
	eng := newTestEngine(testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recs := eng.RunBatch(ctx, []TupleRequest{symmetricRequest(2.10), symmetricRequest(2.10)})
	assert.Empty(t, recs)
}
