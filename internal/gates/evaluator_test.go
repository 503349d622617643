package gates

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/models"
)

var gateTime = time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

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

func testEvaluator() *Evaluator {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewEvaluator(testConfig(), logger)
}

// passingContext clears every blocking rule
func passingContext() Context {
	return Context{
		Now:              gateTime,
		MarketType:       models.MarketTypeMoneyline,
		LatestQuoteAt:    gateTime.Add(-time.Hour),
		ClosingTrackable: true,
		SampleSize:       50,
		StatsFresh:       true,
		Overround:        0.045,
		FairProbability:  0.5,
		Value: models.ValueMetrics{
			Edge:         0.024,
			EVFraction:   0.05,
			EVPercentage: 5.0,
		},
		Stake: models.StakeRecommendation{CappedFraction: 0.0114},
	}
}

func TestAllRulesPass(t *testing.T) {
	result, outcomes := testEvaluator().Evaluate(passingContext())

	assert.True(t, result.Passed)
	assert.Empty(t, result.FailedRules)
	require.Len(t, outcomes, 11)
	for _, o := range outcomes {
		assert.True(t, o.Passed, "rule %s unexpectedly failed", o.RuleID)
	}
}

func TestRuleOrderIsCanonical(t *testing.T) {
	_, outcomes := testEvaluator().Evaluate(passingContext())

	ids := make([]string, len(outcomes))
	for i, o := range outcomes {
		ids[i] = o.RuleID
	}
	assert.Equal(t, []string{
		RuleQuoteFreshness,
		RuleClosingContext,
		RuleSampleSize,
		RuleStatsRecency,
		RuleMarketQuality,
		RuleMinEV,
		RuleMinEdge,
		RuleMinConfidence,
		RuleComboLegs,
		RuleComboProbability,
		RuleRequiredFields,
	}, ids)
}

func TestNoShortCircuit(t *testing.T) {
	ctx := passingContext()
	ctx.LatestQuoteAt = gateTime.Add(-13 * time.Hour)
	ctx.SampleSize = 3
	ctx.Value.EVPercentage = 0.5
	ctx.Value.Edge = 0.001

	result, _ := testEvaluator().Evaluate(ctx)

	require.False(t, result.Passed)
	// Every failed rule is reported at once, in chain order
	require.Len(t, result.FailedRules, 4)
	assert.Equal(t, RuleQuoteFreshness, result.FailedRules[0].RuleID)
	assert.Equal(t, RuleSampleSize, result.FailedRules[1].RuleID)
	assert.Equal(t, RuleMinEV, result.FailedRules[2].RuleID)
	assert.Equal(t, RuleMinEdge, result.FailedRules[3].RuleID)
}

func TestClosingContextNeverBlocks(t *testing.T) {
	ctx := passingContext()
	ctx.ClosingTrackable = false

	result, outcomes := testEvaluator().Evaluate(ctx)

	assert.True(t, result.Passed)
	assert.Empty(t, result.FailedRules)

	assert.False(t, outcomes[1].Passed)
	assert.True(t, outcomes[1].Informational)
	assert.Equal(t, RuleClosingContext, outcomes[1].RuleID)
}

func TestQuoteFreshnessBoundary(t *testing.T) {
	ctx := passingContext()

	// Exactly at the limit still passes
	ctx.LatestQuoteAt = gateTime.Add(-12 * time.Hour)
	result, _ := testEvaluator().Evaluate(ctx)
	assert.True(t, result.Passed)

	ctx.LatestQuoteAt = gateTime.Add(-12*time.Hour - time.Second)
	result, _ = testEvaluator().Evaluate(ctx)
	require.False(t, result.Passed)
	require.Len(t, result.FailedRules, 1)
	assert.Equal(t, RuleQuoteFreshness, result.FailedRules[0].RuleID)
}

func TestOverroundGate(t *testing.T) {
	ctx := passingContext()
	ctx.Overround = 0.09

	result, _ := testEvaluator().Evaluate(ctx)

	require.False(t, result.Passed)
	require.Len(t, result.FailedRules, 1)
	assert.Equal(t, RuleMarketQuality, result.FailedRules[0].RuleID)
	assert.Equal(t, "0.0900", result.FailedRules[0].Observed)
	assert.Equal(t, "<=0.0800", result.FailedRules[0].Required)
}

func TestConfidenceAppliesToUnderdogs(t *testing.T) {
	ctx := passingContext()
	ctx.FairProbability = 0.12

	result, _ := testEvaluator().Evaluate(ctx)

	require.False(t, result.Passed)
	require.Len(t, result.FailedRules, 1)
	assert.Equal(t, RuleMinConfidence, result.FailedRules[0].RuleID)
}

func TestComboRulesIgnoredForSingles(t *testing.T) {
	ctx := passingContext()
	ctx.Combo = nil

	_, outcomes := testEvaluator().Evaluate(ctx)

	assert.True(t, outcomes[8].Passed)
	assert.Equal(t, "single", outcomes[8].Observed)
	assert.True(t, outcomes[9].Passed)
	assert.Equal(t, "single", outcomes[9].Observed)
}

func TestComboLimits(t *testing.T) {
	ctx := passingContext()
	ctx.Combo = &ComboContext{LegCount: 4, CombinedProbability: 0.05}

	result, _ := testEvaluator().Evaluate(ctx)

	require.False(t, result.Passed)
	require.Len(t, result.FailedRules, 2)
	assert.Equal(t, RuleComboLegs, result.FailedRules[0].RuleID)
	assert.Equal(t, RuleComboProbability, result.FailedRules[1].RuleID)
}

func TestComboWithinLimits(t *testing.T) {
	ctx := passingContext()
	ctx.Combo = &ComboContext{LegCount: 3, CombinedProbability: 0.125}

	result, _ := testEvaluator().Evaluate(ctx)
	assert.True(t, result.Passed)
}

func TestRequiredFieldsForLineMarkets(t *testing.T) {
	ctx := passingContext()
	ctx.MarketType = models.MarketTypeSpread
	ctx.LineValue = nil

	result, _ := testEvaluator().Evaluate(ctx)

	require.False(t, result.Passed)
	require.Len(t, result.FailedRules, 1)
	assert.Equal(t, RuleRequiredFields, result.FailedRules[0].RuleID)

	line := -3.5
	ctx.LineValue = &line
	result, _ = testEvaluator().Evaluate(ctx)
	assert.True(t, result.Passed)
}

func TestStaleStatsBlock(t *testing.T) {
	ctx := passingContext()
	ctx.StatsFresh = false

	result, _ := testEvaluator().Evaluate(ctx)

	require.False(t, result.Passed)
	require.Len(t, result.FailedRules, 1)
	assert.Equal(t, RuleStatsRecency, result.FailedRules[0].RuleID)
}

func TestDeterministicFailureList(t *testing.T) {
	ctx := passingContext()
	ctx.StatsFresh = false
	ctx.Value.EVPercentage = 0.8

	first, _ := testEvaluator().Evaluate(ctx)
	for i := 0; i < 10; i++ {
		again, _ := testEvaluator().Evaluate(ctx)
		assert.Equal(t, first.FailedRules, again.FailedRules)
	}
}
