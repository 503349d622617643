// Package gates implements the deterministic admission-rule chain that vets
// candidate recommendations.
package gates

import (
	"fmt"
	"time"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/models"
)

// Rule identifiers, machine-readable and stable across releases
const (
	RuleQuoteFreshness   = "QUOTE_FRESHNESS"
	RuleClosingContext   = "CLOSING_CONTEXT"
	RuleSampleSize       = "MIN_SAMPLE_SIZE"
	RuleStatsRecency     = "STATS_RECENCY"
	RuleMarketQuality    = "MAX_OVERROUND"
	RuleMinEV            = "MIN_EV"
	RuleMinEdge          = "MIN_EDGE"
	RuleMinConfidence    = "MIN_CONFIDENCE"
	RuleComboLegs        = "MAX_COMBO_LEGS"
	RuleComboProbability = "MIN_COMBO_PROBABILITY"
	RuleRequiredFields   = "REQUIRED_FIELDS"
)

// ComboContext describes a multi-leg candidate; nil for single bets
type ComboContext struct {
	LegCount            int
	CombinedProbability float64
}

// Context carries every input a rule may inspect. Rules are pure functions of
// (Context, configuration) with no hidden state.
type Context struct {
	Now             time.Time
	MarketType      models.MarketType
	LineValue       *float64
	LatestQuoteAt   time.Time
	ClosingTrackable bool
	SampleSize      int
	StatsFresh      bool
	Overround       float64
	FairProbability float64
	Value           models.ValueMetrics
	Stake           models.StakeRecommendation
	Combo           *ComboContext
}

// RuleOutcome is the result of one rule evaluation. Informational outcomes
// never fail the gate; they exist so callers can surface context (e.g. CLV
// will not be computable) without blocking a bet.
type RuleOutcome struct {
	RuleID        string
	Passed        bool
	Observed      string
	Required      string
	Informational bool
}

// Rule is a single admission check
type Rule interface {
	ID() string
	Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome
}

type quoteFreshnessRule struct{}

func (quoteFreshnessRule) ID() string { return RuleQuoteFreshness }

func (quoteFreshnessRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	maxAge := time.Duration(cfg.MaxQuoteAgeHours * float64(time.Hour))
	age := ctx.Now.Sub(ctx.LatestQuoteAt)
	return RuleOutcome{
		RuleID:   RuleQuoteFreshness,
		Passed:   age <= maxAge,
		Observed: fmt.Sprintf("%.2fh", age.Hours()),
		Required: fmt.Sprintf("<=%.2fh", cfg.MaxQuoteAgeHours),
	}
}

type closingContextRule struct{}

func (closingContextRule) ID() string { return RuleClosingContext }

func (closingContextRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	observed := "closing line trackable"
	if !ctx.ClosingTrackable {
		observed = "closing line will not be available"
	}
	return RuleOutcome{
		RuleID:        RuleClosingContext,
		Passed:        ctx.ClosingTrackable,
		Observed:      observed,
		Required:      "informational",
		Informational: true,
	}
}

type sampleSizeRule struct{}

func (sampleSizeRule) ID() string { return RuleSampleSize }

func (sampleSizeRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	return RuleOutcome{
		RuleID:   RuleSampleSize,
		Passed:   ctx.SampleSize >= cfg.MinSampleSize,
		Observed: fmt.Sprintf("%d", ctx.SampleSize),
		Required: fmt.Sprintf(">=%d", cfg.MinSampleSize),
	}
}

type statsRecencyRule struct{}

func (statsRecencyRule) ID() string { return RuleStatsRecency }

func (statsRecencyRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	observed := "stale"
	if ctx.StatsFresh {
		observed = "fresh"
	}
	return RuleOutcome{
		RuleID:   RuleStatsRecency,
		Passed:   ctx.StatsFresh,
		Observed: observed,
		Required: "fresh",
	}
}

type marketQualityRule struct{}

func (marketQualityRule) ID() string { return RuleMarketQuality }

func (marketQualityRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	return RuleOutcome{
		RuleID:   RuleMarketQuality,
		Passed:   ctx.Overround <= cfg.MaxOverround,
		Observed: fmt.Sprintf("%.4f", ctx.Overround),
		Required: fmt.Sprintf("<=%.4f", cfg.MaxOverround),
	}
}

type minEVRule struct{}

func (minEVRule) ID() string { return RuleMinEV }

func (minEVRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	return RuleOutcome{
		RuleID:   RuleMinEV,
		Passed:   ctx.Value.EVPercentage >= cfg.MinEV,
		Observed: fmt.Sprintf("%.2f", ctx.Value.EVPercentage),
		Required: fmt.Sprintf(">=%.2f", cfg.MinEV),
	}
}

type minEdgeRule struct{}

func (minEdgeRule) ID() string { return RuleMinEdge }

func (minEdgeRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	return RuleOutcome{
		RuleID:   RuleMinEdge,
		Passed:   ctx.Value.Edge >= cfg.MinEdge,
		Observed: fmt.Sprintf("%.4f", ctx.Value.Edge),
		Required: fmt.Sprintf(">=%.4f", cfg.MinEdge),
	}
}

type minConfidenceRule struct{}

func (minConfidenceRule) ID() string { return RuleMinConfidence }

// Applied symmetrically to favorites and underdogs: a strong underdog with a
// low fair probability is penalized the same way as a low-confidence favorite.
func (minConfidenceRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	return RuleOutcome{
		RuleID:   RuleMinConfidence,
		Passed:   ctx.FairProbability >= cfg.MinConfidence,
		Observed: fmt.Sprintf("%.4f", ctx.FairProbability),
		Required: fmt.Sprintf(">=%.4f", cfg.MinConfidence),
	}
}

type comboLegsRule struct{}

func (comboLegsRule) ID() string { return RuleComboLegs }

func (comboLegsRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	if ctx.Combo == nil {
		return RuleOutcome{RuleID: RuleComboLegs, Passed: true, Observed: "single", Required: "n/a"}
	}
	return RuleOutcome{
		RuleID:   RuleComboLegs,
		Passed:   ctx.Combo.LegCount <= cfg.MaxComboLegs,
		Observed: fmt.Sprintf("%d", ctx.Combo.LegCount),
		Required: fmt.Sprintf("<=%d", cfg.MaxComboLegs),
	}
}

type comboProbabilityRule struct{}

func (comboProbabilityRule) ID() string { return RuleComboProbability }

func (comboProbabilityRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	if ctx.Combo == nil {
		return RuleOutcome{RuleID: RuleComboProbability, Passed: true, Observed: "single", Required: "n/a"}
	}
	return RuleOutcome{
		RuleID:   RuleComboProbability,
		Passed:   ctx.Combo.CombinedProbability >= cfg.MinComboProbability,
		Observed: fmt.Sprintf("%.4f", ctx.Combo.CombinedProbability),
		Required: fmt.Sprintf(">=%.4f", cfg.MinComboProbability),
	}
}

type requiredFieldsRule struct{}

func (requiredFieldsRule) ID() string { return RuleRequiredFields }

func (requiredFieldsRule) Evaluate(ctx Context, cfg *config.EngineConfig) RuleOutcome {
	if ctx.MarketType.RequiresLine() && ctx.LineValue == nil {
		return RuleOutcome{
			RuleID:   RuleRequiredFields,
			Passed:   false,
			Observed: fmt.Sprintf("line_value missing for %s market", ctx.MarketType),
			Required: "line_value present",
		}
	}
	return RuleOutcome{RuleID: RuleRequiredFields, Passed: true, Observed: "complete", Required: "line_value present"}
}
