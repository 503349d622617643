package models

import (
	"time"

	"github.com/google/uuid"
)

// Decision is the final verdict for an evaluated tuple
type Decision string

const (
	DecisionBet   Decision = "BET"
	DecisionNoBet Decision = "NO_BET"
)

// ValueMetrics holds the derived value figures for a candidate bet
type ValueMetrics struct {
	Edge         float64 `db:"edge" json:"edge"`
	EVFraction   float64 `db:"ev_fraction" json:"ev_fraction"`
	EVPercentage float64 `db:"ev_percentage" json:"ev_percentage"`
}

// StakeRecommendation holds Kelly-derived stake fractions of bankroll
type StakeRecommendation struct {
	KellyFull           float64 `db:"kelly_full" json:"kelly_full"`
	KellyFractionUsed   float64 `db:"kelly_fraction_used" json:"kelly_fraction_used"`
	RecommendedFraction float64 `db:"recommended_fraction" json:"recommended_fraction"`
	CappedFraction      float64 `db:"capped_fraction" json:"capped_fraction"`
}

// RuleFailure records a single gate rule that did not pass
type RuleFailure struct {
	RuleID   string `json:"rule_id"`
	Observed string `json:"observed"`
	Required string `json:"required"`
}

// GateResult aggregates the outcome of the full gate chain.
// Passed is true iff FailedRules is empty.
type GateResult struct {
	Passed      bool          `json:"passed"`
	FailedRules []RuleFailure `json:"failed_rules"`
}

// Recommendation is an immutable snapshot of a decision at a point in time.
// Re-evaluation produces a new Recommendation, never mutates an old one.
type Recommendation struct {
	ID         uuid.UUID           `db:"id" json:"id"`
	EventID    string              `db:"event_id" json:"event_id" validate:"required"`
	MarketType MarketType          `db:"market_type" json:"market_type" validate:"required"`
	Outcome    string              `db:"outcome" json:"outcome" validate:"required"`
	LineValue  *float64            `db:"line_value" json:"line_value"`
	Price      float64             `db:"price" json:"price"`
	BestSource string              `db:"best_source" json:"best_source"`
	Value      ValueMetrics        `json:"value"`
	Stake      StakeRecommendation `json:"stake"`
	Gate       GateResult          `json:"gate"`
	Decision   Decision            `db:"decision" json:"decision"`
	CreatedAt  time.Time           `db:"created_at" json:"created_at"`
}

// IsBet reports whether the recommendation is actionable
func (r *Recommendation) IsBet() bool {
	return r.Decision == DecisionBet
}
