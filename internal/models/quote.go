package models

import (
	"time"
)

// MarketType represents the type of market a quote belongs to
type MarketType string

const (
	MarketTypeMoneyline MarketType = "moneyline"
	MarketTypeSpread    MarketType = "spread"
	MarketTypeTotal     MarketType = "total"
)

// RequiresLine reports whether quotes in this market must carry a line value
func (m MarketType) RequiresLine() bool {
	return m == MarketTypeSpread || m == MarketTypeTotal
}

// PriceFormat identifies the representation of a quoted price
type PriceFormat string

const (
	PriceFormatAmerican PriceFormat = "american"
	PriceFormatDecimal  PriceFormat = "decimal"
)

// OddsQuote represents a single price observation from one source.
// Immutable once created.
type OddsQuote struct {
	SourceID   string     `db:"source_id" json:"source_id" validate:"required"`
	EventID    string     `db:"event_id" json:"event_id" validate:"required"`
	MarketType MarketType `db:"market_type" json:"market_type" validate:"required,oneof=moneyline spread total"`
	Outcome    string     `db:"outcome" json:"outcome" validate:"required"`
	LineValue  *float64   `db:"line_value" json:"line_value"`
	Price      float64    `db:"price" json:"price" validate:"required"`
	Format     PriceFormat `db:"price_format" json:"price_format" validate:"required,oneof=american decimal"`
	ObservedAt time.Time  `db:"observed_at" json:"observed_at" validate:"required"`
}

// TupleKey identifies the (event, market, outcome) tuple a quote belongs to
func (q *OddsQuote) TupleKey() string {
	return q.EventID + "|" + string(q.MarketType) + "|" + q.Outcome
}

// HasRequiredLine reports whether the quote carries a line value when its
// market type demands one
func (q *OddsQuote) HasRequiredLine() bool {
	if !q.MarketType.RequiresLine() {
		return true
	}
	return q.LineValue != nil
}

// ConsensusProbability is the per-outcome aggregate derived from all sources.
// Recomputed on demand, never persisted as mutable state.
type ConsensusProbability struct {
	EventID         string     `json:"event_id"`
	MarketType      MarketType `json:"market_type"`
	Outcome         string     `json:"outcome"`
	FairProbability float64    `json:"fair_probability"`
	SourceCount     int        `json:"source_count"`
	BestPrice       float64    `json:"best_price"`
	BestSource      string     `json:"best_source"`
	Overround       float64    `json:"overround"`
}
