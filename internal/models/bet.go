package models

import (
	"time"

	"github.com/google/uuid"
)

// BetResult represents the settled outcome of a bet
type BetResult string

const (
	BetResultWin  BetResult = "win"
	BetResultLoss BetResult = "loss"
	BetResultPush BetResult = "push"
)

// SettledBet records the final outcome of an actioned recommendation,
// including closing-line value once a closing price exists.
type SettledBet struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	RecommendationID uuid.UUID  `db:"recommendation_id" json:"recommendation_id" validate:"required"`
	StakeUnits       float64    `db:"stake_units" json:"stake_units" validate:"required,gt=0"`
	Result           BetResult  `db:"result" json:"result" validate:"required,oneof=win loss push"`
	CLVPercentage    *float64   `db:"clv_percentage" json:"clv_percentage"`
	ClosingPrice     *float64   `db:"closing_price" json:"closing_price"`
	SettledAt        time.Time  `db:"settled_at" json:"settled_at"`
}

// ProfitLoss returns realized profit in stake units at the given price
func (b *SettledBet) ProfitLoss(price float64) float64 {
	switch b.Result {
	case BetResultWin:
		return b.StakeUnits * (price - 1.0)
	case BetResultLoss:
		return -b.StakeUnits
	default:
		return 0
	}
}

// HasCLV reports whether a closing line existed for this bet
func (b *SettledBet) HasCLV() bool {
	return b.CLVPercentage != nil
}
