package oddsmath

import (
	"github.com/yourusername/sharpline/internal/models"
)

// SizeStake computes full and fractional Kelly stake fractions for a bet at
// bestPrice (decimal) with win probability fairProbability.
//
// Kelly Criterion: f = (b·p − q) / b
// where b = decimal odds − 1, p = win probability, q = 1 − p.
//
// kellyMultiplier scales full Kelly down for variance control; maxStakeCap is
// a hard ceiling on the fraction of bankroll.
func SizeStake(fairProbability, bestPrice, kellyMultiplier, maxStakeCap float64) models.StakeRecommendation {
	rec := models.StakeRecommendation{
		KellyFractionUsed: kellyMultiplier,
	}

	b := bestPrice - 1.0
	if b <= 0 {
		// Even-money or invalid price: no edge is extractable at decimal 1.0
		return rec
	}

	p := fairProbability
	q := 1.0 - p
	kelly := (b*p - q) / b
	rec.KellyFull = kelly

	if kelly <= 0 {
		return rec
	}

	rec.RecommendedFraction = kelly * kellyMultiplier
	rec.CappedFraction = rec.RecommendedFraction
	if maxStakeCap > 0 && rec.CappedFraction > maxStakeCap {
		rec.CappedFraction = maxStakeCap
	}
	return rec
}
