package oddsmath

import (
	"github.com/yourusername/sharpline/internal/models"
)

// ComputeValue derives edge and expected value for a candidate bet taken at
// bestPrice (decimal) against the consensus fair probability.
//
// edge          = fair − implied(bestPrice)
// ev_fraction   = p·(bestPrice − 1) − (1 − p), expected profit per unit staked
func ComputeValue(fairProbability, bestPrice float64) models.ValueMetrics {
	implied := ImpliedProbability(bestPrice)
	evFraction := fairProbability*(bestPrice-1.0) - (1.0 - fairProbability)

	return models.ValueMetrics{
		Edge:         fairProbability - implied,
		EVFraction:   evFraction,
		EVPercentage: evFraction * 100.0,
	}
}
