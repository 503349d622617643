package oddsmath

import (
	"fmt"

	"github.com/yourusername/sharpline/internal/models"
)

// RemoveVig removes the bookmaker margin from an N-way market using the
// multiplicative method: each implied probability is divided by the sum of
// all implied probabilities, so the outputs sum to 1.0.
//
// Example:
// Side A: -110 (52.38% implied) | Side B: -110 (52.38% implied)
// Overround: 104.76% → fair 50% / 50%
func RemoveVig(outcomeProbabilities []float64) ([]float64, error) {
	if len(outcomeProbabilities) < 2 {
		return nil, fmt.Errorf("%w: got %d outcomes", models.ErrIncompleteMarket, len(outcomeProbabilities))
	}

	total := 0.0
	for i, p := range outcomeProbabilities {
		if p <= 0 || p >= 1 {
			return nil, fmt.Errorf("%w: implied probability %d out of range (%.4f)", models.ErrInvalidPrice, i, p)
		}
		total += p
	}

	fair := make([]float64, len(outcomeProbabilities))
	for i, p := range outcomeProbabilities {
		fair[i] = p / total
	}
	return fair, nil
}

// Overround returns the bookmaker margin of a market as a fraction: the sum
// of implied probabilities minus one. 1.0476 total → 0.0476.
func Overround(outcomeProbabilities []float64) (float64, error) {
	if len(outcomeProbabilities) < 2 {
		return 0, fmt.Errorf("%w: got %d outcomes", models.ErrIncompleteMarket, len(outcomeProbabilities))
	}

	total := 0.0
	for _, p := range outcomeProbabilities {
		if p <= 0 || p >= 1 {
			return 0, fmt.Errorf("%w: implied probability out of range (%.4f)", models.ErrInvalidPrice, p)
		}
		total += p
	}
	return total - 1.0, nil
}
