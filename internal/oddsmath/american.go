// Package oddsmath provides pure conversions between price representations,
// vig removal, value metrics, and Kelly stake sizing.
package oddsmath

import (
	"fmt"
	"math"

	"github.com/yourusername/sharpline/internal/models"
)

// ToDecimal converts a price in the given format to decimal odds.
// American +150 → 2.50, American -110 → 1.909...
func ToDecimal(price float64, format models.PriceFormat) (float64, error) {
	var decimal float64

	switch format {
	case models.PriceFormatDecimal:
		decimal = price
	case models.PriceFormatAmerican:
		if price == 0 {
			return 0, fmt.Errorf("%w: American price cannot be 0", models.ErrInvalidPrice)
		}
		if price > 0 {
			decimal = 1.0 + price/100.0
		} else {
			decimal = 1.0 + 100.0/math.Abs(price)
		}
	default:
		return 0, fmt.Errorf("%w: unknown price format %q", models.ErrInvalidPrice, format)
	}

	if decimal <= 1.0 || math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return 0, fmt.Errorf("%w: got %.4f", models.ErrInvalidPrice, decimal)
	}
	return decimal, nil
}

// DecimalToAmerican converts decimal odds back to signed American odds.
// Decimal 2.50 → +150, Decimal 1.909 → -110
func DecimalToAmerican(decimal float64) (float64, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("%w: got %.4f", models.ErrInvalidPrice, decimal)
	}
	if decimal >= 2.0 {
		return math.Round((decimal - 1.0) * 100.0), nil
	}
	return math.Round(-100.0 / (decimal - 1.0)), nil
}

// ImpliedProbability converts decimal odds to the probability the price
// encodes at face value, before removing the bookmaker's margin.
func ImpliedProbability(decimalOdds float64) float64 {
	if decimalOdds <= 0 {
		return 0
	}
	return 1.0 / decimalOdds
}
