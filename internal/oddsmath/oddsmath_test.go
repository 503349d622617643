package oddsmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/models"
)

func TestToDecimal(t *testing.T) {
	tests := []struct {
		name    string
		price   float64
		format  models.PriceFormat
		want    float64
		wantErr bool
	}{
		{"american positive", 150, models.PriceFormatAmerican, 2.50, false},
		{"american negative", -110, models.PriceFormatAmerican, 1.0 + 100.0/110.0, false},
		{"american negative heavy favorite", -400, models.PriceFormatAmerican, 1.25, false},
		{"american zero", 0, models.PriceFormatAmerican, 0, true},
		{"decimal passthrough", 1.909, models.PriceFormatDecimal, 1.909, false},
		{"decimal at even money", 1.0, models.PriceFormatDecimal, 0, true},
		{"decimal below one", 0.5, models.PriceFormatDecimal, 0, true},
		{"unknown format", 2.0, models.PriceFormat("fractional"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToDecimal(tt.price, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrInvalidPrice)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAmericanRoundTrip(t *testing.T) {
	// For any valid American price, converting to decimal and back recovers
	// the original within rounding tolerance.
	for _, american := range []float64{-400, -250, -110, -105, 100, 110, 150, 250, 400, 1000} {
		decimal, err := ToDecimal(american, models.PriceFormatAmerican)
		require.NoError(t, err)

		back, err := DecimalToAmerican(decimal)
		require.NoError(t, err)
		assert.InDelta(t, american, back, 1.0, "american %v → decimal %v → %v", american, decimal, back)
	}
}

func TestImpliedProbability(t *testing.T) {
	assert.InDelta(t, 0.5, ImpliedProbability(2.0), 1e-9)
	assert.InDelta(t, 0.5238, ImpliedProbability(1.0+100.0/110.0), 1e-4)
	assert.Equal(t, 0.0, ImpliedProbability(0))
	assert.Equal(t, 0.0, ImpliedProbability(-2))
}

func TestRemoveVig(t *testing.T) {
	t.Run("two-way market sums to one", func(t *testing.T) {
		fair, err := RemoveVig([]float64{0.5238, 0.5238})
		require.NoError(t, err)
		require.Len(t, fair, 2)
		assert.InDelta(t, 0.5, fair[0], 1e-9)
		assert.InDelta(t, 0.5, fair[1], 1e-9)
	})

	t.Run("n-way market sums to one", func(t *testing.T) {
		fair, err := RemoveVig([]float64{0.45, 0.30, 0.30})
		require.NoError(t, err)

		sum := 0.0
		for _, p := range fair {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	})

	t.Run("fewer than two outcomes", func(t *testing.T) {
		_, err := RemoveVig([]float64{0.5238})
		assert.ErrorIs(t, err, models.ErrIncompleteMarket)
	})

	t.Run("out of range probability", func(t *testing.T) {
		_, err := RemoveVig([]float64{0.5, 1.2})
		assert.ErrorIs(t, err, models.ErrInvalidPrice)
	})
}

func TestOverround(t *testing.T) {
	vig, err := Overround([]float64{0.5238, 0.5238})
	require.NoError(t, err)
	assert.InDelta(t, 0.0476, vig, 1e-4)

	_, err = Overround([]float64{0.5})
	assert.ErrorIs(t, err, models.ErrIncompleteMarket)
}

func TestComputeValue(t *testing.T) {
	// Spec scenario: -110 → decimal 1.909, implied 0.5238; with fair 0.58 the
	// edge is 5.62% and EV ≈ +10.7%.
	decimal, err := ToDecimal(-110, models.PriceFormatAmerican)
	require.NoError(t, err)

	value := ComputeValue(0.58, decimal)
	assert.InDelta(t, 0.0562, value.Edge, 1e-4)
	assert.InDelta(t, 0.107, value.EVFraction, 1e-3)
	assert.InDelta(t, 10.7, value.EVPercentage, 1e-1)
}

func TestEdgeSignConsistency(t *testing.T) {
	// fair > implied ⟹ edge > 0 and ev_fraction > 0
	for _, price := range []float64{1.5, 1.909, 2.0, 3.5} {
		fair := ImpliedProbability(price) + 0.03
		value := ComputeValue(fair, price)
		assert.Greater(t, value.Edge, 0.0)
		assert.Greater(t, value.EVFraction, 0.0)
	}
}

func TestSizeStake(t *testing.T) {
	t.Run("spec scenario", func(t *testing.T) {
		// b = 0.909, p = 0.58: full Kelly ≈ 0.1147, quarter Kelly ≈ 0.0287
		decimal, err := ToDecimal(-110, models.PriceFormatAmerican)
		require.NoError(t, err)

		stake := SizeStake(0.58, decimal, 0.25, 0.10)
		assert.InDelta(t, 0.1147, stake.KellyFull, 1e-3)
		assert.InDelta(t, 0.0287, stake.RecommendedFraction, 1e-3)
		assert.Equal(t, stake.RecommendedFraction, stake.CappedFraction)
	})

	t.Run("cap applies", func(t *testing.T) {
		stake := SizeStake(0.70, 2.0, 0.5, 0.03)
		assert.Greater(t, stake.RecommendedFraction, 0.03)
		assert.Equal(t, 0.03, stake.CappedFraction)
	})

	t.Run("negative kelly yields zero", func(t *testing.T) {
		stake := SizeStake(0.40, 1.909, 0.25, 0.03)
		assert.LessOrEqual(t, stake.KellyFull, 0.0)
		assert.Equal(t, 0.0, stake.RecommendedFraction)
		assert.Equal(t, 0.0, stake.CappedFraction)
	})

	t.Run("even money guard", func(t *testing.T) {
		stake := SizeStake(0.9, 1.0, 0.25, 0.03)
		assert.Equal(t, 0.0, stake.RecommendedFraction)
	})
}

func TestKellyNonNegativity(t *testing.T) {
	// edge ≤ 0 ⟹ recommended_fraction == 0
	for _, price := range []float64{1.5, 2.0, 3.0} {
		fair := ImpliedProbability(price) - 0.02
		value := ComputeValue(fair, price)
		require.LessOrEqual(t, value.Edge, 0.0)

		stake := SizeStake(fair, price, 0.25, 0.03)
		assert.Equal(t, 0.0, stake.RecommendedFraction)
	}
}

func TestComputeCLV(t *testing.T) {
	t.Run("positive when bet price beats close", func(t *testing.T) {
		clv := ComputeCLV(2.10, 2.00)
		assert.InDelta(t, 5.0, clv, 1e-9)
	})

	t.Run("negative when close beats bet price", func(t *testing.T) {
		clv := ComputeCLV(1.90, 2.00)
		assert.Less(t, clv, 0.0)
	})

	t.Run("zero at identical prices", func(t *testing.T) {
		assert.InDelta(t, 0.0, ComputeCLV(1.909, 1.909), 1e-9)
	})
}
