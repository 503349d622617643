package consensus

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/models"
)

func quote(source, outcome string, price float64, format models.PriceFormat) *models.OddsQuote {
	return &models.OddsQuote{
		SourceID:   source,
		EventID:    "evt-1",
		MarketType: models.MarketTypeMoneyline,
		Outcome:    outcome,
		Price:      price,
		Format:     format,
		ObservedAt: time.Now(),
	}
}

func testBuilder() *Builder {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewBuilder(logger)
}

func TestBuildSingleSource(t *testing.T) {
	b := testBuilder()

	// Symmetric -110 book: fair probability should be exactly 0.5
	result, err := b.Build(Input{
		EventID:    "evt-1",
		MarketType: models.MarketTypeMoneyline,
		Outcome:    "home",
		Quotes:     []*models.OddsQuote{quote("pinnacle", "home", -110, models.PriceFormatAmerican)},
		OpposingQuotes: []*models.OddsQuote{
			quote("pinnacle", "away", -110, models.PriceFormatAmerican),
		},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, result.FairProbability, 1e-9)
	assert.Equal(t, 1, result.SourceCount)
	assert.InDelta(t, 1.909, result.BestPrice, 1e-3)
	assert.Equal(t, "pinnacle", result.BestSource)
	assert.InDelta(t, 0.0476, result.Overround, 1e-4)
}

func TestBuildAveragesAcrossSources(t *testing.T) {
	b := testBuilder()

	result, err := b.Build(Input{
		EventID:    "evt-1",
		MarketType: models.MarketTypeMoneyline,
		Outcome:    "home",
		Quotes: []*models.OddsQuote{
			quote("pinnacle", "home", -110, models.PriceFormatAmerican),
			quote("betmgm", "home", 2.05, models.PriceFormatDecimal),
		},
		OpposingQuotes: []*models.OddsQuote{
			quote("pinnacle", "away", -110, models.PriceFormatAmerican),
			quote("betmgm", "away", 1.80, models.PriceFormatDecimal),
		},
	})
	require.NoError(t, err)

	// pinnacle fair = 0.5; betmgm fair = (1/2.05)/(1/2.05 + 1/1.80)
	betmgmFair := (1.0 / 2.05) / (1.0/2.05 + 1.0/1.80)
	assert.InDelta(t, (0.5+betmgmFair)/2, result.FairProbability, 1e-9)
	assert.Equal(t, 2, result.SourceCount)
	assert.InDelta(t, 2.05, result.BestPrice, 1e-9)
	assert.Equal(t, "betmgm", result.BestSource)
}

func TestBuildOneSidedSourceStillCountsForBestPrice(t *testing.T) {
	b := testBuilder()

	// onesided offers the best payout but has no opposing quote, so it is
	// excluded from consensus while still winning best_price.
	result, err := b.Build(Input{
		EventID:    "evt-1",
		MarketType: models.MarketTypeMoneyline,
		Outcome:    "home",
		Quotes: []*models.OddsQuote{
			quote("pinnacle", "home", 2.00, models.PriceFormatDecimal),
			quote("onesided", "home", 2.20, models.PriceFormatDecimal),
		},
		OpposingQuotes: []*models.OddsQuote{
			quote("pinnacle", "away", 1.95, models.PriceFormatDecimal),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SourceCount)
	assert.InDelta(t, 2.20, result.BestPrice, 1e-9)
	assert.Equal(t, "onesided", result.BestSource)
}

func TestBuildInsufficientData(t *testing.T) {
	b := testBuilder()

	t.Run("no quotes", func(t *testing.T) {
		_, err := b.Build(Input{EventID: "evt-1", Outcome: "home"})
		assert.ErrorIs(t, err, models.ErrInsufficientData)
	})

	t.Run("no two-sided source", func(t *testing.T) {
		_, err := b.Build(Input{
			EventID:    "evt-1",
			MarketType: models.MarketTypeMoneyline,
			Outcome:    "home",
			Quotes:     []*models.OddsQuote{quote("onesided", "home", 2.20, models.PriceFormatDecimal)},
		})
		assert.ErrorIs(t, err, models.ErrInsufficientData)
	})

	t.Run("all quotes malformed", func(t *testing.T) {
		_, err := b.Build(Input{
			EventID:    "evt-1",
			MarketType: models.MarketTypeMoneyline,
			Outcome:    "home",
			Quotes:     []*models.OddsQuote{quote("pinnacle", "home", 0.80, models.PriceFormatDecimal)},
			OpposingQuotes: []*models.OddsQuote{
				quote("pinnacle", "away", 1.95, models.PriceFormatDecimal),
			},
		})
		assert.ErrorIs(t, err, models.ErrInsufficientData)
	})
}

func TestBuildThreeWayMarket(t *testing.T) {
	b := testBuilder()

	result, err := b.Build(Input{
		EventID:    "evt-1",
		MarketType: models.MarketTypeMoneyline,
		Outcome:    "home",
		Quotes:     []*models.OddsQuote{quote("pinnacle", "home", 2.50, models.PriceFormatDecimal)},
		OpposingQuotes: []*models.OddsQuote{
			quote("pinnacle", "draw", 3.40, models.PriceFormatDecimal),
			quote("pinnacle", "away", 2.90, models.PriceFormatDecimal),
		},
	})
	require.NoError(t, err)

	total := 1.0/2.50 + 1.0/3.40 + 1.0/2.90
	assert.InDelta(t, (1.0/2.50)/total, result.FairProbability, 1e-9)
	assert.InDelta(t, total-1.0, result.Overround, 1e-9)
}
