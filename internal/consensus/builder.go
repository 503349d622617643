// Package consensus combines normalized quotes from multiple sources into a
// single fair probability per outcome.
package consensus

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/oddsmath"
)

// Input carries the quotes needed to build consensus for one
// (event, market, outcome) tuple. OpposingQuotes hold every other outcome in
// the same market; they are required for vig removal.
type Input struct {
	EventID        string
	MarketType     models.MarketType
	Outcome        string
	Quotes         []*models.OddsQuote
	OpposingQuotes []*models.OddsQuote
}

// Builder computes consensus probabilities from raw quotes
type Builder struct {
	logger *logrus.Logger
}

// NewBuilder creates a consensus builder
func NewBuilder(logger *logrus.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build computes the consensus fair probability and best available price for
// the tuple described by input.
//
// Per source: the outcome's implied probability is de-vigged against that
// source's opposing quotes, then fair probabilities are averaged with equal
// weight across sources. A source missing an opposing quote cannot be
// de-vigged and is skipped for consensus, but its raw price still counts
// toward best_price since that payout is genuinely available.
func (b *Builder) Build(input Input) (*models.ConsensusProbability, error) {
	if len(input.Quotes) == 0 {
		return nil, fmt.Errorf("%w: no quotes for %s %s %s", models.ErrInsufficientData,
			input.EventID, input.MarketType, input.Outcome)
	}

	targetBySource := make(map[string]float64)
	bestPrice := 0.0
	bestSource := ""

	for _, q := range input.Quotes {
		decimal, err := oddsmath.ToDecimal(q.Price, q.Format)
		if err != nil {
			b.logger.WithFields(logrus.Fields{
				"source":  q.SourceID,
				"event":   q.EventID,
				"outcome": q.Outcome,
				"price":   q.Price,
			}).WithError(err).Warn("Discarding malformed quote")
			continue
		}
		// Keep the best price per source; a source may re-quote within a batch
		if existing, ok := targetBySource[q.SourceID]; !ok || decimal > existing {
			targetBySource[q.SourceID] = decimal
		}
		if decimal > bestPrice {
			bestPrice = decimal
			bestSource = q.SourceID
		}
	}

	if len(targetBySource) == 0 {
		return nil, fmt.Errorf("%w: all quotes malformed for %s %s %s", models.ErrInsufficientData,
			input.EventID, input.MarketType, input.Outcome)
	}

	opposingBySource := b.groupOpposing(input.OpposingQuotes)

	var fairSum, overroundSum float64
	usable := 0
	for sourceID, targetDecimal := range targetBySource {
		opposing, ok := opposingBySource[sourceID]
		if !ok || len(opposing) == 0 {
			// Cannot de-vig a one-sided book; price already counted above
			continue
		}

		implied := []float64{oddsmath.ImpliedProbability(targetDecimal)}
		for _, dec := range opposing {
			implied = append(implied, oddsmath.ImpliedProbability(dec))
		}

		fair, err := oddsmath.RemoveVig(implied)
		if err != nil {
			b.logger.WithFields(logrus.Fields{
				"source": sourceID,
				"event":  input.EventID,
			}).WithError(err).Warn("Skipping source for consensus")
			continue
		}
		vig, err := oddsmath.Overround(implied)
		if err != nil {
			continue
		}

		fairSum += fair[0]
		overroundSum += vig
		usable++
	}

	if usable == 0 {
		return nil, fmt.Errorf("%w: %s %s %s", models.ErrInsufficientData,
			input.EventID, input.MarketType, input.Outcome)
	}

	return &models.ConsensusProbability{
		EventID:         input.EventID,
		MarketType:      input.MarketType,
		Outcome:         input.Outcome,
		FairProbability: fairSum / float64(usable),
		SourceCount:     usable,
		BestPrice:       bestPrice,
		BestSource:      bestSource,
		Overround:       overroundSum / float64(usable),
	}, nil
}

// groupOpposing maps source → decimal prices of the opposing outcomes,
// keeping one price per (source, outcome)
func (b *Builder) groupOpposing(quotes []*models.OddsQuote) map[string][]float64 {
	bySourceOutcome := make(map[string]map[string]float64)
	for _, q := range quotes {
		decimal, err := oddsmath.ToDecimal(q.Price, q.Format)
		if err != nil {
			continue
		}
		if bySourceOutcome[q.SourceID] == nil {
			bySourceOutcome[q.SourceID] = make(map[string]float64)
		}
		if existing, ok := bySourceOutcome[q.SourceID][q.Outcome]; !ok || decimal > existing {
			bySourceOutcome[q.SourceID][q.Outcome] = decimal
		}
	}

	grouped := make(map[string][]float64, len(bySourceOutcome))
	for sourceID, outcomes := range bySourceOutcome {
		for _, dec := range outcomes {
			grouped[sourceID] = append(grouped[sourceID], dec)
		}
	}
	return grouped
}
