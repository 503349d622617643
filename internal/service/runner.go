// Package service wires quote ingestion, probability lookup, and engine
// evaluation into the batch pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/datasource"
	"github.com/yourusername/sharpline/internal/engine"
	"github.com/yourusername/sharpline/internal/model"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/repository"
)

// statsFreshnessHorizon bounds how old a probability estimate may be before
// the recency gate treats the stats as stale.
const statsFreshnessHorizon = 24 * time.Hour

// BatchReport summarizes one pipeline run
type BatchReport struct {
	SourcesPolled   int
	SourcesSkipped  int
	QuotesFetched   int
	TuplesEvaluated int
	BetsRecommended int
	Duration        time.Duration
}

// String returns a log-friendly summary
func (r *BatchReport) String() string {
	return fmt.Sprintf("%d sources polled (%d skipped), %d quotes, %d tuples, %d bets, duration %v",
		r.SourcesPolled, r.SourcesSkipped, r.QuotesFetched, r.TuplesEvaluated, r.BetsRecommended, r.Duration)
}

// RunnerService drives the fetch, estimate, evaluate, persist cycle
type RunnerService struct {
	sources   []datasource.QuoteSource
	model     model.Client
	engine    *engine.Engine
	recRepo   repository.RecommendationRepository
	validator *QuoteValidator
	logger    *logrus.Logger
	now       func() time.Time
}

// NewRunnerService creates the batch pipeline service. recRepo may be nil
// when recommendations are not persisted.
func NewRunnerService(
	sources []datasource.QuoteSource,
	modelClient model.Client,
	eng *engine.Engine,
	recRepo repository.RecommendationRepository,
	logger *logrus.Logger,
) *RunnerService {
	return &RunnerService{
		sources:   sources,
		model:     modelClient,
		engine:    eng,
		recRepo:   recRepo,
		validator: NewQuoteValidator(logger),
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the service clock, for tests
func (s *RunnerService) WithClock(now func() time.Time) *RunnerService {
	s.now = now
	s.validator.WithClock(now)
	return s
}

// RunOnce executes one full batch: poll every source, group quotes into
// market tuples, attach probability estimates, evaluate, and persist the
// resulting recommendations.
func (s *RunnerService) RunOnce(ctx context.Context) (*BatchReport, error) {
	start := s.now()
	report := &BatchReport{}

	quotes := s.collectQuotes(ctx, report)
	if len(quotes) == 0 {
		report.Duration = time.Since(start)
		s.logger.Info("Batch produced no quotes")
		return report, nil
	}
	report.QuotesFetched = len(quotes)

	requests := s.buildTuples(ctx, quotes)
	report.TuplesEvaluated = len(requests)

	recommendations := s.engine.RunBatch(ctx, requests)

	for _, rec := range recommendations {
		if rec.Decision == models.DecisionBet {
			report.BetsRecommended++
		}
		if s.recRepo != nil {
			if err := s.recRepo.Create(ctx, rec); err != nil {
				s.logger.WithFields(logrus.Fields{
					"recommendation_id": rec.ID,
					"event_id":          rec.EventID,
				}).WithError(err).Warn("Failed to persist recommendation")
			}
		}
	}

	report.Duration = time.Since(start)
	s.logger.WithField("report", report.String()).Info("Batch complete")
	return report, nil
}

// collectQuotes polls every source, tolerating per-source failures. A spent
// budget is expected near the end of a window and only logged at debug.
func (s *RunnerService) collectQuotes(ctx context.Context, report *BatchReport) []*models.OddsQuote {
	var quotes []*models.OddsQuote

	for _, source := range s.sources {
		fetched, err := source.Fetch(ctx)
		if err != nil {
			report.SourcesSkipped++
			if errors.Is(err, datasource.ErrBudgetExhausted) {
				s.logger.WithField("source", source.Name()).Debug("Source budget exhausted, skipping")
			} else {
				s.logger.WithField("source", source.Name()).WithError(err).Warn("Source fetch failed")
			}
			continue
		}
		report.SourcesPolled++
		quotes = append(quotes, s.validator.FilterValid(fetched)...)
	}

	return quotes
}

// marketGroup accumulates one market's quotes keyed by outcome
type marketGroup struct {
	eventID    string
	marketType models.MarketType
	lineValue  *float64
	byOutcome  map[string][]*models.OddsQuote
	order      []string
}

// buildTuples groups quotes into (event, market, outcome) tuples and attaches
// probability estimates. Tuple order follows first observation so batches are
// reproducible for a fixed quote set.
func (s *RunnerService) buildTuples(ctx context.Context, quotes []*models.OddsQuote) []engine.TupleRequest {
	groups := make(map[string]*marketGroup)
	var groupOrder []string

	for _, q := range quotes {
		key := q.EventID + "|" + string(q.MarketType) + "|" + lineKey(q.LineValue)
		group, ok := groups[key]
		if !ok {
			group = &marketGroup{
				eventID:    q.EventID,
				marketType: q.MarketType,
				lineValue:  q.LineValue,
				byOutcome:  make(map[string][]*models.OddsQuote),
			}
			groups[key] = group
			groupOrder = append(groupOrder, key)
		}
		if _, seen := group.byOutcome[q.Outcome]; !seen {
			group.order = append(group.order, q.Outcome)
		}
		group.byOutcome[q.Outcome] = append(group.byOutcome[q.Outcome], q)
	}

	predictions := s.fetchPredictions(ctx, groups, groupOrder)

	var requests []engine.TupleRequest
	for _, key := range groupOrder {
		group := groups[key]
		for _, outcome := range group.order {
			var opposing []*models.OddsQuote
			for _, other := range group.order {
				if other != outcome {
					opposing = append(opposing, group.byOutcome[other]...)
				}
			}

			prediction := predictions[group.eventID+"|"+outcome]
			requests = append(requests, engine.TupleRequest{
				EventID:          group.eventID,
				MarketType:       group.marketType,
				Outcome:          outcome,
				LineValue:        group.lineValue,
				Quotes:           group.byOutcome[outcome],
				OpposingQuotes:   opposing,
				Prediction:       prediction,
				StatsFresh:       prediction != nil && prediction.Age(s.now()) <= statsFreshnessHorizon,
				ClosingTrackable: true,
			})
		}
	}

	return requests
}

// fetchPredictions batches one probability lookup per distinct
// (event, outcome) pair. A failed lookup leaves tuples without estimates;
// the sample-size gate rejects those downstream.
func (s *RunnerService) fetchPredictions(ctx context.Context, groups map[string]*marketGroup, groupOrder []string) map[string]*models.ModelProbability {
	predictions := make(map[string]*models.ModelProbability)
	if s.model == nil {
		return predictions
	}

	var probReqs []model.ProbabilityRequest
	seen := make(map[string]bool)
	for _, key := range groupOrder {
		group := groups[key]
		for _, outcome := range group.order {
			pairKey := group.eventID + "|" + outcome
			if seen[pairKey] {
				continue
			}
			seen[pairKey] = true
			probReqs = append(probReqs, model.ProbabilityRequest{EventID: group.eventID, Outcome: outcome})
		}
	}

	estimates, err := s.model.BatchProbabilities(ctx, probReqs)
	if err != nil {
		s.logger.WithError(err).Warn("Probability lookup failed, evaluating without estimates")
		return predictions
	}

	for i, estimate := range estimates {
		if estimate == nil {
			continue
		}
		predictions[probReqs[i].EventID+"|"+probReqs[i].Outcome] = estimate
	}
	return predictions
}

func lineKey(line *float64) string {
	if line == nil {
		return "-"
	}
	return strconv.FormatFloat(*line, 'f', -1, 64)
}
