package gates

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/models"
)

// Evaluator runs the full rule chain in a fixed, documented order. Every rule
// runs; nothing short-circuits, so failed_rules always lists every reason at
// once and its ordering is reproducible for a given input.
type Evaluator struct {
	cfg    *config.EngineConfig
	rules  []Rule
	logger *logrus.Logger
}

// NewEvaluator creates an evaluator with the canonical rule order
func NewEvaluator(cfg *config.EngineConfig, logger *logrus.Logger) *Evaluator {
	return &Evaluator{
		cfg: cfg,
		rules: []Rule{
			quoteFreshnessRule{},
			closingContextRule{},
			sampleSizeRule{},
			statsRecencyRule{},
			marketQualityRule{},
			minEVRule{},
			minEdgeRule{},
			minConfidenceRule{},
			comboLegsRule{},
			comboProbabilityRule{},
			requiredFieldsRule{},
		},
		logger: logger,
	}
}

// Evaluate runs every rule against ctx and aggregates the outcomes. The
// returned GateResult.Passed is true iff no blocking rule failed;
// informational outcomes (closing-line availability) never block.
func (e *Evaluator) Evaluate(ctx Context) (models.GateResult, []RuleOutcome) {
	outcomes := make([]RuleOutcome, 0, len(e.rules))
	result := models.GateResult{Passed: true, FailedRules: []models.RuleFailure{}}

	for _, rule := range e.rules {
		outcome := rule.Evaluate(ctx, e.cfg)
		outcomes = append(outcomes, outcome)

		if outcome.Passed {
			continue
		}
		if outcome.Informational {
			e.logger.WithFields(logrus.Fields{
				"rule":     outcome.RuleID,
				"observed": outcome.Observed,
			}).Debug("Informational gate note")
			continue
		}

		result.Passed = false
		result.FailedRules = append(result.FailedRules, models.RuleFailure{
			RuleID:   outcome.RuleID,
			Observed: outcome.Observed,
			Required: outcome.Required,
		})
	}

	return result, outcomes
}
