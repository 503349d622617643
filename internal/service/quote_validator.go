package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/models"
)

// observedAtTolerance allows for minor clock skew between feed and engine
const observedAtTolerance = 5 * time.Minute

// QuoteValidator vets incoming quotes before they enter the pipeline.
// Invalid quotes are dropped, never repaired.
type QuoteValidator struct {
	logger *logrus.Logger
	now    func() time.Time
}

// NewQuoteValidator creates a new quote validator
func NewQuoteValidator(logger *logrus.Logger) *QuoteValidator {
	return &QuoteValidator{logger: logger, now: time.Now}
}

// WithClock overrides the validator clock, for tests
func (v *QuoteValidator) WithClock(now func() time.Time) *QuoteValidator {
	v.now = now
	return v
}

// ValidateQuote checks one quote for required fields and sane values,
// returning every violation at once
func (v *QuoteValidator) ValidateQuote(q *models.OddsQuote) []string {
	var errors []string

	if q.SourceID == "" {
		errors = append(errors, "source_id is required")
	}
	if q.EventID == "" {
		errors = append(errors, "event_id is required")
	}
	if q.Outcome == "" {
		errors = append(errors, "outcome is required")
	}

	switch q.Format {
	case models.PriceFormatDecimal:
		if q.Price <= 1.0 {
			errors = append(errors, fmt.Sprintf("decimal price must exceed 1.0, got %g", q.Price))
		}
	case models.PriceFormatAmerican:
		if q.Price > -100 && q.Price < 100 {
			errors = append(errors, fmt.Sprintf("american price magnitude must be at least 100, got %g", q.Price))
		}
	default:
		errors = append(errors, fmt.Sprintf("unknown price format %q", q.Format))
	}

	if q.MarketType.RequiresLine() && q.LineValue == nil {
		errors = append(errors, fmt.Sprintf("line_value is required for %s markets", q.MarketType))
	}

	if q.ObservedAt.IsZero() {
		errors = append(errors, "observed_at is required")
	} else if q.ObservedAt.After(v.now().Add(observedAtTolerance)) {
		errors = append(errors, fmt.Sprintf("observed_at is in the future: %s", q.ObservedAt.Format(time.RFC3339)))
	}

	return errors
}

// FilterValid returns the quotes that pass validation, logging each rejection
func (v *QuoteValidator) FilterValid(quotes []*models.OddsQuote) []*models.OddsQuote {
	valid := make([]*models.OddsQuote, 0, len(quotes))
	for _, q := range quotes {
		violations := v.ValidateQuote(q)
		if len(violations) == 0 {
			valid = append(valid, q)
			continue
		}
		v.logger.WithFields(logrus.Fields{
			"source":     q.SourceID,
			"event_id":   q.EventID,
			"outcome":    q.Outcome,
			"violations": violations,
		}).Warn("Dropping invalid quote")
	}
	return valid
}
