// Package datasource provides quote ingestion from upstream odds providers.
package datasource

import (
	"context"
	"errors"

	"github.com/yourusername/sharpline/internal/models"
)

// QuoteSource defines the interface for fetching odds quotes from an upstream
// provider. Implementations are injected into the batch runner; the engine
// core never constructs one itself.
type QuoteSource interface {
	// Fetch retrieves the current quotes the provider exposes
	Fetch(ctx context.Context) ([]*models.OddsQuote, error)

	// HealthCheck verifies the provider is reachable
	HealthCheck(ctx context.Context) error

	// Name returns the source identifier used for budgets and snapshots
	Name() string
}

// SourceError represents errors from quote source operations
type SourceError struct {
	Source  string // source name
	Code    string // error code (e.g. "rate_limit_exceeded")
	Message string // error message
	Err     error  // underlying error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeBudgetExhausted      = "budget_exhausted"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// ErrBudgetExhausted signals the source's daily fetch quota is spent. The
// caller defers to the next window; nothing retries.
var ErrBudgetExhausted = errors.New("fetch budget exhausted")

// NewSourceError creates a new source error
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
