package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// OddsFeedClient implements QuoteSource for a JSON odds feed API
type OddsFeedClient struct {
	httpClient *RateLimitedHTTPClient
	name       string
	baseURL    string
	apiKey     string
	logger     *logrus.Logger
}

// feedEvent represents one event in the feed payload
type feedEvent struct {
	EventID string       `json:"eventId"`
	Markets []feedMarket `json:"markets"`
}

// feedMarket represents one market within an event
type feedMarket struct {
	Type     string        `json:"type"`
	Line     *string       `json:"line,omitempty"`
	Format   string        `json:"priceFormat"`
	Outcomes []feedOutcome `json:"outcomes"`
}

// feedOutcome represents a priced outcome. Prices arrive as strings; the feed
// quotes fractional-cent decimals that float parsing would mangle.
type feedOutcome struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	ObservedAt string `json:"observedAt"`
}

// NewOddsFeedClient creates a new odds feed client
func NewOddsFeedClient(httpClient *RateLimitedHTTPClient, name, baseURL, apiKey string, logger *logrus.Logger) *OddsFeedClient {
	return &OddsFeedClient{
		httpClient: httpClient,
		name:       name,
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Fetch retrieves the feed's current quotes
func (c *OddsFeedClient) Fetch(ctx context.Context) ([]*models.OddsQuote, error) {
	url := fmt.Sprintf("%s/odds/current", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewSourceError(c.name, ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewSourceError(c.name, ErrCodeNetworkError, "failed to fetch odds", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, NewSourceError(c.name, ErrCodeAuthenticationFailed, "invalid API key", nil)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewSourceError(c.name, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewSourceError(c.name, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var events []feedEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, NewSourceError(c.name, ErrCodeInvalidData, "failed to parse response", err)
	}

	quotes := c.convertEvents(events)
	metrics.QuotesFetchedTotal.WithLabelValues(c.name).Add(float64(len(quotes)))
	return quotes, nil
}

// HealthCheck verifies the feed is reachable
func (c *OddsFeedClient) HealthCheck(ctx context.Context) error {
	resp, err := c.httpClient.Get(ctx, fmt.Sprintf("%s/health", c.baseURL))
	if err != nil {
		return NewSourceError(c.name, ErrCodeNetworkError, "health check failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewSourceError(c.name, ErrCodeServerError, fmt.Sprintf("health check status %d", resp.StatusCode), nil)
	}
	return nil
}

// Name returns the source identifier
func (c *OddsFeedClient) Name() string {
	return c.name
}

// convertEvents flattens feed events into quote records, discarding entries
// that fail to parse rather than failing the fetch
func (c *OddsFeedClient) convertEvents(events []feedEvent) []*models.OddsQuote {
	var quotes []*models.OddsQuote
	for _, event := range events {
		for _, market := range event.Markets {
			marketType := models.MarketType(market.Type)
			lineValue := parseLine(market.Line)

			format := models.PriceFormat(market.Format)
			if format != models.PriceFormatAmerican && format != models.PriceFormatDecimal {
				c.logger.WithFields(logrus.Fields{
					"event":  event.EventID,
					"format": market.Format,
				}).Warn("Unknown price format in feed")
				continue
			}

			for _, outcome := range market.Outcomes {
				price, err := decimal.NewFromString(outcome.Price)
				if err != nil {
					c.logger.WithFields(logrus.Fields{
						"event":   event.EventID,
						"outcome": outcome.Name,
						"price":   outcome.Price,
					}).Warn("Discarding unparseable price")
					continue
				}

				observedAt, err := time.Parse(time.RFC3339, outcome.ObservedAt)
				if err != nil {
					observedAt = time.Now().UTC()
				}

				quotes = append(quotes, &models.OddsQuote{
					SourceID:   c.name,
					EventID:    event.EventID,
					MarketType: marketType,
					Outcome:    outcome.Name,
					LineValue:  lineValue,
					Price:      price.InexactFloat64(),
					Format:     format,
					ObservedAt: observedAt,
				})
			}
		}
	}
	return quotes
}

// parseLine parses a spread/total line, nil when absent or malformed
func parseLine(s *string) *float64 {
	if s == nil || *s == "" {
		return nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
