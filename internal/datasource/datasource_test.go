package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/budget"
	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testHTTPConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	return cfg
}

const feedPayload = `[
  {
    "eventId": "evt-1",
    "markets": [
      {
        "type": "moneyline",
        "priceFormat": "decimal",
        "outcomes": [
          {"name": "home", "price": "1.909", "observedAt": "2026-01-15T12:00:00Z"},
          {"name": "away", "price": "2.05", "observedAt": "2026-01-15T12:00:00Z"}
        ]
      },
      {
        "type": "spread",
        "line": "-3.5",
        "priceFormat": "american",
        "outcomes": [
          {"name": "home", "price": "-110", "observedAt": "2026-01-15T12:00:00Z"},
          {"name": "away", "price": "not-a-price", "observedAt": "2026-01-15T12:00:00Z"}
        ]
      }
    ]
  }
]`

func TestOddsFeedFetchParsesQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/odds/current", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedPayload))
	}))
	defer server.Close()

	client := NewOddsFeedClient(NewRateLimitedHTTPClient(testHTTPConfig()), "oddsfeed", server.URL, "test-key", testLogger())

	quotes, err := client.Fetch(context.Background())
	require.NoError(t, err)
	// The unparseable price is discarded, not fatal
	require.Len(t, quotes, 3)

	assert.Equal(t, "oddsfeed", quotes[0].SourceID)
	assert.Equal(t, "evt-1", quotes[0].EventID)
	assert.Equal(t, models.MarketTypeMoneyline, quotes[0].MarketType)
	assert.Equal(t, "home", quotes[0].Outcome)
	assert.InDelta(t, 1.909, quotes[0].Price, 1e-9)
	assert.Equal(t, models.PriceFormatDecimal, quotes[0].Format)
	assert.Nil(t, quotes[0].LineValue)
	assert.Equal(t, time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC), quotes[0].ObservedAt)

	spread := quotes[2]
	assert.Equal(t, models.MarketTypeSpread, spread.MarketType)
	require.NotNil(t, spread.LineValue)
	assert.InDelta(t, -3.5, *spread.LineValue, 1e-9)
	assert.InDelta(t, -110, spread.Price, 1e-9)
	assert.Equal(t, models.PriceFormatAmerican, spread.Format)
}

func TestOddsFeedFetchAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewOddsFeedClient(NewRateLimitedHTTPClient(testHTTPConfig()), "oddsfeed", server.URL, "bad-key", testLogger())

	_, err := client.Fetch(context.Background())
	require.Error(t, err)

	var srcErr SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, ErrCodeAuthenticationFailed, srcErr.Code)
}

func TestOddsFeedHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewOddsFeedClient(NewRateLimitedHTTPClient(testHTTPConfig()), "oddsfeed", server.URL, "key", testLogger())
	assert.NoError(t, client.HealthCheck(context.Background()))
}

type stubSource struct {
	name    string
	fetches int
}

func (s *stubSource) Fetch(ctx context.Context) ([]*models.OddsQuote, error) {
	s.fetches++
	return []*models.OddsQuote{}, nil
}

func (s *stubSource) HealthCheck(ctx context.Context) error { return nil }

func (s *stubSource) Name() string { return s.name }

func TestBudgetedSourceDeniesWhenExhausted(t *testing.T) {
	store := budget.NewMemoryStore(map[string]int{"stub": 1}, testLogger())
	stub := &stubSource{name: "stub"}
	source := NewBudgetedSource(stub, store)

	_, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stub.fetches)

	_, err = source.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	// The upstream was never touched on the denied attempt
	assert.Equal(t, 1, stub.fetches)
}

func TestBudgetedSourceHealthCheckIsFree(t *testing.T) {
	store := budget.NewMemoryStore(map[string]int{"stub": 1}, testLogger())
	source := NewBudgetedSource(&stubSource{name: "stub"}, store)

	for i := 0; i < 5; i++ {
		require.NoError(t, source.HealthCheck(context.Background()))
	}

	remaining, err := store.Remaining(context.Background(), "stub")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestFactoryCreatesEnabledSources(t *testing.T) {
	store := budget.NewMemoryStore(map[string]int{"feed-a": 10}, testLogger())
	factory := NewFactory(store, testLogger())

	sources, err := factory.NewSources(config.SourcesConfig{
		Sources: []config.SourceConfig{
			{Name: "feed-a", Kind: "http", Enabled: true, BaseURL: "http://feed-a.example"},
			{Name: "feed-b", Kind: "http", Enabled: false, BaseURL: "http://feed-b.example"},
		},
	})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "feed-a", sources[0].Name())
}

func TestFactoryRejectsUnknownKind(t *testing.T) {
	factory := NewFactory(budget.NewMemoryStore(nil, testLogger()), testLogger())

	_, err := factory.NewSource(config.SourceConfig{Name: "x", Kind: "carrier-pigeon", Enabled: true})
	assert.Error(t, err)
}

func TestFactoryRequiresAnEnabledSource(t *testing.T) {
	factory := NewFactory(budget.NewMemoryStore(nil, testLogger()), testLogger())

	_, err := factory.NewSources(config.SourcesConfig{
		Sources: []config.SourceConfig{
			{Name: "feed-a", Kind: "http", Enabled: false, BaseURL: "http://feed-a.example"},
		},
	})
	assert.Error(t, err)
}

func TestSourceErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewSourceError("oddsfeed", ErrCodeNetworkError, "fetch failed", inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "oddsfeed")
	assert.Contains(t, err.Error(), ErrCodeNetworkError)
}
