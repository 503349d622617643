package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/budget"
	"github.com/yourusername/sharpline/internal/config"
)

// Factory creates QuoteSource implementations based on configuration
type Factory struct {
	logger *logrus.Logger
	store  budget.Store
}

// NewFactory creates a new quote source factory. Every source it produces is
// budget-gated.
func NewFactory(store budget.Store, logger *logrus.Logger) *Factory {
	return &Factory{
		logger: logger,
		store:  store,
	}
}

// NewSource creates a single QuoteSource from its configuration
func (f *Factory) NewSource(cfg config.SourceConfig) (QuoteSource, error) {
	var source QuoteSource

	switch cfg.Kind {
	case "http":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("source %s requires a base_url", cfg.Name)
		}
		httpCfg := DefaultHTTPClientConfig()
		if cfg.RateLimit > 0 {
			httpCfg.RateLimit = cfg.RateLimit
		}
		if cfg.TimeoutSeconds > 0 {
			httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		source = NewOddsFeedClient(NewRateLimitedHTTPClient(httpCfg), cfg.Name, cfg.BaseURL, cfg.APIKey, f.logger)

	case "stream":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("source %s requires a base_url", cfg.Name)
		}
		source = NewStreamSource(cfg.Name, cfg.BaseURL, cfg.APIKey, f.logger)

	default:
		return nil, fmt.Errorf("unknown source kind: %s", cfg.Kind)
	}

	return NewBudgetedSource(source, f.store), nil
}

// NewSources creates all enabled quote sources from configuration
func (f *Factory) NewSources(cfg config.SourcesConfig) ([]QuoteSource, error) {
	var sources []QuoteSource

	for _, srcCfg := range cfg.Sources {
		if !srcCfg.Enabled {
			f.logger.WithField("source", srcCfg.Name).Info("Skipping disabled source")
			continue
		}

		source, err := f.NewSource(srcCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create source %s: %w", srcCfg.Name, err)
		}
		sources = append(sources, source)
		f.logger.WithField("source", srcCfg.Name).Info("Created quote source")
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled quote sources configured")
	}

	return sources, nil
}
