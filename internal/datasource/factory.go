package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-forecast/internal/config"
)

// SourceType represents the type of data source
type SourceType string

const (
	// NetkeibaSourceType fetches pages over HTTP.
	NetkeibaSourceType SourceType = "netkeiba"
	// DirectorySourceType reads saved pages from disk.
	DirectorySourceType SourceType = "directory"
)

// Factory creates Source implementations based on configuration
type Factory struct {
	logger *logrus.Entry
	config config.ScraperConfig
}

// NewFactory creates a new data source factory
func NewFactory(cfg config.ScraperConfig, logger *logrus.Entry) *Factory {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// HTTPClientConfig maps scraper settings onto the HTTP client.
func (f *Factory) HTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:                f.config.Timeout(),
		MaxRetries:             f.config.MaxRetries,
		RetryWaitMin:           f.config.RetryWaitMin(),
		RetryWaitMax:           f.config.RetryWaitMax(),
		RateLimit:              f.config.RequestsPerSecond,
		CircuitBreakerMax:      f.config.CircuitBreakerMax,
		CircuitBreakerCooldown: f.config.CircuitBreakerCooldown(),
		UserAgent:              f.config.UserAgent,
	}
}

// Create builds the configured source, wrapped in a page cache when a TTL is set.
func (f *Factory) Create() (Source, error) {
	var source Source

	switch SourceType(f.config.Source) {
	case NetkeibaSourceType, "":
		httpClient := NewRateLimitedHTTPClient(f.HTTPClientConfig(), f.logger)
		source = NewNetkeibaClient(httpClient, NetkeibaConfig{
			NationalBaseURL: f.config.NationalBaseURL,
			RegionalBaseURL: f.config.RegionalBaseURL,
			HistoryBaseURL:  f.config.HistoryBaseURL,
		}, f.logger)
	case DirectorySourceType:
		if f.config.LocalDir == "" {
			return nil, fmt.Errorf("directory source requires local_dir")
		}
		source = NewDirectorySource(f.config.LocalDir)
	default:
		return nil, fmt.Errorf("unknown data source type: %s", f.config.Source)
	}

	f.logger.WithField("source", source.Name()).Info("Created data source")

	if ttl := f.config.CacheTTL(); ttl > 0 {
		return NewCachedSource(source, ttl, f.logger), nil
	}
	return source, nil
}
