package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/yourusername/race-forecast/internal/metrics"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout                time.Duration
	MaxRetries             int
	RetryWaitMin           time.Duration
	RetryWaitMax           time.Duration
	RateLimit              float64 // requests per second
	CircuitBreakerMax      int     // max consecutive failures before circuit break
	CircuitBreakerCooldown time.Duration
	UserAgent              string
}

// DefaultHTTPClientConfig returns recommended defaults. The rate keeps roughly
// 0.3s between requests to the same host.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:                15 * time.Second,
		MaxRetries:             3,
		RetryWaitMin:           300 * time.Millisecond,
		RetryWaitMax:           5 * time.Second,
		RateLimit:              3.0,
		CircuitBreakerMax:      5,
		CircuitBreakerCooldown: time.Minute,
		UserAgent:              "Mozilla/5.0 (compatible; race-forecast)",
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and circuit breaker
type RateLimitedHTTPClient struct {
	client    *retryablehttp.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	userAgent string
	logger    *logrus.Entry
}

// errServerStatus marks a 5xx response as a breaker failure.
var errServerStatus = errors.New("server error status")

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *logrus.Entry) *RateLimitedHTTPClient {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithField("component", "http_client")

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = leveledLogger{entry: logger}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	breakerMax := uint32(1)
	if cfg.CircuitBreakerMax > 0 {
		breakerMax = uint32(cfg.CircuitBreakerMax)
	}

	return &RateLimitedHTTPClient{
		client:    retryClient,
		limiter:   rate.NewLimiter(limit, 1),
		breaker:   newBreaker(breakerMax, cfg.CircuitBreakerCooldown, logger),
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// newBreaker opens after threshold consecutive failures. After cooldown one request
// is let through; its outcome closes or re-opens the breaker.
func newBreaker(threshold uint32, cooldown time.Duration, logger *logrus.Entry) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "http",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			entry := logger.WithFields(logrus.Fields{"from": from.String(), "to": to.String()})
			switch to {
			case gobreaker.StateOpen:
				metrics.RecordCircuitBreakerTrip()
				entry.Warn("Circuit breaker opened")
			case gobreaker.StateClosed:
				entry.Info("Circuit breaker closed")
			default:
				entry.Debug("Circuit breaker half-open")
			}
		},
	})
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.IsOpen() {
		return nil, NewDataSourceError("http", ErrCodeCircuitOpen, "circuit breaker open", gobreaker.ErrOpenState)
	}

	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to wrap request: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(retryReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, NewDataSourceError("http", ErrCodeCircuitOpen, "circuit breaker open", err)
	case errors.Is(err, errServerStatus):
		// The caller maps the status code.
		return result.(*http.Response), nil
	case err != nil:
		return nil, err
	}
	return result.(*http.Response), nil
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// IsOpen reports whether the circuit breaker is currently rejecting requests.
func (c *RateLimitedHTTPClient) IsOpen() bool {
	return c.breaker.State() == gobreaker.StateOpen
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// customRetryPolicy defines which HTTP responses should trigger a retry
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			// Retry on network errors
			return true, nil
		}

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		default:
			return false, nil
		}
	}
}

// leveledLogger adapts logrus to retryablehttp's LeveledLogger.
type leveledLogger struct {
	entry *logrus.Entry
}

func (l leveledLogger) fields(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Error(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}
