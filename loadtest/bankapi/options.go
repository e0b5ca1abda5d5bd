package bankapi

import (
	"net/http"
	"time"

	"github.com/cardboard-bank/bankload/loadtest"
)

// Option defines a functional option for configuring Client.
type Option func(*Client) error

// WithHTTPClient sets the underlying HTTP client, e.g. an httptest server's client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient != nil {
			c.httpClient = httpClient
		}

		return nil
	}
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.timeout = timeout
		return nil
	}
}

// WithLogger sets the logger for the Client.
//
// Debug level: every request with method, path, status and duration
// Warn level: non-200 replies
// Error level: transport and decoding failures.
func WithLogger(logger loadtest.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Client.
// The contextual logger takes precedence over the plain logger.
func WithContextualLogger(logger loadtest.ContextualLogger) Option {
	return func(c *Client) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Client.
func WithMetrics(collector loadtest.MetricsCollector) Option {
	return func(c *Client) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Client.
func WithTracing(collector loadtest.TracingCollector) Option {
	return func(c *Client) error {
		c.tracingCollector = collector
		return nil
	}
}
