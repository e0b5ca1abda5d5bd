package bankuser

import (
	"github.com/cardboard-bank/bankload/loadtest"
)

// Option defines a functional option for configuring User.
type Option func(*User) error

// WithInitialBalanceRange sets the closed integer range the first account's balance is drawn from.
func WithInitialBalanceRange(lowest, highest int64) Option {
	return func(u *User) error {
		if lowest <= 0 || highest < lowest {
			return ErrInvalidBalanceRange
		}

		u.minInitialBalance = lowest
		u.maxInitialBalance = highest

		return nil
	}
}

// WithLogger sets the logger for the User.
func WithLogger(logger loadtest.Logger) Option {
	return func(u *User) error {
		u.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the User.
// The contextual logger takes precedence over the plain logger.
func WithContextualLogger(logger loadtest.ContextualLogger) Option {
	return func(u *User) error {
		u.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the User.
func WithMetrics(collector loadtest.MetricsCollector) Option {
	return func(u *User) error {
		u.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the User.
func WithTracing(collector loadtest.TracingCollector) Option {
	return func(u *User) error {
		u.tracingCollector = collector
		return nil
	}
}
