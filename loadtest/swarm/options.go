package swarm

import (
	"github.com/cardboard-bank/bankload/loadtest"
)

// Option defines a functional option for configuring Swarm.
type Option func(*Swarm) error

// WithSeed fixes the seed the per-user wait time generators derive from.
func WithSeed(seed uint64) Option {
	return func(s *Swarm) error {
		s.seed = seed
		return nil
	}
}

// WithLogger sets the logger for the Swarm.
func WithLogger(logger loadtest.Logger) Option {
	return func(s *Swarm) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Swarm.
// The contextual logger takes precedence over the plain logger.
func WithContextualLogger(logger loadtest.ContextualLogger) Option {
	return func(s *Swarm) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Swarm.
func WithMetrics(collector loadtest.MetricsCollector) Option {
	return func(s *Swarm) error {
		s.metricsCollector = collector
		return nil
	}
}
