package seed

import (
	"github.com/cardboard-bank/bankload/loadtest"
)

// Option defines a functional option for configuring Generator.
type Option func(*Generator) error

// WithCount sets how many identities a run generates.
func WithCount(count int) Option {
	return func(g *Generator) error {
		if count <= 0 {
			return ErrInvalidCount
		}

		g.count = count

		return nil
	}
}

// WithFakerSeed makes generated identities reproducible. Zero picks a random seed.
func WithFakerSeed(seed uint64) Option {
	return func(g *Generator) error {
		g.fakerSeed = seed
		return nil
	}
}

// WithLogger sets the logger for the Generator.
func WithLogger(logger loadtest.Logger) Option {
	return func(g *Generator) error {
		g.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Generator.
// The contextual logger takes precedence over the plain logger.
func WithContextualLogger(logger loadtest.ContextualLogger) Option {
	return func(g *Generator) error {
		g.contextualLogger = logger
		return nil
	}
}
