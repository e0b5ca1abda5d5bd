package seed

import (
	"context"
	"errors"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/cardboard-bank/bankload/loadtest"
)

// DefaultIdentityCount is the number of identities a run generates unless configured otherwise.
const DefaultIdentityCount = 999

const (
	passwordLength = 10

	logMsgSeedStarted  = "seeding local store"
	logMsgSeedFinished = "local store seeded"
	logMsgSeedFailed   = "seeding local store failed"

	logAttrCount      = "count"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
)

var (
	// ErrInvalidCount is returned when a non-positive identity count is configured.
	ErrInvalidCount = errors.New("identity count must be positive")

	// ErrNilStore is returned when no store is supplied.
	ErrNilStore = errors.New("store must not be nil")
)

// Store is the part of the local store the generator writes. *localstore.Store satisfies it.
type Store interface {
	Reset(ctx context.Context) error
	SeedIdentities(ctx context.Context, identities []loadtest.Identity) error
}

// Generator resets the local store and seeds identities.
type Generator struct {
	store            Store
	count            int
	fakerSeed        uint64
	logger           loadtest.Logger
	contextualLogger loadtest.ContextualLogger
}

// NewGenerator creates a Generator for DefaultIdentityCount identities with a random faker seed.
func NewGenerator(store Store, options ...Option) (*Generator, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	g := &Generator{
		store: store,
		count: DefaultIdentityCount,
	}

	for _, option := range options {
		if err := option(g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Run drops and recreates the local store relations, then inserts the generated identities.
func (g *Generator) Run(ctx context.Context) error {
	start := time.Now()
	g.logInfo(ctx, logMsgSeedStarted, logAttrCount, g.count)

	if err := g.store.Reset(ctx); err != nil {
		g.logError(ctx, err)
		return err
	}

	if err := g.store.SeedIdentities(ctx, g.Identities()); err != nil {
		g.logError(ctx, err)
		return err
	}

	g.logInfo(ctx, logMsgSeedFinished,
		logAttrCount, g.count,
		logAttrDurationMS, time.Since(start).Milliseconds())

	return nil
}

// Identities generates the configured number of identities.
// A non-zero faker seed makes the result reproducible.
func (g *Generator) Identities() []loadtest.Identity {
	faker := gofakeit.New(g.fakerSeed)

	identities := make([]loadtest.Identity, 0, g.count)
	for range g.count {
		identities = append(identities, loadtest.Identity{
			FullName: faker.Name(),
			Username: faker.Username(),
			Password: faker.Password(true, true, true, true, false, passwordLength),
		})
	}

	return identities
}

func (g *Generator) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case g.contextualLogger != nil:
		g.contextualLogger.InfoContext(ctx, msg, args...)
	case g.logger != nil:
		g.logger.Info(msg, args...)
	}
}

func (g *Generator) logError(ctx context.Context, err error) {
	switch {
	case g.contextualLogger != nil:
		g.contextualLogger.ErrorContext(ctx, logMsgSeedFailed, logAttrError, err.Error())
	case g.logger != nil:
		g.logger.Error(logMsgSeedFailed, logAttrError, err.Error())
	}
}
