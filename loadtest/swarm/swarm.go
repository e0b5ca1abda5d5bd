package swarm

import (
	"context"
	"errors"
	"maps"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cardboard-bank/bankload/loadtest"
)

// Defaults of the recurring task wait and the spawn rate.
const (
	DefaultMinWait   = 10 * time.Second
	DefaultMaxWait   = 15 * time.Second
	DefaultSpawnRate = 1.0
)

var (
	// ErrInvalidConfig is returned when a Config cannot drive a swarm.
	ErrInvalidConfig = errors.New("invalid swarm config")

	// ErrNilFactory is returned when no Factory is supplied.
	ErrNilFactory = errors.New("behavior factory must not be nil")
)

// Config controls how many users run and how they are paced.
type Config struct {
	Users         int
	SpawnRate     float64       // users started per second
	RunTime       time.Duration // zero runs until the context is canceled
	MinWait       time.Duration
	MaxWait       time.Duration
	StatsInterval time.Duration // zero disables periodic stats logging
}

// DefaultConfig returns a single-user config with the default wait range.
func DefaultConfig() Config {
	return Config{
		Users:     1,
		SpawnRate: DefaultSpawnRate,
		MinWait:   DefaultMinWait,
		MaxWait:   DefaultMaxWait,
	}
}

func (c Config) validate() error {
	switch {
	case c.Users <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("users must be positive"))
	case c.SpawnRate <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("spawn rate must be positive"))
	case c.RunTime < 0 || c.StatsInterval < 0:
		return errors.Join(ErrInvalidConfig, errors.New("durations must not be negative"))
	case c.MinWait < 0 || c.MaxWait < c.MinWait:
		return errors.Join(ErrInvalidConfig, errors.New("wait range must satisfy 0 <= min_wait <= max_wait"))
	default:
		return nil
	}
}

// Behavior is one simulated user as seen by the swarm. *bankuser.User satisfies it.
type Behavior interface {
	Bootstrap(ctx context.Context) error
	RunTask(ctx context.Context) (string, error)
}

// Factory creates the behavior of the user with the given zero-based index.
type Factory func(userIndex int) (Behavior, error)

// Stats is a snapshot of the swarm counters.
type Stats struct {
	UsersSpawned      int64
	UsersBootstrapped int64
	UsersFailed       int64
	UsersRunning      int64
	TasksRun          int64
	TaskErrors        int64
	Outcomes          map[string]int64
}

// Swarm runs simulated users.
type Swarm struct {
	config  Config
	factory Factory
	seed    uint64

	mu    sync.Mutex
	stats Stats

	logger           loadtest.Logger
	contextualLogger loadtest.ContextualLogger
	metricsCollector loadtest.MetricsCollector
}

// New validates config and creates a Swarm.
func New(config Config, factory Factory, options ...Option) (*Swarm, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	s := &Swarm{
		config:  config,
		factory: factory,
		seed:    rand.Uint64(), //nolint:gosec
		stats:   Stats{Outcomes: make(map[string]int64)},
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Stats returns a copy of the current counters.
func (s *Swarm) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.Outcomes = maps.Clone(s.stats.Outcomes)

	return stats
}

// Run spawns all users and blocks until every one of them has ended.
// Cancellation and an elapsed RunTime end the run normally and yield a nil error.
func (s *Swarm) Run(ctx context.Context) error {
	if s.config.RunTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RunTime)
		defer cancel()
	}

	reporterCtx, stopReporter := context.WithCancel(ctx)
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		s.reportStats(reporterCtx)
	}()

	s.logInfo(ctx, logMsgSwarmStarting,
		logAttrUsers, s.config.Users,
		logAttrSpawnRate, s.config.SpawnRate,
		logAttrRunTime, s.config.RunTime.String())

	var users errgroup.Group
	spawnInterval := time.Duration(float64(time.Second) / s.config.SpawnRate)

	for userIndex := range s.config.Users {
		if userIndex > 0 && !sleep(ctx, spawnInterval) {
			break
		}

		s.update(func(stats *Stats) { stats.UsersSpawned++ })

		users.Go(func() error {
			s.runUser(ctx, userIndex)
			return nil
		})
	}

	err := users.Wait()

	stopReporter()
	<-reporterDone

	s.logInfo(ctx, logMsgSwarmFinished, s.statsArgs()...)

	return err
}

func (s *Swarm) runUser(ctx context.Context, userIndex int) {
	behavior, err := s.factory(userIndex)
	if err != nil {
		s.update(func(stats *Stats) { stats.UsersFailed++ })
		s.incrementCounter(ctx, metricSessions, map[string]string{labelStatus: loadtest.StatusError})
		s.logError(ctx, logMsgUserCreationFailed, err, logAttrUserIndex, userIndex)

		return
	}

	if err = behavior.Bootstrap(ctx); err != nil {
		s.update(func(stats *Stats) { stats.UsersFailed++ })
		s.incrementCounter(ctx, metricSessions, map[string]string{labelStatus: loadtest.StatusError})
		s.logError(ctx, logMsgBootstrapFailed, err, logAttrUserIndex, userIndex)

		return
	}

	s.update(func(stats *Stats) {
		stats.UsersBootstrapped++
		stats.UsersRunning++
	})
	s.incrementCounter(ctx, metricSessions, map[string]string{labelStatus: loadtest.StatusSuccess})
	s.recordUsersRunning(ctx)

	defer func() {
		s.update(func(stats *Stats) { stats.UsersRunning-- })
		s.recordUsersRunning(ctx)
	}()

	rng := rand.New(rand.NewPCG(s.seed, uint64(userIndex))) //nolint:gosec

	for ctx.Err() == nil {
		outcome, taskErr := behavior.RunTask(ctx)

		switch {
		case taskErr != nil && ctx.Err() != nil:
			return
		case taskErr != nil:
			s.update(func(stats *Stats) {
				stats.TasksRun++
				stats.TaskErrors++
			})
			s.logWarn(ctx, logMsgTaskFailed, logAttrUserIndex, userIndex, logAttrError, taskErr.Error())
		default:
			s.update(func(stats *Stats) {
				stats.TasksRun++
				stats.Outcomes[outcome]++
			})
		}

		if !sleep(ctx, s.waitTime(rng)) {
			return
		}
	}
}

// waitTime draws uniformly from the closed interval [MinWait, MaxWait].
func (s *Swarm) waitTime(rng *rand.Rand) time.Duration {
	spread := int64(s.config.MaxWait - s.config.MinWait)

	return s.config.MinWait + time.Duration(rng.Int64N(spread+1))
}

func (s *Swarm) update(fn func(stats *Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.stats)
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
