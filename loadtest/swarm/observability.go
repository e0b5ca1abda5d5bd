package swarm

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/cardboard-bank/bankload/loadtest"
)

const (
	logMsgSwarmStarting      = "swarm starting"
	logMsgSwarmFinished      = "swarm finished"
	logMsgSwarmStats         = "swarm stats"
	logMsgUserCreationFailed = "creating simulated user failed"
	logMsgBootstrapFailed    = "session bootstrap failed, user stopped"
	logMsgTaskFailed         = "task failed"

	logAttrUsers             = "users"
	logAttrSpawnRate         = "spawn_rate"
	logAttrRunTime           = "run_time"
	logAttrUserIndex         = "user_index"
	logAttrError             = "error"
	logAttrUsersSpawned      = "users_spawned"
	logAttrUsersBootstrapped = "users_bootstrapped"
	logAttrUsersFailed       = "users_failed"
	logAttrUsersRunning      = "users_running"
	logAttrTasksRun          = "tasks_run"
	logAttrTaskErrors        = "task_errors"
	logAttrOutcomePrefix     = "outcome."

	metricSessions     = "swarm_sessions_total"
	metricUsersRunning = "swarm_users_running"

	labelStatus = "status"
)

// reportStats logs the counters every StatsInterval until ctx ends.
func (s *Swarm) reportStats(ctx context.Context) {
	if s.config.StatsInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logInfo(ctx, logMsgSwarmStats, s.statsArgs()...)
		}
	}
}

func (s *Swarm) statsArgs() []any {
	stats := s.Stats()

	args := []any{
		logAttrUsersSpawned, stats.UsersSpawned,
		logAttrUsersBootstrapped, stats.UsersBootstrapped,
		logAttrUsersFailed, stats.UsersFailed,
		logAttrUsersRunning, stats.UsersRunning,
		logAttrTasksRun, stats.TasksRun,
		logAttrTaskErrors, stats.TaskErrors,
	}

	for _, outcome := range slices.Sorted(maps.Keys(stats.Outcomes)) {
		args = append(args, logAttrOutcomePrefix+outcome, stats.Outcomes[outcome])
	}

	return args
}

func (s *Swarm) recordUsersRunning(ctx context.Context) {
	if s.metricsCollector == nil {
		return
	}

	running := float64(s.Stats().UsersRunning)

	if contextualCollector, ok := s.metricsCollector.(loadtest.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricUsersRunning, running, nil)
		return
	}

	s.metricsCollector.RecordValue(metricUsersRunning, running, nil)
}

func (s *Swarm) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := s.metricsCollector.(loadtest.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metric, labels)
}

func (s *Swarm) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.InfoContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Info(msg, args...)
	}
}

func (s *Swarm) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.WarnContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Warn(msg, args...)
	}
}

func (s *Swarm) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	case s.logger != nil:
		s.logger.Error(msg, allArgs...)
	}
}
