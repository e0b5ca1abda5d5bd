package localstore

import (
	"github.com/cardboard-bank/bankload/loadtest"
)

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithUsersTableName sets the table name for seeded identities.
func WithUsersTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return loadtest.ErrEmptyTableName
		}

		s.usersTableName = tableName

		return nil
	}
}

// WithServicesTableName sets the table name for known account ids.
func WithServicesTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return loadtest.ErrEmptyTableName
		}

		s.servicesTableName = tableName

		return nil
	}
}

// WithDialect sets the SQL dialect used to render statements, "sqlite3" or "postgres".
func WithDialect(dialect string) Option {
	return func(s *Store) error {
		if dialect != DialectSQLite && dialect != DialectPostgres {
			return loadtest.ErrUnsupportedDialect
		}

		s.dialect = dialect

		return nil
	}
}

// WithLogger sets the logger for the Store.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: bulk operations like resets and seeding
// Warn level: non-critical issues like cleanup failures
// Error level: failures that cause operation failures.
func WithLogger(logger loadtest.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// The contextual logger takes precedence over the plain logger and receives trace correlation.
func WithContextualLogger(logger loadtest.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
func WithMetrics(collector loadtest.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
func WithTracing(collector loadtest.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}
