package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/cardboard-bank/bankload/loadtest/localstore"
)

const (
	defaultPGXMinConnections = int32(2)
	defaultPGXMaxConnections = int32(8)
	defaultHealthCheckPeriod = time.Minute
	defaultPGXConnectTimeout = 5 * time.Second
	sqliteBusyTimeoutParam   = "_busy_timeout"
)

// ErrOpeningLocalStoreFailed is returned when the configured backend cannot be opened or reached.
var ErrOpeningLocalStoreFailed = errors.New("opening local store failed")

// LocalStore bundles a store with the function that releases its connections.
type LocalStore struct {
	*localstore.Store
	close func() error
}

// Close releases the underlying database handle.
func (s *LocalStore) Close() error {
	return s.close()
}

// OpenLocalStore opens the configured backend, checks connectivity and wraps it in a localstore.Store.
func OpenLocalStore(ctx context.Context, cfg LocalStoreConfig, options ...localstore.Option) (*LocalStore, error) {
	switch cfg.Driver {
	case DriverSQLite:
		db, err := sqlx.Open(DriverSQLite, SQLiteDSN(cfg.DSN, cfg.BusyTimeout))
		if err != nil {
			return nil, errors.Join(ErrOpeningLocalStoreFailed, err)
		}

		// All sessions share one connection; concurrent writers wait on the busy timeout.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		return newSQLXLocalStore(ctx, db, options)

	case DriverPostgres:
		db, err := sqlx.Open(DriverPostgres, cfg.DSN)
		if err != nil {
			return nil, errors.Join(ErrOpeningLocalStoreFailed, err)
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

		return newSQLXLocalStore(ctx, db, options)

	case DriverPGX:
		return newPGXLocalStore(ctx, cfg, options)

	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrOpeningLocalStoreFailed, cfg.Driver)
	}
}

// SQLiteDSN turns a file path or DSN into a go-sqlite3 DSN carrying the busy timeout.
func SQLiteDSN(dsn string, busyTimeout time.Duration) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	if strings.Contains(dsn, sqliteBusyTimeoutParam) {
		return dsn
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return fmt.Sprintf("%s%s%s=%d", dsn, separator, sqliteBusyTimeoutParam, busyTimeout.Milliseconds())
}

func newSQLXLocalStore(ctx context.Context, db *sqlx.DB, options []localstore.Option) (*LocalStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrOpeningLocalStoreFailed, err)
	}

	store, err := localstore.NewStoreFromSQLX(db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &LocalStore{Store: store, close: db.Close}, nil
}

func newPGXLocalStore(ctx context.Context, cfg LocalStoreConfig, options []localstore.Option) (*LocalStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Join(ErrOpeningLocalStoreFailed, err)
	}

	poolConfig.MaxConns = defaultPGXMaxConnections
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec
	}
	poolConfig.MinConns = min(defaultPGXMinConnections, poolConfig.MaxConns)
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	poolConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = defaultPGXConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Join(ErrOpeningLocalStoreFailed, err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(ErrOpeningLocalStoreFailed, err)
	}

	store, err := localstore.NewStoreFromPGXPool(pool, options...)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &LocalStore{
		Store: store,
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}
