package storewrapper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/require"

	"github.com/cardboard-bank/bankload/loadtest/localstore"
	"github.com/cardboard-bank/bankload/testutil/helper"
)

// Adapter type constants
const (
	typeSQLite  = "sqlite"
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
)

// Environment variables selecting the backend under test.
const (
	EnvAdapterType = "ADAPTER_TYPE"
	EnvPostgresDSN = "LOCALSTORE_TEST_DSN"
)

// Wrapper abstracts over the different database handles a Store can run on.
type Wrapper interface {
	GetStore() *localstore.Store
	AdapterType() string
	Close()
}

// SQLiteWrapper wraps a file-backed sqlite database.
type SQLiteWrapper struct {
	db    *sqlx.DB
	store *localstore.Store
}

func (w *SQLiteWrapper) GetStore() *localstore.Store {
	return w.store
}

func (w *SQLiteWrapper) AdapterType() string {
	return typeSQLite
}

func (w *SQLiteWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *localstore.Store
}

func (w *PGXPoolWrapper) GetStore() *localstore.Store {
	return w.store
}

func (w *PGXPoolWrapper) AdapterType() string {
	return typePGXPool
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps lib/pq based testing through sqlx
type SQLDBWrapper struct {
	db    *sqlx.DB
	store *localstore.Store
}

func (w *SQLDBWrapper) GetStore() *localstore.Store {
	return w.store
}

func (w *SQLDBWrapper) AdapterType() string {
	return typeSQLDB
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the wrapper selected by ADAPTER_TYPE. The sqlite wrapper is the default.
// The postgres wrappers read their DSN from LOCALSTORE_TEST_DSN and skip the test when it is unset.
// The store is reset and the wrapper is closed when the test ends.
func CreateWrapperWithTestConfig(t testing.TB, options ...localstore.Option) Wrapper {
	t.Helper()

	adapterTypeFromEnv := strings.ToLower(os.Getenv(EnvAdapterType))

	var wrapper Wrapper

	switch adapterTypeFromEnv {
	case typeSQLite, "":
		db := helper.OpenSQLiteDB(t)
		store, err := localstore.NewStoreFromSQLX(db, options...)
		require.NoError(t, err, "error in test setup")

		wrapper = &SQLiteWrapper{db: db, store: store}

	case typePGXPool:
		connPool, err := pgxpool.New(context.Background(), postgresDSN(t))
		require.NoError(t, err, "error connecting to DB pool in test setup")
		store, err := localstore.NewStoreFromPGXPool(connPool, options...)
		require.NoError(t, err, "error in test setup")

		wrapper = &PGXPoolWrapper{pool: connPool, store: store}

	case typeSQLDB:
		db, err := sqlx.Open("postgres", postgresDSN(t))
		require.NoError(t, err, "error connecting to DB in test setup")
		store, err := localstore.NewStoreFromSQLX(db, options...)
		require.NoError(t, err, "error in test setup")

		wrapper = &SQLDBWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}

	require.NoError(t, wrapper.GetStore().Reset(context.Background()), "error in test setup")
	t.Cleanup(wrapper.Close)

	return wrapper
}

func postgresDSN(t testing.TB) string {
	t.Helper()

	dsn := os.Getenv(EnvPostgresDSN)
	if dsn == "" {
		t.Skipf("%s is not set", EnvPostgresDSN)
	}

	return dsn
}
