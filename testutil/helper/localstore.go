package helper

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/stretchr/testify/require"

	"github.com/cardboard-bank/bankload/loadtest"
	"github.com/cardboard-bank/bankload/loadtest/localstore"
)

// OpenSQLiteDB opens a file-backed sqlite database in a per-test temp dir.
// The handle is closed when the test ends.
func OpenSQLiteDB(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "loadtest.db"))

	db, err := sqlx.Open("sqlite3", dsn)
	require.NoError(t, err, "error in arranging test data")
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// GivenEmptyStore returns a Store over a fresh sqlite database with both relations created.
func GivenEmptyStore(t testing.TB, options ...localstore.Option) *localstore.Store {
	t.Helper()

	store, err := localstore.NewStoreFromSQLX(OpenSQLiteDB(t), options...)
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, store.Reset(context.Background()), "error in arranging test data")

	return store
}

// GivenIdentities inserts the identities into the store.
func GivenIdentities(t testing.TB, store *localstore.Store, identities ...loadtest.Identity) {
	t.Helper()

	require.NoError(t, store.SeedIdentities(context.Background(), identities), "error in arranging test data")
}

// GivenServiceIDs caches the account ids in the store.
func GivenServiceIDs(t testing.TB, store *localstore.Store, ids ...string) {
	t.Helper()

	require.NoError(t, store.AddServiceIDs(context.Background(), ids...), "error in arranging test data")
}

// FixtureJaneDoe returns the identity used by end-to-end scenarios.
func FixtureJaneDoe() loadtest.Identity {
	return loadtest.Identity{FullName: "Jane Doe", Username: "jdoe", Password: "pw"}
}
