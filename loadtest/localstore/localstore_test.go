package localstore_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardboard-bank/bankload/loadtest"
	"github.com/cardboard-bank/bankload/loadtest/localstore"
	. "github.com/cardboard-bank/bankload/testutil/helper" //nolint:revive
)

func Test_FactoryFunctions_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	testCases := []struct {
		name        string
		factoryFunc func() (*localstore.Store, error)
	}{
		{
			name: "NewStoreFromPGXPool with nil",
			factoryFunc: func() (*localstore.Store, error) {
				return localstore.NewStoreFromPGXPool(nil)
			},
		},
		{
			name: "NewStoreFromSQLDB with nil",
			factoryFunc: func() (*localstore.Store, error) {
				return localstore.NewStoreFromSQLDB(nil)
			},
		},
		{
			name: "NewStoreFromSQLX with nil",
			factoryFunc: func() (*localstore.Store, error) {
				return localstore.NewStoreFromSQLX(nil)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := tc.factoryFunc()

			// assert
			assert.ErrorIs(t, err, loadtest.ErrNilDatabaseConnection)
		})
	}
}

func Test_Options_ShouldReject_InvalidValues(t *testing.T) {
	testCases := []struct {
		name   string
		option localstore.Option
		want   error
	}{
		{name: "empty users table", option: localstore.WithUsersTableName(""), want: loadtest.ErrEmptyTableName},
		{name: "empty services table", option: localstore.WithServicesTableName(""), want: loadtest.ErrEmptyTableName},
		{name: "unknown dialect", option: localstore.WithDialect("mysql"), want: loadtest.ErrUnsupportedDialect},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := localstore.NewStoreFromSQLX(OpenSQLiteDB(t), tc.option)

			// assert
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func Test_NewStoreFromSQLX_ShouldUseSQLiteDialect_ForSQLiteDriver(t *testing.T) {
	// act
	store, err := localstore.NewStoreFromSQLX(OpenSQLiteDB(t))

	// assert
	require.NoError(t, err)
	assert.Equal(t, localstore.DialectSQLite, store.Dialect())
}

func Test_NewStoreFromSQLDB_ShouldWorkAgainstSQLite(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := localstore.NewStoreFromSQLDB(OpenSQLiteDB(t).DB)
	require.NoError(t, err)

	// arrange
	require.NoError(t, store.Reset(ctx))
	GivenIdentities(t, store, FixtureJaneDoe())

	// act
	identity, err := store.RandomIdentity(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, FixtureJaneDoe(), identity)
}

func Test_RandomIdentity_ShouldReturnErrNoIdentities_WhenStoreIsEmpty(t *testing.T) {
	// setup
	store := GivenEmptyStore(t)

	// act
	_, err := store.RandomIdentity(context.Background())

	// assert
	assert.ErrorIs(t, err, loadtest.ErrNoIdentities)
}

func Test_RandomIdentity_ShouldReturnOneOfTheSeededIdentities(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenEmptyStore(t)

	// arrange
	seeded := []loadtest.Identity{
		{FullName: "Jane Doe", Username: "jane", Password: "pw"},
		{FullName: "John Roe", Username: "john", Password: "secret"},
		{FullName: "Ann Poe", Username: "ann", Password: "hunter2"},
	}
	GivenIdentities(t, store, seeded...)

	// act
	seen := make(map[string]bool)
	for range 50 {
		identity, err := store.RandomIdentity(ctx)
		require.NoError(t, err)
		assert.Contains(t, seeded, identity)
		seen[identity.Username] = true
	}

	// assert
	assert.Greater(t, len(seen), 1, "random selection should not always return the same row")
}

func Test_SeedIdentities_ShouldInsertAllRows_AcrossBatches(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenEmptyStore(t)

	// arrange
	identities := make([]loadtest.Identity, 0, 999)
	for range 999 {
		identities = append(identities, FixtureJaneDoe())
	}

	// act
	err := store.SeedIdentities(ctx, identities)

	// assert
	require.NoError(t, err)
	count, err := store.CountIdentities(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(999), count, "duplicates are accepted")
}

func Test_SeedIdentities_ShouldEscapeQuotes(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenEmptyStore(t)

	// arrange
	identity := loadtest.Identity{FullName: "Dara O'Brien", Username: "o'brien", Password: `p"w'`}

	// act
	GivenIdentities(t, store, identity)
	got, err := store.RandomIdentity(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func Test_RandomServiceID_ShouldReturnErrNoServiceIDs_WhenNoneCached(t *testing.T) {
	// setup
	store := GivenEmptyStore(t)

	// act
	_, err := store.RandomServiceID(context.Background())

	// assert
	assert.ErrorIs(t, err, loadtest.ErrNoServiceIDs)
}

func Test_AddServiceIDs_ShouldAcceptDuplicates(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenEmptyStore(t)

	// act
	GivenServiceIDs(t, store, "S1", "S1")
	GivenServiceIDs(t, store, "S1")
	id, err := store.RandomServiceID(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "S1", id)

	count, err := store.CountServiceIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func Test_Reset_ShouldDropExistingRows(t *testing.T) {
	// setup
	ctx := context.Background()
	store := GivenEmptyStore(t)

	// arrange
	GivenIdentities(t, store, FixtureJaneDoe())
	GivenServiceIDs(t, store, "S1")

	// act
	err := store.Reset(ctx)

	// assert
	require.NoError(t, err)

	identities, err := store.CountIdentities(ctx)
	require.NoError(t, err)
	assert.Zero(t, identities)

	services, err := store.CountServiceIDs(ctx)
	require.NoError(t, err)
	assert.Zero(t, services)
}

func Test_Store_ShouldUseCustomTableNames(t *testing.T) {
	// setup
	ctx := context.Background()
	db := OpenSQLiteDB(t)
	store, err := localstore.NewStoreFromSQLX(
		db,
		localstore.WithUsersTableName("people"),
		localstore.WithServicesTableName("accounts"),
	)
	require.NoError(t, err)

	// act
	require.NoError(t, store.Reset(ctx))
	GivenIdentities(t, store, FixtureJaneDoe())

	// assert
	var count int
	require.NoError(t, db.GetContext(ctx, &count, `SELECT COUNT(*) FROM "people"`))
	assert.Equal(t, 1, count)
	require.NoError(t, db.GetContext(ctx, &count, `SELECT COUNT(*) FROM "accounts"`))
	assert.Zero(t, count)
}

func Test_Store_ShouldLogSQL_WithLogger(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	store := GivenEmptyStore(t, localstore.WithLogger(slog.New(logHandler)))

	// act
	GivenIdentities(t, store, FixtureJaneDoe())

	// assert
	assert.True(t, logHandler.HasDebugLogWithMessage("executed sql").WithDurationMS().Assert())
	assert.True(t, logHandler.HasInfoLogWithMessage("identities seeded").WithAttr("row_count", "1").Assert())
	assert.True(t, logHandler.HasInfoLogWithMessage("local store reset").Assert())

	_, err := store.RandomServiceID(ctx)
	assert.ErrorIs(t, err, loadtest.ErrNoServiceIDs)
}

func Test_Store_ShouldPreferContextualLogger(t *testing.T) {
	// setup
	logHandler := NewLogHandlerSpy(false)
	contextualLogger := NewContextualLoggerSpy(true)

	// act
	GivenEmptyStore(t,
		localstore.WithLogger(slog.New(logHandler)),
		localstore.WithContextualLogger(contextualLogger),
	)

	// assert
	assert.True(t, contextualLogger.HasLog("info", "local store reset"))
	assert.Zero(t, logHandler.GetRecordCount())
}

func Test_Store_ShouldRecordMetricsAndSpans(t *testing.T) {
	// setup
	ctx := context.Background()
	metrics := NewMetricsCollectorSpy(true)
	tracing := NewTracingCollectorSpy(true)
	store := GivenEmptyStore(t, localstore.WithMetrics(metrics), localstore.WithTracing(tracing))

	// act
	_, err := store.RandomIdentity(ctx)

	// assert
	assert.ErrorIs(t, err, loadtest.ErrNoIdentities)

	assert.True(t, metrics.HasDurationRecordForMetric("localstore_operation_duration_seconds").
		WithOperation("reset").
		WithStatus(loadtest.StatusSuccess).
		Assert())
	assert.True(t, metrics.HasCounterRecordForMetric("localstore_operation_errors_total").
		WithOperation("random_identity").
		Assert())

	assert.True(t, tracing.HasSpanRecordForName("localstore.random_identity").
		WithStatus(loadtest.StatusError).
		WithStartAttribute("db.system", localstore.DialectSQLite).
		Assert())
	assert.Equal(t, 1, tracing.CountSpanRecordsForName("localstore.reset"))
}

func Test_Store_ShouldFail_WhenContextIsCanceled(t *testing.T) {
	// setup
	store := GivenEmptyStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	// act
	_, err := store.RandomIdentity(ctx)

	// assert
	assert.ErrorIs(t, err, loadtest.ErrQueryingLocalStoreFailed)
}
