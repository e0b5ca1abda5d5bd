package loadtest

import (
	"errors"
)

var (
	// ErrNilDatabaseConnection is returned when a nil database handle is supplied to a store factory.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned when an empty table name is supplied.
	ErrEmptyTableName = errors.New("empty table name supplied")

	// ErrUnsupportedDialect is returned when a SQL dialect other than sqlite3 or postgres is requested.
	ErrUnsupportedDialect = errors.New("unsupported sql dialect")

	// ErrNoIdentities is returned when the local store holds no seeded identity to pick from.
	ErrNoIdentities = errors.New("no identities in local store, run the seed generator first")

	// ErrNoServiceIDs is returned when the local store holds no known account id to pick from.
	ErrNoServiceIDs = errors.New("no service ids in local store")

	// ErrQueryingLocalStoreFailed is returned when a read against the local store fails.
	ErrQueryingLocalStoreFailed = errors.New("querying the local store failed")

	// ErrWritingLocalStoreFailed is returned when a write against the local store fails.
	ErrWritingLocalStoreFailed = errors.New("writing to the local store failed")

	// ErrScanningDBRowFailed is returned when a database row cannot be scanned.
	ErrScanningDBRowFailed = errors.New("scanning db row failed")

	// ErrBuildingQueryFailed is returned when goqu fails to render a statement.
	ErrBuildingQueryFailed = errors.New("building sql query failed")
)
