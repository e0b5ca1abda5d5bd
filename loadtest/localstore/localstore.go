package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/cardboard-bank/bankload/loadtest"
	"github.com/cardboard-bank/bankload/loadtest/localstore/internal/adapters"
)

const (
	// DialectSQLite renders statements for the embedded sqlite3 store.
	DialectSQLite = "sqlite3"

	// DialectPostgres renders statements for PostgreSQL.
	DialectPostgres = "postgres"

	defaultUsersTableName    = "users"
	defaultServicesTableName = "services"

	// seedBatchSize bounds the rows per INSERT statement while seeding.
	seedBatchSize = 250

	colFullName = "fullname"
	colUsername = "username"
	colPassword = "password"
	colID       = "id"

	orderRandom = "RANDOM()"

	operationRandomIdentity  = "random_identity"
	operationRandomServiceID = "random_service_id"
	operationAddServiceIDs   = "add_service_ids"
	operationReset           = "reset"
	operationSeedIdentities  = "seed_identities"
	operationCount           = "count"
)

// Store is the data-access object for seeded identities and known account ids.
// One Store is shared by all simulated users; it holds no mutable state of its own.
type Store struct {
	db                adapters.DBAdapter
	dialect           string
	usersTableName    string
	servicesTableName string
	logger            loadtest.Logger
	contextualLogger  loadtest.ContextualLogger
	metricsCollector  loadtest.MetricsCollector
	tracingCollector  loadtest.TracingCollector
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
// The dialect is derived from the driver name, "postgres" and "pgx" select PostgreSQL, anything else sqlite3.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, loadtest.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), dialectForDriver(db.DriverName()), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
// The dialect defaults to sqlite3, use WithDialect for PostgreSQL.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, loadtest.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), DialectSQLite, options...)
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(pool *pgxpool.Pool, options ...Option) (*Store, error) {
	if pool == nil {
		return nil, loadtest.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(pool), DialectPostgres, options...)
}

func newStore(db adapters.DBAdapter, dialect string, options ...Option) (*Store, error) {
	s := &Store{
		db:                db,
		dialect:           dialect,
		usersTableName:    defaultUsersTableName,
		servicesTableName: defaultServicesTableName,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func dialectForDriver(driverName string) string {
	switch driverName {
	case "postgres", "pgx":
		return DialectPostgres
	default:
		return DialectSQLite
	}
}

// Dialect returns the SQL dialect the Store renders statements for.
func (s *Store) Dialect() string {
	return s.dialect
}

// Reset drops and recreates both relations in one transaction.
// Any prior data, including cached account ids, is lost.
func (s *Store) Reset(ctx context.Context) error {
	return s.instrument(ctx, operationReset, func(ctx context.Context) error {
		statements := []string{
			fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(s.usersTableName)),
			fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(s.servicesTableName)),
			fmt.Sprintf(`CREATE TABLE %s (%s varchar, %s varchar, %s varchar)`,
				quoteIdent(s.usersTableName), colFullName, colUsername, colPassword),
			fmt.Sprintf(`CREATE TABLE %s (%s varchar)`, quoteIdent(s.servicesTableName), colID),
		}

		txErr := s.db.InTx(ctx, func(ctx context.Context, tx adapters.DBExecutor) error {
			for _, statement := range statements {
				if _, err := s.exec(ctx, tx, statement); err != nil {
					return err
				}
			}

			return nil
		})
		if txErr != nil {
			return errors.Join(loadtest.ErrWritingLocalStoreFailed, txErr)
		}

		s.logInfo(ctx, logMsgReset, logAttrUsersTable, s.usersTableName, logAttrServicesTable, s.servicesTableName)

		return nil
	})
}

// SeedIdentities inserts the identities in batches inside one transaction.
// No uniqueness is enforced.
func (s *Store) SeedIdentities(ctx context.Context, identities []loadtest.Identity) error {
	if len(identities) == 0 {
		return nil
	}

	return s.instrument(ctx, operationSeedIdentities, func(ctx context.Context) error {
		statements := make([]string, 0, len(identities)/seedBatchSize+1)

		for start := 0; start < len(identities); start += seedBatchSize {
			end := min(start+seedBatchSize, len(identities))

			rows := make([]goqu.Vals, 0, end-start)
			for _, identity := range identities[start:end] {
				rows = append(rows, goqu.Vals{identity.FullName, identity.Username, identity.Password})
			}

			statement, _, err := goqu.Dialect(s.dialect).
				Insert(s.usersTableName).
				Cols(colFullName, colUsername, colPassword).
				Vals(rows...).
				ToSQL()
			if err != nil {
				s.logError(ctx, logMsgBuildQueryFailed, err)
				return errors.Join(loadtest.ErrBuildingQueryFailed, err)
			}

			statements = append(statements, statement)
		}

		txErr := s.db.InTx(ctx, func(ctx context.Context, tx adapters.DBExecutor) error {
			for _, statement := range statements {
				if _, err := s.exec(ctx, tx, statement); err != nil {
					return err
				}
			}

			return nil
		})
		if txErr != nil {
			return errors.Join(loadtest.ErrWritingLocalStoreFailed, txErr)
		}

		s.logInfo(ctx, logMsgIdentitiesSeeded, logAttrRowCount, len(identities))

		return nil
	})
}

// RandomIdentity selects one seeded identity uniformly at random.
func (s *Store) RandomIdentity(ctx context.Context) (loadtest.Identity, error) {
	var identity loadtest.Identity

	err := s.instrument(ctx, operationRandomIdentity, func(ctx context.Context) error {
		query, _, err := goqu.Dialect(s.dialect).
			From(s.usersTableName).
			Select(colFullName, colUsername, colPassword).
			Order(goqu.L(orderRandom).Asc()).
			Limit(1).
			ToSQL()
		if err != nil {
			s.logError(ctx, logMsgBuildQueryFailed, err)
			return errors.Join(loadtest.ErrBuildingQueryFailed, err)
		}

		found, err := s.queryOne(ctx, query, &identity.FullName, &identity.Username, &identity.Password)
		if err != nil {
			return err
		}

		if !found {
			return loadtest.ErrNoIdentities
		}

		return nil
	})

	return identity, err
}

// RandomServiceID selects one known account id uniformly at random, across all sessions.
func (s *Store) RandomServiceID(ctx context.Context) (string, error) {
	var id string

	err := s.instrument(ctx, operationRandomServiceID, func(ctx context.Context) error {
		query, _, err := goqu.Dialect(s.dialect).
			From(s.servicesTableName).
			Select(colID).
			Order(goqu.L(orderRandom).Asc()).
			Limit(1).
			ToSQL()
		if err != nil {
			s.logError(ctx, logMsgBuildQueryFailed, err)
			return errors.Join(loadtest.ErrBuildingQueryFailed, err)
		}

		found, err := s.queryOne(ctx, query, &id)
		if err != nil {
			return err
		}

		if !found {
			return loadtest.ErrNoServiceIDs
		}

		return nil
	})

	return id, err
}

// AddServiceIDs caches account ids. Plain inserts outside any transaction, duplicates are accepted.
func (s *Store) AddServiceIDs(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	return s.instrument(ctx, operationAddServiceIDs, func(ctx context.Context) error {
		rows := make([]goqu.Vals, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, goqu.Vals{id})
		}

		statement, _, err := goqu.Dialect(s.dialect).
			Insert(s.servicesTableName).
			Cols(colID).
			Vals(rows...).
			ToSQL()
		if err != nil {
			s.logError(ctx, logMsgBuildQueryFailed, err)
			return errors.Join(loadtest.ErrBuildingQueryFailed, err)
		}

		if _, err = s.exec(ctx, s.db, statement); err != nil {
			return errors.Join(loadtest.ErrWritingLocalStoreFailed, err)
		}

		return nil
	})
}

// CountIdentities returns the number of seeded identities.
func (s *Store) CountIdentities(ctx context.Context) (int64, error) {
	return s.count(ctx, s.usersTableName)
}

// CountServiceIDs returns the number of cached account id rows, duplicates included.
func (s *Store) CountServiceIDs(ctx context.Context) (int64, error) {
	return s.count(ctx, s.servicesTableName)
}

func (s *Store) count(ctx context.Context, tableName string) (int64, error) {
	var total int64

	err := s.instrument(ctx, operationCount, func(ctx context.Context) error {
		query, _, err := goqu.Dialect(s.dialect).
			From(tableName).
			Select(goqu.COUNT(goqu.Star())).
			ToSQL()
		if err != nil {
			s.logError(ctx, logMsgBuildQueryFailed, err)
			return errors.Join(loadtest.ErrBuildingQueryFailed, err)
		}

		_, err = s.queryOne(ctx, query, &total)

		return err
	})

	return total, err
}

// queryOne scans the first row into dest and reports whether a row was found.
func (s *Store) queryOne(ctx context.Context, query string, dest ...any) (bool, error) {
	start := time.Now()
	rows, err := s.db.Query(ctx, query)
	s.logQueryWithDuration(ctx, query, time.Since(start))

	if err != nil {
		s.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, query)
		return false, errors.Join(loadtest.ErrQueryingLocalStoreFailed, err)
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		if iterErr := rows.Err(); iterErr != nil {
			s.logError(ctx, logMsgDBQueryFailed, iterErr, logAttrQuery, query)
			return false, errors.Join(loadtest.ErrQueryingLocalStoreFailed, iterErr)
		}

		return false, nil
	}

	if scanErr := rows.Scan(dest...); scanErr != nil {
		s.logError(ctx, logMsgScanRowFailed, scanErr)
		return false, errors.Join(loadtest.ErrScanningDBRowFailed, scanErr)
	}

	return true, nil
}

func (s *Store) exec(ctx context.Context, executor adapters.DBExecutor, statement string) (adapters.DBResult, error) {
	start := time.Now()
	result, err := executor.Exec(ctx, statement)
	s.logQueryWithDuration(ctx, statement, time.Since(start))

	if err != nil {
		s.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, statement)
		return nil, err
	}

	return result, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// quoteIdent double-quotes an identifier, valid for both sqlite3 and PostgreSQL.
func quoteIdent(name string) string {
	quoted := make([]byte, 0, len(name)+2)
	quoted = append(quoted, '"')

	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			quoted = append(quoted, '"')
		}
		quoted = append(quoted, name[i])
	}

	return string(append(quoted, '"'))
}
