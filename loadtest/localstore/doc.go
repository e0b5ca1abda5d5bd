// Package localstore provides the local store shared by all simulated users.
//
// The local store holds two relations:
//   - users(fullname, username, password): seeded identities, read-only to simulated users
//   - services(id): a best-effort cache of account ids discovered by simulated users
//
// It is not a source of truth: the banking API owns the accounts. Concurrent sessions insert
// discovered ids without coordination and duplicates are accepted.
//
// Supported backends (through the internal adapters):
//   - sqlx.DB, the default, with the sqlite3 driver for a file-backed store or lib/pq for PostgreSQL
//   - sql.DB with any sqlite3 or PostgreSQL driver
//   - pgxpool.Pool for PostgreSQL
//
// Usage examples:
//
//	db, _ := sqlx.Open("sqlite3", "file:data.db?_busy_timeout=5000")
//	store, _ := localstore.NewStoreFromSQLX(db)
//
//	// With logging and metrics
//	store, _ := localstore.NewStoreFromSQLX(
//		db,
//		localstore.WithLogger(slog.Default()),
//		localstore.WithMetrics(metricsCollector),
//	)
//
//	identity, _ := store.RandomIdentity(ctx)
//	_ = store.AddServiceIDs(ctx, "c0ffee")
package localstore
