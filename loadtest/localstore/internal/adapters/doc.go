// Package adapters provide database adapter implementations for the local store.
//
// This package implements the adapter pattern to support multiple database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, allowing the local store to work with an embedded sqlite file
// as well as with a PostgreSQL database.
//
// The adapters handle the specifics of each database library while presenting a
// unified interface for query execution, transactions and result handling.
package adapters
