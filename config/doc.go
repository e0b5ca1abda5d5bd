// Package config loads the bankload configuration and builds the infrastructure it describes.
//
// Configuration is layered: Default values, then an optional YAML file, then BANKLOAD_*
// environment variables. The merged result is validated before use.
//
// Factories:
//   - OpenLocalStore opens the local store on sqlite3 (sqlx + go-sqlite3), postgres (sqlx + lib/pq)
//     or pgx (pgxpool) and wraps it in a localstore.Store.
//   - NewObservability starts OTLP gRPC trace and metric providers and returns the oteladapters
//     implementations of the loadtest observability interfaces.
//   - NewLogger builds the slog.Logger used by the commands.
package config
