package adapters

import "context"

// DBAdapter defines the interface for database operations needed by the local store.
type DBAdapter interface {
	DBExecutor
	Query(ctx context.Context, query string) (DBRows, error)
	InTx(ctx context.Context, fn func(ctx context.Context, tx DBExecutor) error) error
}

// DBExecutor executes statements, either directly or inside a transaction.
type DBExecutor interface {
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
