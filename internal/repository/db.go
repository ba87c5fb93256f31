package repository

import (
	"context"
	"database/sql"
)

// SQLExecutor is the query surface shared by *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the root handle a Store opens transactions and health checks on.
type DB interface {
	SQLExecutor
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
}

var (
	_ DB          = (*sql.DB)(nil)
	_ SQLExecutor = (*TxWrapper)(nil)
)

// TxWrapper marks an executor as transactional so that a Store bound to it
// refuses to begin a nested transaction.
type TxWrapper struct {
	*sql.Tx
}
