package repositories

import (
	"context"
	"database/sql"
)

// SQLExecutor abstracts *sql.DB and *sql.Tx so a repository method can run
// either standalone or inside a transaction owned by the caller.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
