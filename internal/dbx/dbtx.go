// Package dbx defines the database handle SQL repositories are written against.
package dbx

import (
	"context"
	"database/sql"
)

// Conn is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
