package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries bundles all hand-written queries with the backend selected by the
// capability probe.
type Queries struct {
	db      DBTX
	backend Backend
}

func New(db DBTX, backend Backend) *Queries {
	return &Queries{db: db, backend: backend}
}

// WithTx returns a Queries bound to tx, keeping the selected backend.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx, backend: q.backend}
}

// Backend returns the storage backend selected at startup.
func (q *Queries) Backend() Backend { return q.backend }
