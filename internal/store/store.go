package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codelens-labs/codelens/internal/store/postgres"
)

// Store owns all persisted state: project metadata, per-file embeddings, and
// batch provenance. Every other component operates on transient copies.
type Store struct {
	*postgres.Queries
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool, backend postgres.Backend) *Store {
	return &Store{
		Queries: postgres.New(pool, backend),
		pool:    pool,
	}
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// WithTx runs fn inside a transaction, rolling back on error.
func (s *Store) WithTx(ctx context.Context, fn func(*postgres.Queries) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpsertEmbeddingsBatch writes all rows of one processing batch in a single
// transaction: either every row commits or none do.
func (s *Store) UpsertEmbeddingsBatch(ctx context.Context, rows []postgres.CodeEmbedding) error {
	if len(rows) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(q *postgres.Queries) error {
		for _, row := range rows {
			if err := q.UpsertEmbedding(ctx, row); err != nil {
				return fmt.Errorf("upsert %s: %w", row.FilePath, err)
			}
		}
		return nil
	})
}
