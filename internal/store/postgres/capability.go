package postgres

import (
	"context"
	"fmt"
	"log/slog"
)

// Backend identifies how embedding vectors are stored and searched.
type Backend int

const (
	// BackendVector stores vectors in a pgvector column and ranks search
	// results by cosine distance.
	BackendVector Backend = iota

	// BackendJSON stores vectors as JSONB and serves search results by
	// update recency. Results in this mode are NOT ranked by similarity;
	// callers can detect it via SearchSimilar's ranked return value.
	BackendJSON
)

func (b Backend) String() string {
	if b == BackendVector {
		return "vector"
	}
	return "json"
}

// DetectBackend probes the database for the pgvector extension. Probe
// failures select the JSON fallback rather than failing the caller; the
// probe is read-only and safe to re-run.
func DetectBackend(ctx context.Context, db DBTX, logger *slog.Logger) Backend {
	var present bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')`).Scan(&present)
	if err != nil {
		logger.Warn("vector capability probe failed, using json fallback", slog.String("error", err.Error()))
		return BackendJSON
	}
	if !present {
		logger.Info("pgvector extension not installed, using json fallback")
		return BackendJSON
	}
	return BackendVector
}

// EnsureSchema creates the three relations (projects, code_embeddings,
// embedding_batches) for the selected backend. Idempotent.
func EnsureSchema(ctx context.Context, db DBTX, backend Backend, dimensions int) error {
	if dimensions <= 0 {
		dimensions = 1536
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			project_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			web_url TEXT NOT NULL DEFAULT '',
			default_branch TEXT NOT NULL DEFAULT 'main',
			last_commit TEXT NOT NULL DEFAULT '',
			last_processed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS embedding_batches (
			id BIGSERIAL PRIMARY KEY,
			project_id TEXT NOT NULL,
			commit_sha TEXT NOT NULL,
			branch TEXT NOT NULL DEFAULT '',
			file_paths TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	embeddingColumn := fmt.Sprintf("embedding vector(%d)", dimensions)
	if backend == BackendJSON {
		embeddingColumn = "embedding_json JSONB"
	}
	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS code_embeddings (
			id BIGSERIAL PRIMARY KEY,
			project_id TEXT NOT NULL,
			repo_url TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			%s,
			language TEXT NOT NULL DEFAULT 'plaintext',
			commit_sha TEXT NOT NULL DEFAULT '',
			branch TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (project_id, file_path)
		)`, embeddingColumn))

	if backend == BackendVector {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS code_embeddings_embedding_idx
			 ON code_embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`)
	} else {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS code_embeddings_updated_at_idx
			 ON code_embeddings (updated_at DESC)`)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
