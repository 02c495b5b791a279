package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"
)

// UpsertEmbedding inserts or overwrites the row for (project_id, file_path).
// The row always reflects the most recently processed commit that touched
// the path.
func (q *Queries) UpsertEmbedding(ctx context.Context, e CodeEmbedding) error {
	if q.backend == BackendVector {
		_, err := q.db.Exec(ctx,
			`INSERT INTO code_embeddings (project_id, repo_url, file_path, content, embedding, language, commit_sha, branch, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			 ON CONFLICT (project_id, file_path) DO UPDATE SET
				repo_url = EXCLUDED.repo_url,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				language = EXCLUDED.language,
				commit_sha = EXCLUDED.commit_sha,
				branch = EXCLUDED.branch,
				updated_at = now()`,
			e.ProjectID, e.RepoURL, e.FilePath, e.Content, pgvector.NewVector(e.Embedding),
			e.Language, e.CommitSHA, e.Branch)
		return err
	}

	payload, err := json.Marshal(e.Embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	_, err = q.db.Exec(ctx,
		`INSERT INTO code_embeddings (project_id, repo_url, file_path, content, embedding_json, language, commit_sha, branch, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 ON CONFLICT (project_id, file_path) DO UPDATE SET
			repo_url = EXCLUDED.repo_url,
			content = EXCLUDED.content,
			embedding_json = EXCLUDED.embedding_json,
			language = EXCLUDED.language,
			commit_sha = EXCLUDED.commit_sha,
			branch = EXCLUDED.branch,
			updated_at = now()`,
		e.ProjectID, e.RepoURL, e.FilePath, e.Content, payload,
		e.Language, e.CommitSHA, e.Branch)
	return err
}

// GetEmbedding returns the stored row for (project_id, file_path), without
// the vector payload.
func (q *Queries) GetEmbedding(ctx context.Context, projectID, filePath string) (CodeEmbedding, error) {
	var e CodeEmbedding
	err := q.db.QueryRow(ctx,
		`SELECT id, project_id, repo_url, file_path, content, language, commit_sha, branch, created_at, updated_at
		 FROM code_embeddings WHERE project_id = $1 AND file_path = $2`,
		projectID, filePath).Scan(
		&e.ID, &e.ProjectID, &e.RepoURL, &e.FilePath, &e.Content,
		&e.Language, &e.CommitSHA, &e.Branch, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// CountEmbeddings returns the number of stored rows, optionally scoped to a
// project.
func (q *Queries) CountEmbeddings(ctx context.Context, projectID *string) (int64, error) {
	var n int64
	var err error
	if projectID != nil {
		err = q.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM code_embeddings WHERE project_id = $1`, *projectID).Scan(&n)
	} else {
		err = q.db.QueryRow(ctx, `SELECT COUNT(*) FROM code_embeddings`).Scan(&n)
	}
	return n, err
}

// SearchSimilar returns up to limit rows for the scope (project or global).
//
// On the vector backend, rows are ranked by cosine distance ascending and
// annotated with similarity = 1 - distance; ranked is true. On the JSON
// backend, rows are ordered by update recency, similarity is zero, and
// ranked is false: a degraded mode, not an approximation of the real
// ranking.
func (q *Queries) SearchSimilar(ctx context.Context, projectID *string, query []float32, limit int) (results []SearchResult, ranked bool, err error) {
	if limit <= 0 {
		limit = 10
	}

	var sql string
	var args []any
	if q.backend == BackendVector {
		vec := pgvector.NewVector(query)
		if projectID != nil {
			sql = `SELECT id, project_id, repo_url, file_path, content, language, commit_sha, branch, created_at, updated_at,
			              1 - (embedding <=> $1) AS similarity
			       FROM code_embeddings
			       WHERE project_id = $2
			       ORDER BY embedding <=> $1
			       LIMIT $3`
			args = []any{vec, *projectID, limit}
		} else {
			sql = `SELECT id, project_id, repo_url, file_path, content, language, commit_sha, branch, created_at, updated_at,
			              1 - (embedding <=> $1) AS similarity
			       FROM code_embeddings
			       ORDER BY embedding <=> $1
			       LIMIT $2`
			args = []any{vec, limit}
		}
		ranked = true
	} else {
		if projectID != nil {
			sql = `SELECT id, project_id, repo_url, file_path, content, language, commit_sha, branch, created_at, updated_at,
			              0::float8 AS similarity
			       FROM code_embeddings
			       WHERE project_id = $1
			       ORDER BY updated_at DESC
			       LIMIT $2`
			args = []any{*projectID, limit}
		} else {
			sql = `SELECT id, project_id, repo_url, file_path, content, language, commit_sha, branch, created_at, updated_at,
			              0::float8 AS similarity
			       FROM code_embeddings
			       ORDER BY updated_at DESC
			       LIMIT $1`
			args = []any{limit}
		}
	}

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, ranked, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(
			&r.ID, &r.ProjectID, &r.RepoURL, &r.FilePath, &r.Content,
			&r.Language, &r.CommitSHA, &r.Branch, &r.CreatedAt, &r.UpdatedAt,
			&r.Similarity,
		); err != nil {
			return nil, ranked, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, ranked, rows.Err()
}
