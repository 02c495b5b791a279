package postgres

import "context"

// InsertBatch appends one provenance row for a processing run. Batch rows
// are immutable once written.
func (q *Queries) InsertBatch(ctx context.Context, b EmbeddingBatch) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO embedding_batches (project_id, commit_sha, branch, file_paths)
		 VALUES ($1, $2, $3, $4)`,
		b.ProjectID, b.CommitSHA, b.Branch, b.FilePaths)
	return err
}

// ListBatches returns provenance rows for a project, newest first.
func (q *Queries) ListBatches(ctx context.Context, projectID string, limit int) ([]EmbeddingBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := q.db.Query(ctx,
		`SELECT id, project_id, commit_sha, branch, file_paths, created_at
		 FROM embedding_batches
		 WHERE project_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EmbeddingBatch
	for rows.Next() {
		var b EmbeddingBatch
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.CommitSHA, &b.Branch, &b.FilePaths, &b.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
