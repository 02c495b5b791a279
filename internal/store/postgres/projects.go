package postgres

import (
	"context"
	"time"
)

// UpsertProject inserts or updates a project row by project_id.
func (q *Queries) UpsertProject(ctx context.Context, p Project) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO projects (project_id, name, description, web_url, default_branch, last_commit, last_processed_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (project_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			web_url = EXCLUDED.web_url,
			default_branch = EXCLUDED.default_branch,
			last_commit = EXCLUDED.last_commit,
			last_processed_at = EXCLUDED.last_processed_at,
			updated_at = now()`,
		p.ProjectID, p.Name, p.Description, p.WebURL, p.DefaultBranch, p.LastCommit, p.LastProcessedAt)
	return err
}

// MarkProjectProcessed advances the idempotency gate for a project. Called
// only after the run's embeddings and batch record are durably stored.
func (q *Queries) MarkProjectProcessed(ctx context.Context, projectID, commit string, at time.Time) error {
	_, err := q.db.Exec(ctx,
		`UPDATE projects SET last_commit = $2, last_processed_at = $3, updated_at = now()
		 WHERE project_id = $1`,
		projectID, commit, at)
	return err
}

// GetProject returns a project row, or pgx.ErrNoRows when unknown.
func (q *Queries) GetProject(ctx context.Context, projectID string) (Project, error) {
	var p Project
	err := q.db.QueryRow(ctx,
		`SELECT project_id, name, description, web_url, default_branch, last_commit, last_processed_at, created_at, updated_at
		 FROM projects WHERE project_id = $1`,
		projectID).Scan(
		&p.ProjectID, &p.Name, &p.Description, &p.WebURL, &p.DefaultBranch,
		&p.LastCommit, &p.LastProcessedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProjects returns all project rows ordered by name.
func (q *Queries) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := q.db.Query(ctx,
		`SELECT project_id, name, description, web_url, default_branch, last_commit, last_processed_at, created_at, updated_at
		 FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(
			&p.ProjectID, &p.Name, &p.Description, &p.WebURL, &p.DefaultBranch,
			&p.LastCommit, &p.LastProcessedAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
