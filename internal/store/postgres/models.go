package postgres

import "time"

// Project is one row of the projects table: metadata for a source project,
// keyed by the provider-scoped project identifier. LastCommit is the
// idempotency gate, advanced only after a run's embeddings and batch record
// are durably stored.
type Project struct {
	ProjectID       string     `json:"projectId"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	WebURL          string     `json:"webUrl"`
	DefaultBranch   string     `json:"defaultBranch"`
	LastCommit      string     `json:"lastCommit"`
	LastProcessedAt *time.Time `json:"lastProcessedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CodeEmbedding is one row of the code_embeddings table: the latest embedded
// state of a (project, path) pair. Rows are overwritten in place as commits
// advance, never duplicated.
type CodeEmbedding struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"projectId"`
	RepoURL   string    `json:"repoUrl"`
	FilePath  string    `json:"filePath"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
	Language  string    `json:"language"`
	CommitSHA string    `json:"commitSha"`
	Branch    string    `json:"branch"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EmbeddingBatch is one row of the embedding_batches table: append-only
// provenance for a single processing run.
type EmbeddingBatch struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"projectId"`
	CommitSHA string    `json:"commitSha"`
	Branch    string    `json:"branch"`
	FilePaths []string  `json:"filePaths"`
	CreatedAt time.Time `json:"createdAt"`
}

// SearchResult is one similarity-search hit. Similarity is 1 minus cosine
// distance on the vector backend and zero on the JSON fallback backend.
type SearchResult struct {
	CodeEmbedding
	Similarity float64 `json:"similarity"`
}
