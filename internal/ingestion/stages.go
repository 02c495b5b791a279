package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codelens-labs/codelens/internal/provider"
	"github.com/codelens-labs/codelens/internal/store/postgres"
)

// Stage is one step of the processing pipeline.
type Stage interface {
	Name() string
	Execute(ctx context.Context, rc *RunContext) error
}

// RunContext carries state through the pipeline stages for one run.
type RunContext struct {
	ProjectID string
	RepoURL   string
	Ref       string
	Commit    string
	Branch    string

	// Set by the fetch stage (or pre-filled for clone-based runs).
	Files []provider.CodeFile

	// Set by the embed stage.
	Rows []postgres.CodeEmbedding

	// Set when a stage decides the run is a no-op.
	SkipReason Status
}

// Storage is the slice of the store the pipeline writes to.
type Storage interface {
	GetProject(ctx context.Context, projectID string) (postgres.Project, error)
	UpsertProject(ctx context.Context, p postgres.Project) error
	MarkProjectProcessed(ctx context.Context, projectID, commit string, at time.Time) error
	UpsertEmbeddingsBatch(ctx context.Context, rows []postgres.CodeEmbedding) error
	InsertBatch(ctx context.Context, b postgres.EmbeddingBatch) error
}

// FileEmbedder is the slice of the embedding generator the pipeline uses.
type FileEmbedder interface {
	EmbedFiles(ctx context.Context, files []provider.CodeFile, projectID, repoURL, commit, branch string) ([]postgres.CodeEmbedding, error)
}

// FetchStage lists and reads the project's files at the run's ref.
type FetchStage struct {
	provider provider.Provider
	logger   *slog.Logger
}

func NewFetchStage(p provider.Provider, logger *slog.Logger) *FetchStage {
	return &FetchStage{provider: p, logger: logger}
}

func (s *FetchStage) Name() string { return "fetch" }

func (s *FetchStage) Execute(ctx context.Context, rc *RunContext) error {
	infos, err := s.provider.ListFiles(ctx, rc.ProjectID, rc.Ref)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	if len(infos) == 0 {
		rc.SkipReason = StatusSkippedNoFiles
		return nil
	}

	paths := make([]string, len(infos))
	for i, fi := range infos {
		paths[i] = fi.Path
	}

	files, err := s.provider.FetchFiles(ctx, rc.ProjectID, rc.Ref, paths)
	if err != nil {
		return fmt.Errorf("fetch files: %w", err)
	}
	if len(files) == 0 {
		rc.SkipReason = StatusSkippedNoFiles
		return nil
	}

	rc.Files = files
	return nil
}

// EmbedStage converts the fetched files into embedding rows.
type EmbedStage struct {
	generator FileEmbedder
	logger    *slog.Logger
}

func NewEmbedStage(g FileEmbedder, logger *slog.Logger) *EmbedStage {
	return &EmbedStage{generator: g, logger: logger}
}

func (s *EmbedStage) Name() string { return "embed" }

func (s *EmbedStage) Execute(ctx context.Context, rc *RunContext) error {
	rows, err := s.generator.EmbedFiles(ctx, rc.Files, rc.ProjectID, rc.RepoURL, rc.Commit, rc.Branch)
	if err != nil {
		return fmt.Errorf("embed files: %w", err)
	}

	s.logger.Info("files embedded",
		slog.String("project_id", rc.ProjectID),
		slog.Int("considered", len(rc.Files)),
		slog.Int("embedded", len(rows)))

	rc.Rows = rows
	return nil
}

// PersistStage stores the run's rows atomically, appends the provenance
// record, and only then advances the project's idempotency gate. A crash
// mid-run leaves the gate at the prior commit and the run safe to retry.
type PersistStage struct {
	storage Storage
	logger  *slog.Logger
}

func NewPersistStage(storage Storage, logger *slog.Logger) *PersistStage {
	return &PersistStage{storage: storage, logger: logger}
}

func (s *PersistStage) Name() string { return "persist" }

func (s *PersistStage) Execute(ctx context.Context, rc *RunContext) error {
	if err := s.storage.UpsertEmbeddingsBatch(ctx, rc.Rows); err != nil {
		return fmt.Errorf("upsert embeddings: %w", err)
	}

	paths := make([]string, len(rc.Rows))
	for i, row := range rc.Rows {
		paths[i] = row.FilePath
	}
	if err := s.storage.InsertBatch(ctx, postgres.EmbeddingBatch{
		ProjectID: rc.ProjectID,
		CommitSHA: rc.Commit,
		Branch:    rc.Branch,
		FilePaths: paths,
	}); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	if err := s.storage.MarkProjectProcessed(ctx, rc.ProjectID, rc.Commit, time.Now()); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}
