package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/codelens-labs/codelens/internal/provider"
	"github.com/codelens-labs/codelens/internal/store/postgres"
	"github.com/codelens-labs/codelens/pkg/apierr"
)

// Status is the terminal state of one processing run.
type Status string

const (
	StatusCompleted               Status = "completed"
	StatusFailed                  Status = "failed"
	StatusSkippedRefDeletion      Status = "skipped-ref-deletion"
	StatusSkippedAlreadyProcessed Status = "skipped-already-processed"
	StatusSkippedNoFiles          Status = "skipped-no-files"
	StatusSkippedUnsupported      Status = "skipped-unsupported-action"
)

// Dispatcher classifies inbound change events and drives the pipeline
// stages for each run.
//
// Concurrent duplicate deliveries of the same new commit are not mutually
// excluded: two overlapping runs can both pass the idempotency gate before
// either writes. The work is duplicated but convergent, since embedding
// upserts are idempotent per (project, path).
type Dispatcher struct {
	storage   Storage
	provider  provider.Provider
	generator FileEmbedder
	extractor *provider.CloneExtractor
	logger    *slog.Logger
}

func NewDispatcher(storage Storage, p provider.Provider, g FileEmbedder, extractor *provider.CloneExtractor, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{storage: storage, provider: p, generator: g, extractor: extractor, logger: logger}
}

// ProcessEvent runs the ingestion pipeline for one classified event:
// idempotency gate, project metadata resolution, fetch, embed, persist.
// Skips are reported as statuses, not errors.
func (d *Dispatcher) ProcessEvent(ctx context.Context, ev Event) (Status, error) {
	switch ev.Kind {
	case EventPush:
		if ev.IsRefDeletion() {
			d.logger.Info("skipping ref deletion", slog.String("project_id", ev.ProjectID))
			return StatusSkippedRefDeletion, nil
		}
	case EventMergeRequest:
		if !mergeRequestActionable(ev.Action) {
			d.logger.Info("skipping merge request action",
				slog.String("project_id", ev.ProjectID),
				slog.String("action", ev.Action))
			return StatusSkippedUnsupported, nil
		}
	default:
		return StatusSkippedUnsupported, nil
	}

	if d.alreadyProcessed(ctx, ev.ProjectID, ev.Commit) {
		d.logger.Info("commit already processed",
			slog.String("project_id", ev.ProjectID),
			slog.String("commit", ev.Commit))
		return StatusSkippedAlreadyProcessed, nil
	}

	proj, err := d.resolveProject(ctx, ev)
	if err != nil {
		return StatusFailed, err
	}

	rc := &RunContext{
		ProjectID: ev.ProjectID,
		RepoURL:   proj.WebURL,
		Ref:       ev.Ref,
		Commit:    ev.Commit,
		Branch:    ev.Branch,
	}

	stages := []Stage{
		NewFetchStage(d.provider, d.logger),
		NewEmbedStage(d.generator, d.logger),
		NewPersistStage(d.storage, d.logger),
	}
	return d.run(ctx, rc, stages)
}

// ProcessRepository runs the clone-based ingestion path for one repository
// URL under a generated processing identifier.
func (d *Dispatcher) ProcessRepository(ctx context.Context, repoURL, processingID string) (Status, error) {
	if d.extractor == nil {
		return StatusFailed, fmt.Errorf("clone extractor not configured")
	}

	snapshot, err := d.extractor.Extract(ctx, repoURL, processingID)
	if err != nil {
		return StatusFailed, fmt.Errorf("extract repository: %w", err)
	}
	if len(snapshot.Files) == 0 {
		return StatusSkippedNoFiles, nil
	}

	projectID := projectIDFromURL(repoURL)

	if d.alreadyProcessed(ctx, projectID, snapshot.Commit) {
		d.logger.Info("commit already processed",
			slog.String("project_id", projectID),
			slog.String("commit", snapshot.Commit))
		return StatusSkippedAlreadyProcessed, nil
	}

	if err := d.ensureProject(ctx, projectID, postgres.Project{
		ProjectID:     projectID,
		Name:          projectID,
		WebURL:        repoURL,
		DefaultBranch: snapshot.Branch,
	}); err != nil {
		return StatusFailed, err
	}

	rc := &RunContext{
		ProjectID: projectID,
		RepoURL:   repoURL,
		Ref:       snapshot.Commit,
		Commit:    snapshot.Commit,
		Branch:    snapshot.Branch,
		Files:     snapshot.Files,
	}

	stages := []Stage{
		NewEmbedStage(d.generator, d.logger),
		NewPersistStage(d.storage, d.logger),
	}
	return d.run(ctx, rc, stages)
}

// run executes the stages in order, stopping on the first skip or error.
func (d *Dispatcher) run(ctx context.Context, rc *RunContext, stages []Stage) (Status, error) {
	started := time.Now()

	for _, stage := range stages {
		if err := stage.Execute(ctx, rc); err != nil {
			d.logger.Error("stage failed",
				slog.String("stage", stage.Name()),
				slog.String("project_id", rc.ProjectID),
				slog.String("commit", rc.Commit),
				slog.String("error", err.Error()))
			return StatusFailed, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		if rc.SkipReason != "" {
			d.logger.Info("run skipped",
				slog.String("stage", stage.Name()),
				slog.String("project_id", rc.ProjectID),
				slog.String("reason", string(rc.SkipReason)))
			return rc.SkipReason, nil
		}
	}

	d.logger.Info("run completed",
		slog.String("project_id", rc.ProjectID),
		slog.String("commit", rc.Commit),
		slog.Int("embeddings", len(rc.Rows)),
		slog.Duration("elapsed", time.Since(started)))
	return StatusCompleted, nil
}

// alreadyProcessed is the commit idempotency gate: true when the project's
// recorded last commit equals the incoming one.
func (d *Dispatcher) alreadyProcessed(ctx context.Context, projectID, commit string) bool {
	if commit == "" {
		return false
	}
	proj, err := d.storage.GetProject(ctx, projectID)
	if err != nil {
		return false
	}
	return proj.LastCommit == commit
}

// resolveProject loads or creates the project metadata row, refreshing it
// from the provider without touching the idempotency gate.
func (d *Dispatcher) resolveProject(ctx context.Context, ev Event) (postgres.Project, error) {
	meta := postgres.Project{
		ProjectID:     ev.ProjectID,
		Name:          ev.ProjectName,
		WebURL:        ev.ProjectURL,
		DefaultBranch: "main",
	}
	if info, err := d.provider.ProjectInfo(ctx, ev.ProjectID); err != nil {
		d.logger.Warn("project info lookup failed, using event metadata",
			slog.String("project_id", ev.ProjectID),
			slog.String("error", err.Error()))
	} else {
		meta.Name = info.Name
		meta.Description = info.Description
		meta.WebURL = info.WebURL
		meta.DefaultBranch = info.DefaultBranch
	}

	if err := d.ensureProject(ctx, ev.ProjectID, meta); err != nil {
		return postgres.Project{}, err
	}
	return meta, nil
}

// ensureProject upserts project metadata while preserving the existing
// last-processed commit and timestamp.
func (d *Dispatcher) ensureProject(ctx context.Context, projectID string, meta postgres.Project) error {
	existing, err := d.storage.GetProject(ctx, projectID)
	if err == nil {
		meta.LastCommit = existing.LastCommit
		meta.LastProcessedAt = existing.LastProcessedAt
	} else if !apierr.IsNotFound(err) {
		return fmt.Errorf("get project: %w", err)
	}

	if err := d.storage.UpsertProject(ctx, meta); err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

// projectIDFromURL derives a stable project identifier from a repository
// URL: the host-qualified path with any .git suffix removed.
func projectIDFromURL(repoURL string) string {
	u, err := url.Parse(repoURL)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(repoURL, ".git")
	}
	p := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	return u.Host + "/" + p
}
