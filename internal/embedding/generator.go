package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codelens-labs/codelens/internal/config"
	"github.com/codelens-labs/codelens/internal/language"
	"github.com/codelens-labs/codelens/internal/provider"
	"github.com/codelens-labs/codelens/internal/store/postgres"
)

// Generator turns code files into CodeEmbedding rows in rate-limited
// batches. Files that are ineligible (empty, oversized, binary) or whose
// embedding call fails are dropped, not retried; only a cancelled context
// aborts the whole run.
type Generator struct {
	embedder      Embedder
	batchSize     int
	batchDelay    time.Duration
	maxFileBytes  int
	maxChunkBytes int
	logger        *slog.Logger
}

func NewGenerator(embedder Embedder, cfg config.IngestConfig, logger *slog.Logger) *Generator {
	g := &Generator{
		embedder:      embedder,
		batchSize:     cfg.BatchSize,
		batchDelay:    cfg.BatchDelay,
		maxFileBytes:  cfg.MaxFileBytes,
		maxChunkBytes: cfg.MaxChunkBytes,
		logger:        logger,
	}
	if g.batchSize <= 0 {
		g.batchSize = 5
	}
	if g.maxFileBytes <= 0 {
		g.maxFileBytes = MaxFileBytes
	}
	return g
}

// unit is one independently embeddable piece: a whole file, or one chunk of
// an oversized file under a suffixed path.
type unit struct {
	path     string
	content  string
	language string
}

// EmbedFiles embeds files for one (project, commit, branch) run.
//
// Files are partitioned into fixed-size batches. Within a batch, the content
// filter and language classifier run first, oversized files are split at
// line boundaries into chunks with distinct suffixed paths, and the
// resulting units are embedded in parallel. Consecutive batches are
// separated by a fixed pause to respect provider rate limits. Output
// ordering is immaterial; every unit path is a distinct storage key.
func (g *Generator) EmbedFiles(ctx context.Context, files []provider.CodeFile, projectID, repoURL, commit, branch string) ([]postgres.CodeEmbedding, error) {
	if g.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}

	var rows []postgres.CodeEmbedding
	now := time.Now()

	for start := 0; start < len(files); start += g.batchSize {
		if start > 0 && g.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.batchDelay):
			}
		}

		batch := files[start:min(start+g.batchSize, len(files))]
		units := g.prepare(batch)

		vectors := make([][]float32, len(units))
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(len(units) + 1)

		for i, u := range units {
			eg.Go(func() error {
				vecs, err := g.embedder.EmbedBatch(egCtx, []string{u.content}, "search_document")
				if err != nil || len(vecs) == 0 {
					g.logger.Warn("dropping file after embed failure",
						slog.String("path", u.path),
						slog.Any("error", err))
					return nil
				}
				vectors[i] = vecs[0]
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		for i, u := range units {
			if vectors[i] == nil {
				continue
			}
			rows = append(rows, postgres.CodeEmbedding{
				ProjectID: projectID,
				RepoURL:   repoURL,
				FilePath:  u.path,
				Content:   u.content,
				Embedding: vectors[i],
				Language:  u.language,
				CommitSHA: commit,
				Branch:    branch,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}

	return rows, nil
}

// prepare filters one batch and expands oversized files into chunk units.
func (g *Generator) prepare(batch []provider.CodeFile) []unit {
	var units []unit
	for _, f := range batch {
		if !Eligible(f.Content, g.maxFileBytes) {
			g.logger.Debug("skipping ineligible file", slog.String("path", f.Path), slog.Int("bytes", len(f.Content)))
			continue
		}

		tag := language.Detect(f.Path)
		chunks := ChunkLines(f.Content, g.maxChunkBytes)
		if len(chunks) == 1 {
			units = append(units, unit{path: f.Path, content: f.Content, language: tag})
			continue
		}
		for i, chunk := range chunks {
			units = append(units, unit{
				path:     fmt.Sprintf("%s#chunk-%d", f.Path, i),
				content:  chunk,
				language: tag,
			})
		}
	}
	return units
}
