package provider

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CloneExtractor materializes a repository locally (shallow git clone) and
// extracts its files for embedding, for repositories ingested by URL rather
// than through the provider API.
type CloneExtractor struct {
	workDir      string
	token        string
	maxFileBytes int
	logger       *slog.Logger
}

func NewCloneExtractor(workDir, token string, maxFileBytes int, logger *slog.Logger) *CloneExtractor {
	return &CloneExtractor{workDir: workDir, token: token, maxFileBytes: maxFileBytes, logger: logger}
}

// LocalSnapshot holds the extracted files of one clone, plus the commit and
// branch read from the work tree.
//
// When HEAD cannot be resolved (e.g. a non-git directory copy), Commit falls
// back to a freshly generated UUID. Repeated ingestions of an unchanged
// repository then bypass the commit idempotency gate and reprocess; the
// upserts keep the outcome convergent.
type LocalSnapshot struct {
	Files  []CodeFile
	Commit string
	Branch string
}

// Extract clones repoURL into a per-run directory under the work dir, walks
// the tree, and returns a snapshot. The clone directory is removed before
// returning.
func (e *CloneExtractor) Extract(ctx context.Context, repoURL, processingID string) (*LocalSnapshot, error) {
	dest := filepath.Join(e.workDir, processingID)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dest)

	if err := e.clone(ctx, repoURL, dest); err != nil {
		return nil, err
	}

	snapshot := &LocalSnapshot{
		Commit: headSHA(ctx, dest),
		Branch: headBranch(ctx, dest),
	}
	if snapshot.Commit == "" {
		snapshot.Commit = uuid.NewString()
	}

	files, err := e.walk(dest)
	if err != nil {
		return nil, err
	}
	snapshot.Files = files

	return snapshot, nil
}

func (e *CloneExtractor) clone(ctx context.Context, repoURL, dest string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth=1", e.injectToken(repoURL), dest)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git clone: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (e *CloneExtractor) walk(root string) ([]CodeFile, error) {
	var files []CodeFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil || (e.maxFileBytes > 0 && info.Size() > int64(e.maxFileBytes)) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("skipping unreadable file", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		files = append(files, CodeFile{
			Path:    filepath.ToSlash(rel),
			Content: string(content),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk clone: %w", err)
	}
	return files, nil
}

// injectToken adds the provider token to an https clone URL.
func (e *CloneExtractor) injectToken(repoURL string) string {
	if e.token == "" || !strings.HasPrefix(repoURL, "https://") {
		return repoURL
	}
	return "https://oauth2:" + e.token + "@" + strings.TrimPrefix(repoURL, "https://")
}

func headSHA(ctx context.Context, dir string) string {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func headBranch(ctx context.Context, dir string) string {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "main"
	}
	branch := strings.TrimSpace(string(out))
	if branch == "" || branch == "HEAD" {
		return "main"
	}
	return branch
}
