package provider

import (
	"context"
	"time"
)

// FileInfo describes one entry of a repository tree listing.
type FileInfo struct {
	Path string
	Type string // "blob" or "tree"
}

// CodeFile is a transient, request-scoped file snapshot. It is produced by a
// Provider or the clone extractor and consumed by the embedding generator.
type CodeFile struct {
	Path    string
	Content string
	ModTime time.Time
}

// ProjectInfo is provider-side project metadata.
type ProjectInfo struct {
	ID            string
	Name          string
	Description   string
	WebURL        string
	DefaultBranch string
}

// Provider abstracts a hosted repository: tree listing, blob reads, and
// project metadata, independent of transport. ref may be a branch name or a
// commit SHA.
//
// ListFiles and ProjectInfo errors are fatal for a run; a single blob read
// failing inside FetchFiles is not, the file is logged and dropped.
type Provider interface {
	ListFiles(ctx context.Context, projectID, ref string) ([]FileInfo, error)
	FetchFiles(ctx context.Context, projectID, ref string, paths []string) ([]CodeFile, error)
	ProjectInfo(ctx context.Context, projectID string) (*ProjectInfo, error)
}
