package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codelens-labs/codelens/internal/config"
)

const gitlabPerPage = 100

// GitLabProvider implements Provider over the GitLab REST v4 API.
type GitLabProvider struct {
	baseURL     string
	token       string
	concurrency int
	http        *http.Client
	logger      *slog.Logger
}

func NewGitLabProvider(cfg config.GitLabConfig, concurrency int, logger *slog.Logger) *GitLabProvider {
	if concurrency <= 0 {
		concurrency = 10
	}
	return &GitLabProvider{
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		concurrency: concurrency,
		http:        &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

type gitlabTreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

type gitlabProject struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	WebURL        string `json:"web_url"`
	DefaultBranch string `json:"default_branch"`
}

// ListFiles returns all blob entries of the repository tree at ref,
// following X-Next-Page pagination. Errors are fatal for the run.
func (p *GitLabProvider) ListFiles(ctx context.Context, projectID, ref string) ([]FileInfo, error) {
	var files []FileInfo

	page := 1
	for {
		u := fmt.Sprintf("%s/projects/%s/repository/tree?recursive=true&ref=%s&per_page=%d&page=%d",
			p.baseURL, url.PathEscape(projectID), url.QueryEscape(ref), gitlabPerPage, page)

		body, header, err := p.get(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("list tree (page %d): %w", page, err)
		}

		var entries []gitlabTreeEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("decode tree (page %d): %w", page, err)
		}

		for _, e := range entries {
			if e.Type == "blob" {
				files = append(files, FileInfo{Path: e.Path, Type: e.Type})
			}
		}

		next := header.Get("X-Next-Page")
		if next == "" {
			break
		}
		n, err := strconv.Atoi(next)
		if err != nil || n <= page {
			break
		}
		page = n
	}

	return files, nil
}

// FetchFiles reads blob contents for paths at ref. Reads run in parallel,
// bounded by the configured concurrency. A failed individual read is logged
// and dropped from the result, not retried.
func (p *GitLabProvider) FetchFiles(ctx context.Context, projectID, ref string, paths []string) ([]CodeFile, error) {
	var (
		mu    sync.Mutex
		files []CodeFile
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.concurrency)

	for _, path := range paths {
		eg.Go(func() error {
			content, err := p.readFile(egCtx, projectID, path, ref)
			if err != nil {
				p.logger.Warn("skipping unreadable file",
					slog.String("project_id", projectID),
					slog.String("path", path),
					slog.String("error", err.Error()))
				return nil
			}
			mu.Lock()
			files = append(files, CodeFile{Path: path, Content: content, ModTime: time.Now()})
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// ProjectInfo fetches project metadata.
func (p *GitLabProvider) ProjectInfo(ctx context.Context, projectID string) (*ProjectInfo, error) {
	u := fmt.Sprintf("%s/projects/%s", p.baseURL, url.PathEscape(projectID))

	body, _, err := p.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	var proj gitlabProject
	if err := json.Unmarshal(body, &proj); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}

	branch := proj.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	return &ProjectInfo{
		ID:            strconv.FormatInt(proj.ID, 10),
		Name:          proj.Name,
		Description:   proj.Description,
		WebURL:        proj.WebURL,
		DefaultBranch: branch,
	}, nil
}

func (p *GitLabProvider) readFile(ctx context.Context, projectID, path, ref string) (string, error) {
	u := fmt.Sprintf("%s/projects/%s/repository/files/%s/raw?ref=%s",
		p.baseURL, url.PathEscape(projectID), url.PathEscape(path), url.QueryEscape(ref))

	body, _, err := p.get(ctx, u)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (p *GitLabProvider) get(ctx context.Context, u string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if p.token != "" {
		req.Header.Set("PRIVATE-TOKEN", p.token)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("gitlab API error (status %d): %s", resp.StatusCode, truncateBody(body))
	}
	return body, resp.Header, nil
}

func truncateBody(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
