package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/codelens-labs/codelens/internal/embedding"
	"github.com/codelens-labs/codelens/internal/store/postgres"
	"github.com/codelens-labs/codelens/pkg/apierr"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	snippetMaxLen      = 500
)

// Searcher is the store surface the search endpoint uses.
type Searcher interface {
	SearchSimilar(ctx context.Context, projectID *string, query []float32, limit int) ([]postgres.SearchResult, bool, error)
}

// Analyzer produces an optional natural-language summary of the results.
type Analyzer interface {
	Summarize(ctx context.Context, query string, fragments []string) (string, error)
}

type SearchHandler struct {
	logger   *slog.Logger
	searcher Searcher
	embedder embedding.Embedder
	analyzer Analyzer
}

func NewSearchHandler(logger *slog.Logger, searcher Searcher, embedder embedding.Embedder, analyzer Analyzer) *SearchHandler {
	return &SearchHandler{logger: logger, searcher: searcher, embedder: embedder, analyzer: analyzer}
}

type searchResult struct {
	ProjectID  string  `json:"projectId"`
	FilePath   string  `json:"filePath"`
	Language   string  `json:"language"`
	CommitSHA  string  `json:"commitSha"`
	Branch     string  `json:"branch"`
	Snippet    string  `json:"snippet"`
	Similarity float64 `json:"similarity"`
	UpdatedAt  string  `json:"updatedAt"`
}

// Search handles POST /api/search: embeds the query, retrieves similar code
// (project-scoped or global), and optionally enriches the response with an
// LLM summary. Embedding vectors are never included in the output.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.embedder == nil {
		writeAPIError(w, h.logger, apierr.NotImplemented("Semantic search (embeddings)"))
		return
	}

	var req struct {
		Query     string  `json:"query"`
		ProjectID *string `json:"projectId"`
		Limit     int     `json:"limit"`
		Analyze   bool    `json:"analyze"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, h.logger, apierr.InvalidRequestBody())
		return
	}
	if req.Query == "" {
		writeAPIError(w, h.logger, apierr.QueryRequired())
		return
	}
	if req.Limit <= 0 || req.Limit > maxSearchLimit {
		req.Limit = defaultSearchLimit
	}

	queryVec, err := embedding.Embed(r.Context(), h.embedder, req.Query)
	if err != nil {
		writeAPIError(w, h.logger, apierr.EmbeddingFailed(err))
		return
	}

	rows, ranked, err := h.searcher.SearchSimilar(r.Context(), req.ProjectID, queryVec, req.Limit)
	if err != nil {
		writeAPIError(w, h.logger, apierr.SearchFailed(err))
		return
	}

	if len(rows) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"results": []searchResult{},
			"count":   0,
			"ranked":  ranked,
			"message": "No matching code found",
		})
		return
	}

	results := make([]searchResult, len(rows))
	for i, row := range rows {
		results[i] = searchResult{
			ProjectID:  row.ProjectID,
			FilePath:   row.FilePath,
			Language:   row.Language,
			CommitSHA:  row.CommitSHA,
			Branch:     row.Branch,
			Snippet:    snippet(row.Content),
			Similarity: row.Similarity,
			UpdatedAt:  row.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	resp := map[string]any{
		"results": results,
		"count":   len(results),
		"ranked":  ranked,
	}

	if req.Analyze && h.analyzer != nil {
		fragments := make([]string, 0, len(rows))
		for _, row := range rows {
			fragments = append(fragments, snippet(row.Content))
		}
		analysis, err := h.analyzer.Summarize(r.Context(), req.Query, fragments)
		if err != nil {
			h.logger.Warn("search analysis failed", slog.String("error", err.Error()))
		} else {
			resp["analysis"] = analysis
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func snippet(content string) string {
	if len(content) > snippetMaxLen {
		return content[:snippetMaxLen] + "..."
	}
	return content
}
