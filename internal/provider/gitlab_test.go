package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codelens-labs/codelens/internal/config"
)

func testGitLab(t *testing.T, handler http.Handler) (*GitLabProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewGitLabProvider(config.GitLabConfig{
		BaseURL: srv.URL,
		Token:   "glpat-test",
	}, 4, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return p, srv
}

func TestListFilesPaginated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/42/repository/tree", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("PRIVATE-TOKEN"); got != "glpat-test" {
			t.Errorf("PRIVATE-TOKEN = %q", got)
		}
		switch r.URL.Query().Get("page") {
		case "1", "":
			w.Header().Set("X-Next-Page", "2")
			json.NewEncoder(w).Encode([]map[string]string{
				{"path": "a.go", "type": "blob"},
				{"path": "docs", "type": "tree"},
			})
		case "2":
			json.NewEncoder(w).Encode([]map[string]string{
				{"path": "b.go", "type": "blob"},
			})
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	p, _ := testGitLab(t, mux)
	files, err := p.ListFiles(context.Background(), "42", "main")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2 blobs across pages", len(files))
	}
	if files[0].Path != "a.go" || files[1].Path != "b.go" {
		t.Errorf("files = %+v", files)
	}
}

func TestListFilesServerError(t *testing.T) {
	p, _ := testGitLab(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	if _, err := p.ListFiles(context.Background(), "42", "main"); err == nil {
		t.Fatal("expected error on upstream failure")
	}
}

func TestFetchFilesDropsFailedReads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/42/repository/files/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing.go") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "package ok\n")
	})

	p, _ := testGitLab(t, mux)
	files, err := p.FetchFiles(context.Background(), "42", "main", []string{"ok.go", "missing.go"})
	if err != nil {
		t.Fatalf("FetchFiles: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1 (failed read dropped)", len(files))
	}
	if files[0].Path != "ok.go" || files[0].Content != "package ok\n" {
		t.Errorf("file = %+v", files[0])
	}
}

func TestProjectInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/42", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":             42,
			"name":           "demo",
			"description":    "a demo",
			"web_url":        "https://git.example.com/demo",
			"default_branch": "trunk",
		})
	})

	p, _ := testGitLab(t, mux)
	info, err := p.ProjectInfo(context.Background(), "42")
	if err != nil {
		t.Fatalf("ProjectInfo: %v", err)
	}
	if info.ID != "42" || info.Name != "demo" || info.DefaultBranch != "trunk" {
		t.Errorf("info = %+v", info)
	}
}

func TestProjectInfoDefaultBranchFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/42", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 42, "name": "demo"})
	})

	p, _ := testGitLab(t, mux)
	info, err := p.ProjectInfo(context.Background(), "42")
	if err != nil {
		t.Fatalf("ProjectInfo: %v", err)
	}
	if info.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q, want main fallback", info.DefaultBranch)
	}
}
