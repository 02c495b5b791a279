package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codelens-labs/codelens/internal/store/postgres"
)

type fakeProjectLister struct {
	projects []postgres.Project
	err      error
}

func (f *fakeProjectLister) ListProjects(ctx context.Context) ([]postgres.Project, error) {
	return f.projects, f.err
}

func TestProjectList(t *testing.T) {
	lister := &fakeProjectLister{projects: []postgres.Project{
		{ProjectID: "1", Name: "alpha"},
		{ProjectID: "2", Name: "beta"},
	}}
	h := NewProjectHandler(discardLogger(), lister)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Projects []postgres.Project `json:"projects"`
		Count    int                `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Projects) != 2 {
		t.Errorf("count = %d, projects = %d, want 2", resp.Count, len(resp.Projects))
	}
}

func TestProjectListEmpty(t *testing.T) {
	h := NewProjectHandler(discardLogger(), &fakeProjectLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Projects []postgres.Project `json:"projects"`
		Count    int                `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Projects == nil {
		t.Error("projects serialized as null, want empty array")
	}
	if resp.Count != 0 {
		t.Errorf("count = %d, want 0", resp.Count)
	}
}

func TestProjectListFailure(t *testing.T) {
	h := NewProjectHandler(discardLogger(), &fakeProjectLister{err: fmt.Errorf("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
