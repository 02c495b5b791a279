package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/codelens-labs/codelens/internal/store/postgres"
	"github.com/codelens-labs/codelens/pkg/apierr"
)

// ProjectLister is the store surface the projects endpoint uses.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]postgres.Project, error)
}

type ProjectHandler struct {
	logger *slog.Logger
	store  ProjectLister
}

func NewProjectHandler(logger *slog.Logger, store ProjectLister) *ProjectHandler {
	return &ProjectHandler{logger: logger, store: store}
}

// List handles GET /api/projects: all known project metadata, ordered by name.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		writeAPIError(w, h.logger, apierr.ProjectListFailed(err))
		return
	}
	if projects == nil {
		projects = []postgres.Project{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"count":    len(projects),
	})
}
