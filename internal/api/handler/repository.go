package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/codelens-labs/codelens/internal/ingestion"
	"github.com/codelens-labs/codelens/pkg/apierr"
)

type RepositoryHandler struct {
	logger     *slog.Logger
	dispatcher EventProcessor
	runner     TaskSubmitter
	tracker    ingestion.StatusTracker
}

func NewRepositoryHandler(logger *slog.Logger, dispatcher EventProcessor, runner TaskSubmitter, tracker ingestion.StatusTracker) *RepositoryHandler {
	return &RepositoryHandler{logger: logger, dispatcher: dispatcher, runner: runner, tracker: tracker}
}

// Embed handles POST /api/repositories/embed: clone-based ingestion of a
// repository URL, acknowledged with a generated processing identifier before
// any work starts.
func (h *RepositoryHandler) Embed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RepositoryURL string `json:"repositoryUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, h.logger, apierr.InvalidRequestBody())
		return
	}
	if req.RepositoryURL == "" {
		writeAPIError(w, h.logger, apierr.RepositoryURLRequired())
		return
	}

	processingID := uuid.NewString()
	h.tracker.Set(r.Context(), ingestion.StatusRecord{
		ProcessingID: processingID,
		State:        ingestion.RunPending,
	})

	repoURL := req.RepositoryURL
	h.runner.Go("embed:"+processingID, func(ctx context.Context) error {
		h.tracker.Set(ctx, ingestion.StatusRecord{
			ProcessingID: processingID,
			State:        ingestion.RunProcessing,
		})

		status, err := h.dispatcher.ProcessRepository(ctx, repoURL, processingID)
		rec := ingestion.StatusRecord{ProcessingID: processingID, Detail: string(status)}
		switch {
		case err != nil:
			rec.State = ingestion.RunFailed
			rec.Detail = err.Error()
		case status == ingestion.StatusCompleted:
			rec.State = ingestion.RunCompleted
		default:
			rec.State = ingestion.RunSkipped
		}
		h.tracker.Set(ctx, rec)
		return err
	})

	writeJSON(w, http.StatusAccepted, map[string]string{
		"processingId": processingID,
		"status":       string(ingestion.RunPending),
	})
}

// Status handles GET /api/repositories/status/{processingID}.
func (h *RepositoryHandler) Status(w http.ResponseWriter, r *http.Request) {
	processingID := chi.URLParam(r, "processingID")
	if _, err := uuid.Parse(processingID); err != nil {
		writeAPIError(w, h.logger, apierr.InvalidProcessingID())
		return
	}

	rec, ok := h.tracker.Get(r.Context(), processingID)
	if !ok {
		writeAPIError(w, h.logger, apierr.ProcessingNotFound())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
