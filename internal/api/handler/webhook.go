package handler

import (
	"context"
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"

	"github.com/codelens-labs/codelens/internal/ingestion"
	"github.com/codelens-labs/codelens/pkg/apierr"
)

// EventProcessor is the dispatcher surface the handlers drive.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, ev ingestion.Event) (ingestion.Status, error)
	ProcessRepository(ctx context.Context, repoURL, processingID string) (ingestion.Status, error)
}

// TaskSubmitter runs a task detached from the request.
type TaskSubmitter interface {
	Go(name string, fn func(ctx context.Context) error)
}

type WebhookHandler struct {
	logger     *slog.Logger
	secret     string
	dispatcher EventProcessor
	runner     TaskSubmitter
}

func NewWebhookHandler(logger *slog.Logger, secret string, dispatcher EventProcessor, runner TaskSubmitter) *WebhookHandler {
	return &WebhookHandler{logger: logger, secret: secret, dispatcher: dispatcher, runner: runner}
}

// Receive handles POST /webhook. The event is validated and classified
// synchronously, acknowledged with 202, and processed in the background.
// Pipeline failures are logged, never reported to the original caller.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		token := r.Header.Get("X-Webhook-Token")
		if token == "" {
			writeAPIError(w, h.logger, apierr.MissingWebhookToken())
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
			writeAPIError(w, h.logger, apierr.InvalidWebhookToken())
			return
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeAPIError(w, h.logger, apierr.InvalidRequestBody())
		return
	}

	ev, err := ingestion.ClassifyEvent(body)
	if err != nil {
		writeAPIError(w, h.logger, apierr.InvalidRequestBody())
		return
	}

	h.logger.Info("webhook received",
		slog.String("kind", string(ev.Kind)),
		slog.String("project_id", ev.ProjectID),
		slog.String("commit", ev.Commit))

	h.runner.Go("webhook:"+ev.ProjectID, func(ctx context.Context) error {
		_, err := h.dispatcher.ProcessEvent(ctx, ev)
		return err
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
