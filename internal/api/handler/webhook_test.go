package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/codelens-labs/codelens/internal/ingestion"
)

// syncRunner executes submitted tasks inline so tests observe their effects
// without racing the handler's 202 response.
type syncRunner struct{}

func (syncRunner) Go(name string, fn func(ctx context.Context) error) {
	_ = fn(context.Background())
}

// fakeDispatcher records pipeline invocations.
type fakeDispatcher struct {
	mu       sync.Mutex
	events   []ingestion.Event
	repoURLs []string
	status   ingestion.Status
	err      error
}

func (d *fakeDispatcher) ProcessEvent(ctx context.Context, ev ingestion.Event) (ingestion.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return d.status, d.err
}

func (d *fakeDispatcher) ProcessRepository(ctx context.Context, repoURL, processingID string) (ingestion.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.repoURLs = append(d.repoURLs, repoURL)
	return d.status, d.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const pushBody = `{
	"object_kind": "push",
	"ref": "refs/heads/main",
	"after": "abc123",
	"project": {"id": 42, "name": "demo", "web_url": "https://git.example.com/demo"}
}`

func TestWebhookReceiveAccepted(t *testing.T) {
	dispatcher := &fakeDispatcher{status: ingestion.StatusCompleted}
	h := NewWebhookHandler(discardLogger(), "", dispatcher, syncRunner{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(pushBody))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"accepted"`) {
		t.Errorf("body = %s, want accepted acknowledgment", rec.Body.String())
	}
	if len(dispatcher.events) != 1 {
		t.Fatalf("dispatcher saw %d events, want 1", len(dispatcher.events))
	}
	if dispatcher.events[0].ProjectID != "42" {
		t.Errorf("event project = %q, want 42", dispatcher.events[0].ProjectID)
	}
}

func TestWebhookReceiveAcceptedEvenWhenPipelineFails(t *testing.T) {
	dispatcher := &fakeDispatcher{status: ingestion.StatusFailed, err: context.DeadlineExceeded}
	h := NewWebhookHandler(discardLogger(), "", dispatcher, syncRunner{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(pushBody))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 regardless of pipeline outcome", rec.Code)
	}
}

func TestWebhookReceiveBadBody(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := NewWebhookHandler(discardLogger(), "", dispatcher, syncRunner{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(dispatcher.events) != 0 {
		t.Error("unparseable body must not reach the pipeline")
	}
}

func TestWebhookReceiveTokenValidation(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "wrong", http.StatusUnauthorized},
		{"correct token", "s3cret", http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{status: ingestion.StatusCompleted}
			h := NewWebhookHandler(discardLogger(), "s3cret", dispatcher, syncRunner{})

			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(pushBody))
			if tt.token != "" {
				req.Header.Set("X-Webhook-Token", tt.token)
			}
			rec := httptest.NewRecorder()
			h.Receive(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestWebhookReceiveNoSecretSkipsCheck(t *testing.T) {
	dispatcher := &fakeDispatcher{status: ingestion.StatusCompleted}
	h := NewWebhookHandler(discardLogger(), "", dispatcher, syncRunner{})

	// No token header at all; with no secret configured this must pass.
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(pushBody))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 when no secret configured", rec.Code)
	}
}
