package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func chatOK(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		})
	}
}

func TestSummarize(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		chatOK("these fragments implement request routing")(w, r)
	}))
	defer srv.Close()

	c := NewClient("key-1", "test-model", srv.URL)
	out, err := c.Summarize(context.Background(), "http routing", []string{"func route() {}"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "these fragments implement request routing" {
		t.Errorf("out = %q", out)
	}
	if gotBody.Model != "test-model" {
		t.Errorf("model = %q, want test-model", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 {
		t.Fatalf("got %d messages, want system + user", len(gotBody.Messages))
	}
}

func TestCompleteRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		chatOK("ok")(w, r)
	}))
	defer srv.Close()

	c := NewClient("k", "m", srv.URL)
	out, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "ok" {
		t.Errorf("out = %q", out)
	}
	if calls.Load() != 2 {
		t.Errorf("upstream called %d times, want 2", calls.Load())
	}
}

func TestCompleteDoesNotRetryPermanentErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("k", "m", srv.URL)
	if _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("upstream called %d times, want 1 (no retry on 400)", calls.Load())
	}
}

func TestNewClientBaseURLNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", defaultBaseURL},
		{"https://llm.internal/v1", "https://llm.internal/v1/chat/completions"},
		{"https://llm.internal/v1/", "https://llm.internal/v1/chat/completions"},
		{"https://llm.internal/v1/chat/completions", "https://llm.internal/v1/chat/completions"},
	}
	for _, tt := range tests {
		c := NewClient("k", "m", tt.in)
		if c.baseURL != tt.want {
			t.Errorf("NewClient baseURL(%q) = %q, want %q", tt.in, c.baseURL, tt.want)
		}
	}
}
