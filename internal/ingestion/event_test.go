package ingestion

import (
	"testing"
)

func TestClassifyEventPush(t *testing.T) {
	body := []byte(`{
		"object_kind": "push",
		"ref": "refs/heads/main",
		"after": "abc123",
		"project": {"id": 42, "name": "demo", "web_url": "https://git.example.com/demo", "default_branch": "main"}
	}`)

	ev, err := ClassifyEvent(body)
	if err != nil {
		t.Fatalf("ClassifyEvent: %v", err)
	}
	if ev.Kind != EventPush {
		t.Errorf("Kind = %q, want push", ev.Kind)
	}
	if ev.ProjectID != "42" {
		t.Errorf("ProjectID = %q, want 42", ev.ProjectID)
	}
	if ev.Branch != "main" {
		t.Errorf("Branch = %q, want main", ev.Branch)
	}
	if ev.Commit != "abc123" || ev.Ref != "abc123" {
		t.Errorf("Commit/Ref = %q/%q, want abc123", ev.Commit, ev.Ref)
	}
	if ev.IsRefDeletion() {
		t.Error("IsRefDeletion() = true for a normal push")
	}
}

func TestClassifyEventRefDeletion(t *testing.T) {
	body := []byte(`{
		"object_kind": "push",
		"ref": "refs/heads/feature",
		"after": "0000000000000000000000000000000000000000",
		"project": {"id": 7}
	}`)

	ev, err := ClassifyEvent(body)
	if err != nil {
		t.Fatalf("ClassifyEvent: %v", err)
	}
	if !ev.IsRefDeletion() {
		t.Error("IsRefDeletion() = false for a zero-SHA push")
	}
}

func TestClassifyEventMergeRequest(t *testing.T) {
	body := []byte(`{
		"object_kind": "merge_request",
		"project": {"id": 9, "name": "demo"},
		"object_attributes": {
			"action": "open",
			"source_branch": "feature/x",
			"last_commit": {"id": "def456"}
		}
	}`)

	ev, err := ClassifyEvent(body)
	if err != nil {
		t.Fatalf("ClassifyEvent: %v", err)
	}
	if ev.Kind != EventMergeRequest {
		t.Errorf("Kind = %q, want merge_request", ev.Kind)
	}
	if ev.Action != "open" {
		t.Errorf("Action = %q, want open", ev.Action)
	}
	if ev.Branch != "feature/x" || ev.Ref != "feature/x" {
		t.Errorf("Branch/Ref = %q/%q, want feature/x", ev.Branch, ev.Ref)
	}
	if ev.Commit != "def456" {
		t.Errorf("Commit = %q, want def456", ev.Commit)
	}
}

func TestClassifyEventUnsupportedKind(t *testing.T) {
	ev, err := ClassifyEvent([]byte(`{"object_kind": "pipeline", "project": {"id": 1}}`))
	if err != nil {
		t.Fatalf("ClassifyEvent: %v", err)
	}
	if ev.Kind != EventUnsupported {
		t.Errorf("Kind = %q, want unsupported", ev.Kind)
	}
}

func TestClassifyEventBadBody(t *testing.T) {
	if _, err := ClassifyEvent([]byte("not json")); err == nil {
		t.Fatal("expected error for unparseable body")
	}
}

func TestMergeRequestActionable(t *testing.T) {
	tests := []struct {
		action string
		want   bool
	}{
		{"open", true},
		{"update", true},
		{"close", false},
		{"merge", false},
		{"reopen", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := mergeRequestActionable(tt.action); got != tt.want {
			t.Errorf("mergeRequestActionable(%q) = %v, want %v", tt.action, got, tt.want)
		}
	}
}
