package ingestion

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// zeroSHA is the all-zero sentinel a push event carries in "after" when a
// branch or tag was deleted.
const zeroSHA = "0000000000000000000000000000000000000000"

// EventKind classifies an inbound change event.
type EventKind string

const (
	EventPush         EventKind = "push"
	EventMergeRequest EventKind = "merge_request"
	EventUnsupported  EventKind = "unsupported"
)

// Event is the normalized form of a provider change event: the
// (project, ref, commit) triple plus enough metadata to resolve the project.
type Event struct {
	Kind        EventKind
	ProjectID   string
	ProjectName string
	ProjectURL  string
	Ref         string // branch name or commit SHA usable as a fetch ref
	Branch      string
	Commit      string
	Action      string // merge request action, empty for pushes
}

// webhookPayload covers the fields consumed from the provider's change-event
// body; everything else is ignored.
type webhookPayload struct {
	ObjectKind string `json:"object_kind"`
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Project    struct {
		ID            int64  `json:"id"`
		Name          string `json:"name"`
		WebURL        string `json:"web_url"`
		DefaultBranch string `json:"default_branch"`
	} `json:"project"`
	ObjectAttributes struct {
		Action       string `json:"action"`
		SourceBranch string `json:"source_branch"`
		LastCommit   struct {
			ID string `json:"id"`
		} `json:"last_commit"`
	} `json:"object_attributes"`
}

// ClassifyEvent parses a raw change-event body into an Event. Unknown event
// kinds classify as EventUnsupported rather than erroring; only an
// unparseable body fails.
func ClassifyEvent(body []byte) (Event, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}

	ev := Event{
		ProjectID:   strconv.FormatInt(p.Project.ID, 10),
		ProjectName: p.Project.Name,
		ProjectURL:  p.Project.WebURL,
	}

	switch p.ObjectKind {
	case "push", "tag_push":
		ev.Kind = EventPush
		ev.Branch = strings.TrimPrefix(p.Ref, "refs/heads/")
		ev.Branch = strings.TrimPrefix(ev.Branch, "refs/tags/")
		ev.Commit = p.After
		ev.Ref = ev.Commit
	case "merge_request":
		ev.Kind = EventMergeRequest
		ev.Action = p.ObjectAttributes.Action
		ev.Branch = p.ObjectAttributes.SourceBranch
		ev.Commit = p.ObjectAttributes.LastCommit.ID
		ev.Ref = ev.Branch
	default:
		ev.Kind = EventUnsupported
	}

	return ev, nil
}

// IsRefDeletion reports whether a push event signals branch/tag deletion.
func (e Event) IsRefDeletion() bool {
	return e.Kind == EventPush && e.Commit == zeroSHA
}

// mergeRequestActionable reports whether a merge-request action triggers
// processing. Only opened and updated merge requests do.
func mergeRequestActionable(action string) bool {
	return action == "open" || action == "update"
}
