// Package event describes GitHub webhook deliveries as seen by the trigger pipeline.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Name is "<X-GitHub-Event>.<action>", e.g. "issues.labeled".
type Name string

const (
	IssuesOpened                    Name = "issues.opened"
	IssuesClosed                    Name = "issues.closed"
	IssuesLabeled                   Name = "issues.labeled"
	IssueCommentCreated             Name = "issue_comment.created"
	PullRequestOpened               Name = "pull_request.opened"
	PullRequestReadyForReview       Name = "pull_request.ready_for_review"
	PullRequestClosed               Name = "pull_request.closed"
	PullRequestLabeled              Name = "pull_request.labeled"
	PullRequestReviewCommentCreated Name = "pull_request_review_comment.created"
	DiscussionCreated               Name = "discussion.created"
	DiscussionCommentCreated        Name = "discussion_comment.created"
)

// Supported is the fixed set of deliveries the pipeline reacts to.
var Supported = []Name{
	IssuesOpened,
	IssuesClosed,
	IssuesLabeled,
	IssueCommentCreated,
	PullRequestOpened,
	PullRequestReadyForReview,
	PullRequestClosed,
	PullRequestLabeled,
	PullRequestReviewCommentCreated,
	DiscussionCreated,
	DiscussionCommentCreated,
}

// IsSupported reports whether name is in Supported.
func IsSupported(name Name) bool {
	for _, supported := range Supported {
		if supported == name {
			return true
		}
	}

	return false
}

var ErrInvalidPayload = errors.New("invalid webhook payload")

// NameFor composes the event name from the delivery header and the payload action.
func NameFor(githubEvent, action string) Name {
	if action == "" {
		return Name(githubEvent)
	}

	return Name(githubEvent + "." + action)
}

// WebhookEvent is one delivery. Payload keeps the raw body so it can be forwarded
// verbatim to the engine; Data is its decoded form.
type WebhookEvent struct {
	Name       Name            `json:"name"`
	DeliveryID string          `json:"deliveryId,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	Data       *Payload        `json:"-"`
}

// Parse decodes payload for the delivery of githubEvent.
func Parse(githubEvent, deliveryID string, payload []byte) (*WebhookEvent, error) {
	var data Payload
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return &WebhookEvent{
		Name:       NameFor(strings.TrimSpace(githubEvent), data.Action),
		DeliveryID: deliveryID,
		Payload:    json.RawMessage(payload),
		Data:       &data,
	}, nil
}

// UnmarshalJSON restores Data after the event has crossed a bus.
func (e *WebhookEvent) UnmarshalJSON(raw []byte) error {
	type alias WebhookEvent

	var decoded alias
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}

	*e = WebhookEvent(decoded)
	e.Data = &Payload{}

	if len(e.Payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(e.Payload, e.Data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return nil
}

// Is reports whether the event carries one of names.
func (e *WebhookEvent) Is(names ...Name) bool {
	for _, name := range names {
		if e.Name == name {
			return true
		}
	}

	return false
}

// RepositoryNodeID returns the node id of the delivery's repository, if any.
func (e *WebhookEvent) RepositoryNodeID() string {
	if e.Data == nil || e.Data.Repository == nil {
		return ""
	}

	return e.Data.Repository.NodeID
}
