// Package models holds the flow trigger, run progress and workspace documents.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

const ProviderGitHub = "github"

// EventID identifies the GitHub event a trigger is configured for.
type EventID string

const (
	EventIssueCreated                    EventID = "github.issue.created"
	EventIssueClosed                     EventID = "github.issue.closed"
	EventIssueLabeled                    EventID = "github.issue.labeled"
	EventIssueCommentCreated             EventID = "github.issue_comment.created"
	EventPullRequestCommentCreated       EventID = "github.pull_request_comment.created"
	EventPullRequestOpened               EventID = "github.pull_request.opened"
	EventPullRequestReadyForReview       EventID = "github.pull_request.ready_for_review"
	EventPullRequestClosed               EventID = "github.pull_request.closed"
	EventPullRequestLabeled              EventID = "github.pull_request.labeled"
	EventPullRequestReviewCommentCreated EventID = "github.pull_request_review_comment.created"
	EventDiscussionCreated               EventID = "github.discussion.created"
	EventDiscussionCommentCreated        EventID = "github.discussion_comment.created"
)

// EventIDs lists every supported event id.
var EventIDs = []EventID{
	EventIssueCreated,
	EventIssueClosed,
	EventIssueLabeled,
	EventIssueCommentCreated,
	EventPullRequestCommentCreated,
	EventPullRequestOpened,
	EventPullRequestReadyForReview,
	EventPullRequestClosed,
	EventPullRequestLabeled,
	EventPullRequestReviewCommentCreated,
	EventDiscussionCreated,
	EventDiscussionCommentCreated,
}

var ErrUnknownEventID = errors.New("unknown github event id")

// FlowTrigger binds a workspace entry node to a GitHub event and its conditions.
type FlowTrigger struct {
	ID            string               `json:"id"            validate:"required"`
	WorkspaceID   string               `json:"workspaceId"   validate:"required"`
	NodeID        string               `json:"nodeId"        validate:"required"`
	Enable        bool                 `json:"enable"`
	Configuration TriggerConfiguration `json:"configuration"`
}

// Runnable reports whether the trigger may fire at all.
func (t *FlowTrigger) Runnable() bool {
	return t != nil && t.Enable && t.Configuration.Provider == ProviderGitHub && t.Configuration.Event != nil
}

// TriggerConfiguration is keyed by provider; for github it carries the event variant.
type TriggerConfiguration struct {
	Provider         string      `json:"provider"                   validate:"required"`
	RepositoryNodeID string      `json:"repositoryNodeId,omitempty"`
	InstallationID   int64       `json:"installationId,omitempty"`
	Event            GitHubEvent `json:"-"                          validate:"-"`
}

type CallsignConditions struct {
	Callsign string `json:"callsign" validate:"required"`
}

type LabelConditions struct {
	Labels []string `json:"labels" validate:"required,min=1,dive,required"`
}

// HasLabel reports whether name is one of the configured labels.
func (c LabelConditions) HasLabel(name string) bool {
	for _, label := range c.Labels {
		if label == name {
			return true
		}
	}

	return false
}

// GitHubEvent is the closed set of configured event variants. Only types in this
// package implement it.
type GitHubEvent interface {
	EventID() EventID
	isGitHubEvent()
}

type (
	IssueCreated                    struct{}
	IssueClosed                     struct{}
	PullRequestOpened               struct{}
	PullRequestReadyForReview       struct{}
	PullRequestClosed               struct{}
	DiscussionCreated               struct{}
	IssueLabeled                    struct{ Conditions LabelConditions }
	PullRequestLabeled              struct{ Conditions LabelConditions }
	IssueCommentCreated             struct{ Conditions CallsignConditions }
	PullRequestCommentCreated       struct{ Conditions CallsignConditions }
	PullRequestReviewCommentCreated struct{ Conditions CallsignConditions }
	DiscussionCommentCreated        struct{ Conditions CallsignConditions }
)

func (IssueCreated) EventID() EventID                    { return EventIssueCreated }
func (IssueClosed) EventID() EventID                     { return EventIssueClosed }
func (IssueLabeled) EventID() EventID                    { return EventIssueLabeled }
func (IssueCommentCreated) EventID() EventID             { return EventIssueCommentCreated }
func (PullRequestCommentCreated) EventID() EventID       { return EventPullRequestCommentCreated }
func (PullRequestOpened) EventID() EventID               { return EventPullRequestOpened }
func (PullRequestReadyForReview) EventID() EventID       { return EventPullRequestReadyForReview }
func (PullRequestClosed) EventID() EventID               { return EventPullRequestClosed }
func (PullRequestLabeled) EventID() EventID              { return EventPullRequestLabeled }
func (PullRequestReviewCommentCreated) EventID() EventID { return EventPullRequestReviewCommentCreated }
func (DiscussionCreated) EventID() EventID               { return EventDiscussionCreated }
func (DiscussionCommentCreated) EventID() EventID        { return EventDiscussionCommentCreated }

func (IssueCreated) isGitHubEvent()                    {}
func (IssueClosed) isGitHubEvent()                     {}
func (IssueLabeled) isGitHubEvent()                    {}
func (IssueCommentCreated) isGitHubEvent()             {}
func (PullRequestCommentCreated) isGitHubEvent()       {}
func (PullRequestOpened) isGitHubEvent()               {}
func (PullRequestReadyForReview) isGitHubEvent()       {}
func (PullRequestClosed) isGitHubEvent()               {}
func (PullRequestLabeled) isGitHubEvent()              {}
func (PullRequestReviewCommentCreated) isGitHubEvent() {}
func (DiscussionCreated) isGitHubEvent()               {}
func (DiscussionCommentCreated) isGitHubEvent()        {}

// Conditions returns the variant's conditions, or nil for variants without any.
func Conditions(event GitHubEvent) any {
	switch e := event.(type) {
	case IssueLabeled:
		return e.Conditions
	case PullRequestLabeled:
		return e.Conditions
	case IssueCommentCreated:
		return e.Conditions
	case PullRequestCommentCreated:
		return e.Conditions
	case PullRequestReviewCommentCreated:
		return e.Conditions
	case DiscussionCommentCreated:
		return e.Conditions
	default:
		return nil
	}
}

// NewGitHubEvent builds the variant for id from its raw conditions document.
func NewGitHubEvent(id EventID, rawConditions json.RawMessage) (GitHubEvent, error) {
	switch id {
	case EventIssueCreated:
		return IssueCreated{}, nil
	case EventIssueClosed:
		return IssueClosed{}, nil
	case EventPullRequestOpened:
		return PullRequestOpened{}, nil
	case EventPullRequestReadyForReview:
		return PullRequestReadyForReview{}, nil
	case EventPullRequestClosed:
		return PullRequestClosed{}, nil
	case EventDiscussionCreated:
		return DiscussionCreated{}, nil
	case EventIssueLabeled:
		c, err := decodeConditions[LabelConditions](id, rawConditions)
		return IssueLabeled{Conditions: c}, err
	case EventPullRequestLabeled:
		c, err := decodeConditions[LabelConditions](id, rawConditions)
		return PullRequestLabeled{Conditions: c}, err
	case EventIssueCommentCreated:
		c, err := decodeConditions[CallsignConditions](id, rawConditions)
		return IssueCommentCreated{Conditions: c}, err
	case EventPullRequestCommentCreated:
		c, err := decodeConditions[CallsignConditions](id, rawConditions)
		return PullRequestCommentCreated{Conditions: c}, err
	case EventPullRequestReviewCommentCreated:
		c, err := decodeConditions[CallsignConditions](id, rawConditions)
		return PullRequestReviewCommentCreated{Conditions: c}, err
	case EventDiscussionCommentCreated:
		c, err := decodeConditions[CallsignConditions](id, rawConditions)
		return DiscussionCommentCreated{Conditions: c}, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventID, id)
	}
}

func decodeConditions[T any](id EventID, raw json.RawMessage) (T, error) {
	var conditions T
	if len(raw) == 0 || string(raw) == "null" {
		return conditions, nil
	}

	if err := json.Unmarshal(raw, &conditions); err != nil {
		return conditions, fmt.Errorf("invalid conditions for %s: %w", id, err)
	}

	return conditions, nil
}

type eventEnvelope struct {
	ID         EventID         `json:"id"`
	Conditions json.RawMessage `json:"conditions,omitempty"`
}

type configurationAlias TriggerConfiguration

type configurationDocument struct {
	configurationAlias

	Event *eventEnvelope `json:"event,omitempty"`
}

func (c TriggerConfiguration) MarshalJSON() ([]byte, error) {
	doc := configurationDocument{configurationAlias: configurationAlias(c)}

	if c.Event != nil {
		doc.Event = &eventEnvelope{ID: c.Event.EventID()}

		if conditions := Conditions(c.Event); conditions != nil {
			raw, err := json.Marshal(conditions)
			if err != nil {
				return nil, err
			}

			doc.Event.Conditions = raw
		}
	}

	return json.Marshal(doc)
}

// UnmarshalJSON decodes the event variant only for the github provider; other
// providers keep a nil Event and are never runnable.
func (c *TriggerConfiguration) UnmarshalJSON(data []byte) error {
	var doc configurationDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	*c = TriggerConfiguration(doc.configurationAlias)

	if doc.Provider != ProviderGitHub || doc.Event == nil {
		return nil
	}

	event, err := NewGitHubEvent(doc.Event.ID, doc.Event.Conditions)
	if err != nil {
		return err
	}

	c.Event = event

	return nil
}
