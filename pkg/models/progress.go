package models

import "time"

// EventHandlerResult is the outcome of matching one trigger against one event.
type EventHandlerResult struct {
	ShouldRun      bool
	ReactionNodeID string
}

// ProgressStatus is the four-value status shown in the progress comment.
type ProgressStatus string

const (
	ProgressPending    ProgressStatus = "pending"
	ProgressInProgress ProgressStatus = "in-progress"
	ProgressSuccess    ProgressStatus = "success"
	ProgressFailed     ProgressStatus = "failed"
)

// Rank orders statuses along pending -> in-progress -> {success, failed}.
func (s ProgressStatus) Rank() int {
	switch s {
	case ProgressInProgress:
		return 1
	case ProgressSuccess, ProgressFailed:
		return 2
	default:
		return 0
	}
}

// Terminal reports whether s is success or failed.
func (s ProgressStatus) Terminal() bool {
	return s.Rank() == 2
}

// ProgressTableRow is one sequence of a run.
type ProgressTableRow struct {
	ID        string
	Status    ProgressStatus
	UpdatedAt *time.Time
	Steps     []MiniStepRow
}

// MiniStepRow is one step inside a sequence.
type MiniStepRow struct {
	ID        string
	Name      string
	Status    ProgressStatus
	UpdatedAt *time.Time
}

type CommentKind string

const (
	CommentKindIssue      CommentKind = "issue"
	CommentKindReview     CommentKind = "review"
	CommentKindDiscussion CommentKind = "discussion"
)

// CreatedComment identifies the single progress comment of a run. Issue and review
// comments are addressed by ID, discussion comments by NodeID.
type CreatedComment struct {
	Kind   CommentKind
	ID     int64
	NodeID string
}
