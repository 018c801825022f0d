// Package vcs is the surface of the hosting service a run talks to: reactions,
// progress comments and the discussion tree.
package vcs

import (
	"context"
	"errors"
)

// ReactionContent is a reaction emoji as named by the GraphQL API.
type ReactionContent string

// ReactionEyes acknowledges that a delivery started a run.
const ReactionEyes ReactionContent = "EYES"

var ErrDiscussionNotFound = errors.New("discussion not found")

type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// DiscussionComment is a node of a discussion's comment tree. Replies are one
// level deep.
type DiscussionComment struct {
	NodeID     string
	DatabaseID int64
	Replies    []DiscussionComment
}

type Discussion struct {
	NodeID   string
	Comments []DiscussionComment
}

// ReplyTargetNodeID returns the node id of the top-level comment that a reply to
// the comment with database id parentID must be attached to.
func (d *Discussion) ReplyTargetNodeID(parentID int64) (string, bool) {
	if d == nil {
		return "", false
	}

	for _, comment := range d.Comments {
		if comment.DatabaseID == parentID {
			return comment.NodeID, true
		}

		for _, reply := range comment.Replies {
			if reply.DatabaseID == parentID {
				return comment.NodeID, true
			}
		}
	}

	return "", false
}

type Client interface {
	AddReaction(ctx context.Context, subjectNodeID string, content ReactionContent) error

	CreateIssueComment(ctx context.Context, repo Repository, issueNumber int, body string) (int64, error)
	CreatePullRequestComment(ctx context.Context, repo Repository, pullNumber int, body string) (int64, error)
	ReplyPullRequestReviewComment(ctx context.Context, repo Repository, pullNumber int, commentID int64, body string) (int64, error)
	CreateDiscussionComment(ctx context.Context, discussionNodeID, replyToNodeID, body string) (string, error)

	UpdateIssueComment(ctx context.Context, repo Repository, commentID int64, body string) error
	UpdatePullRequestReviewComment(ctx context.Context, repo Repository, commentID int64, body string) error
	UpdateDiscussionComment(ctx context.Context, commentNodeID, body string) error

	GetDiscussionForCommentCreation(ctx context.Context, repo Repository, number int) (*Discussion, error)
}

// ClientFactory hands out clients authenticated as one app installation.
type ClientFactory interface {
	ForInstallation(ctx context.Context, installationID int64) (Client, error)
}
