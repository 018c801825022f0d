package run

import (
	"context"
	"fmt"

	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/vcs"
)

// commentTarget creates the progress comment for deliveries it matches.
type commentTarget struct {
	name    string
	matches func(ev *event.WebhookEvent) bool
	create  func(ctx context.Context, client vcs.Client, repo vcs.Repository, ev *event.WebhookEvent, body string) (*models.CreatedComment, error)
}

// commentTargets is evaluated top to bottom; the first match wins.
var commentTargets = []commentTarget{
	{name: "issue", matches: isIssueFamily, create: createIssueComment},
	{name: "pull_request", matches: isPullRequestFamily, create: createPullRequestComment},
	{name: "review_comment", matches: isReviewComment, create: replyToReviewComment},
	{name: "discussion", matches: isDiscussionFamily, create: createDiscussionComment},
}

func selectTarget(ev *event.WebhookEvent) (commentTarget, bool) {
	if ev == nil || ev.Data == nil || ev.Data.Repository == nil {
		return commentTarget{}, false
	}

	for _, target := range commentTargets {
		if target.matches(ev) {
			return target, true
		}
	}

	return commentTarget{}, false
}

func repositoryOf(ev *event.WebhookEvent) vcs.Repository {
	if ev == nil || ev.Data == nil || ev.Data.Repository == nil {
		return vcs.Repository{}
	}

	return vcs.Repository{Owner: ev.Data.Repository.Owner.Login, Name: ev.Data.Repository.Name}
}

func isIssueFamily(ev *event.WebhookEvent) bool {
	issue := ev.Data.Issue
	if issue == nil {
		return false
	}

	return ev.Is(event.IssuesOpened, event.IssuesClosed, event.IssuesLabeled) ||
		(ev.Is(event.IssueCommentCreated) && issue.PullRequest == nil)
}

func isPullRequestFamily(ev *event.WebhookEvent) bool {
	if ev.Is(event.IssueCommentCreated) {
		return ev.Data.Issue != nil && ev.Data.Issue.PullRequest != nil
	}

	return ev.Data.PullRequest != nil && ev.Is(
		event.PullRequestOpened,
		event.PullRequestReadyForReview,
		event.PullRequestClosed,
		event.PullRequestLabeled,
	)
}

func isReviewComment(ev *event.WebhookEvent) bool {
	return ev.Is(event.PullRequestReviewCommentCreated) && ev.Data.PullRequest != nil && ev.Data.Comment != nil
}

func isDiscussionFamily(ev *event.WebhookEvent) bool {
	return ev.Data.Discussion != nil && ev.Is(event.DiscussionCreated, event.DiscussionCommentCreated)
}

func createIssueComment(ctx context.Context, client vcs.Client, repo vcs.Repository, ev *event.WebhookEvent, body string) (*models.CreatedComment, error) {
	id, err := client.CreateIssueComment(ctx, repo, ev.Data.Issue.Number, body)
	if err != nil {
		return nil, err
	}

	return &models.CreatedComment{Kind: models.CommentKindIssue, ID: id}, nil
}

// createPullRequestComment posts on the conversation tab, so the comment is
// edited as an issue comment afterwards.
func createPullRequestComment(ctx context.Context, client vcs.Client, repo vcs.Repository, ev *event.WebhookEvent, body string) (*models.CreatedComment, error) {
	var number int
	if ev.Data.PullRequest != nil {
		number = ev.Data.PullRequest.Number
	} else {
		number = ev.Data.Issue.Number
	}

	id, err := client.CreatePullRequestComment(ctx, repo, number, body)
	if err != nil {
		return nil, err
	}

	return &models.CreatedComment{Kind: models.CommentKindIssue, ID: id}, nil
}

func replyToReviewComment(ctx context.Context, client vcs.Client, repo vcs.Repository, ev *event.WebhookEvent, body string) (*models.CreatedComment, error) {
	id, err := client.ReplyPullRequestReviewComment(ctx, repo, ev.Data.PullRequest.Number, ev.Data.Comment.ID, body)
	if err != nil {
		return nil, err
	}

	return &models.CreatedComment{Kind: models.CommentKindReview, ID: id}, nil
}

func createDiscussionComment(ctx context.Context, client vcs.Client, repo vcs.Repository, ev *event.WebhookEvent, body string) (*models.CreatedComment, error) {
	replyTo, err := discussionReplyTarget(ctx, client, repo, ev)
	if err != nil {
		return nil, err
	}

	nodeID, err := client.CreateDiscussionComment(ctx, ev.Data.Discussion.NodeID, replyTo, body)
	if err != nil {
		return nil, err
	}

	return &models.CreatedComment{Kind: models.CommentKindDiscussion, NodeID: nodeID}, nil
}

// discussionReplyTarget picks the thread a discussion comment answers in.
// Discussions nest one level only, so a reply to a reply is attached to the
// top-level comment that holds its parent. A comment that is not a reply is
// answered directly. When the parent is outside the fetched tree the answer is
// posted as a new top-level comment, since the triggering comment is itself a
// nested reply and cannot be replied to.
func discussionReplyTarget(ctx context.Context, client vcs.Client, repo vcs.Repository, ev *event.WebhookEvent) (string, error) {
	comment := ev.Data.Comment
	if !ev.Is(event.DiscussionCommentCreated) || comment == nil {
		return "", nil
	}

	if comment.ParentID == nil {
		return comment.NodeID, nil
	}

	discussion, err := client.GetDiscussionForCommentCreation(ctx, repo, ev.Data.Discussion.Number)
	if err != nil {
		return "", fmt.Errorf("failed to resolve reply target for comment %d: %w", comment.ID, err)
	}

	if target, ok := discussion.ReplyTargetNodeID(*comment.ParentID); ok {
		return target, nil
	}

	return "", nil
}

func updateComment(ctx context.Context, client vcs.Client, repo vcs.Repository, comment *models.CreatedComment, body string) error {
	switch comment.Kind {
	case models.CommentKindIssue:
		return client.UpdateIssueComment(ctx, repo, comment.ID, body)
	case models.CommentKindReview:
		return client.UpdatePullRequestReviewComment(ctx, repo, comment.ID, body)
	case models.CommentKindDiscussion:
		return client.UpdateDiscussionComment(ctx, comment.NodeID, body)
	default:
		return fmt.Errorf("unknown comment kind %q", comment.Kind)
	}
}
