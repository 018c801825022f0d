// Package handlers decides, per configured GitHub event, whether a delivery should
// start a flow run and which node the run acknowledges with a reaction.
package handlers

import (
	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
)

// Handler is one independent predicate.
type Handler func(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult

// Handlers holds one predicate per supported event id. Evaluate runs all of them.
var Handlers = map[models.EventID]Handler{
	models.EventIssueCreated:                    handleIssueCreated,
	models.EventIssueClosed:                     handleIssueClosed,
	models.EventIssueLabeled:                    handleIssueLabeled,
	models.EventIssueCommentCreated:             handleIssueCommentCreated,
	models.EventPullRequestCommentCreated:       handlePullRequestCommentCreated,
	models.EventPullRequestOpened:               handlePullRequestOpened,
	models.EventPullRequestReadyForReview:       handlePullRequestReadyForReview,
	models.EventPullRequestClosed:               handlePullRequestClosed,
	models.EventPullRequestLabeled:              handlePullRequestLabeled,
	models.EventPullRequestReviewCommentCreated: handlePullRequestReviewCommentCreated,
	models.EventDiscussionCreated:               handleDiscussionCreated,
	models.EventDiscussionCommentCreated:        handleDiscussionCommentCreated,
}

// Evaluate runs every predicate against the delivery and returns each match.
// There is no first-match-wins: every match becomes its own run.
func Evaluate(ev *event.WebhookEvent, configured models.GitHubEvent) []models.EventHandlerResult {
	if ev == nil || ev.Data == nil || configured == nil {
		return nil
	}

	var matches []models.EventHandlerResult

	for _, id := range models.EventIDs {
		handler, ok := Handlers[id]
		if !ok {
			continue
		}

		if result := handler(ev, configured); result.ShouldRun {
			matches = append(matches, result)
		}
	}

	return matches
}

var noRun = models.EventHandlerResult{}

func run(reactionNodeID string) models.EventHandlerResult {
	return models.EventHandlerResult{ShouldRun: true, ReactionNodeID: reactionNodeID}
}

func callsignMatches(body string, conditions models.CallsignConditions) bool {
	command := ParseCommand(body)

	return command != nil && command.Callsign == conditions.Callsign
}

func handleIssueCreated(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	if _, ok := configured.(models.IssueCreated); !ok || !ev.Is(event.IssuesOpened) || ev.Data.Issue == nil {
		return noRun
	}

	return run(ev.Data.Issue.NodeID)
}

func handleIssueClosed(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	if _, ok := configured.(models.IssueClosed); !ok || !ev.Is(event.IssuesClosed) || ev.Data.Issue == nil {
		return noRun
	}

	return run(ev.Data.Issue.NodeID)
}

func handleIssueLabeled(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	labeled, ok := configured.(models.IssueLabeled)
	if !ok || !ev.Is(event.IssuesLabeled) || ev.Data.Issue == nil || ev.Data.Label == nil {
		return noRun
	}

	if !labeled.Conditions.HasLabel(ev.Data.Label.Name) {
		return noRun
	}

	return run(ev.Data.Issue.NodeID)
}

func handleIssueCommentCreated(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	created, ok := configured.(models.IssueCommentCreated)
	if !ok || !ev.Is(event.IssueCommentCreated) || ev.Data.Comment == nil {
		return noRun
	}

	if !callsignMatches(ev.Data.Comment.Body, created.Conditions) {
		return noRun
	}

	return run(ev.Data.Comment.NodeID)
}

func handlePullRequestCommentCreated(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	created, ok := configured.(models.PullRequestCommentCreated)
	if !ok || !ev.Is(event.IssueCommentCreated) || ev.Data.Comment == nil {
		return noRun
	}

	// issue_comment deliveries on pull requests carry an issue.pull_request link.
	if ev.Data.Issue == nil || ev.Data.Issue.PullRequest == nil {
		return noRun
	}

	if !callsignMatches(ev.Data.Comment.Body, created.Conditions) {
		return noRun
	}

	return run(ev.Data.Comment.NodeID)
}

func handlePullRequestOpened(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	if _, ok := configured.(models.PullRequestOpened); !ok || !ev.Is(event.PullRequestOpened) || ev.Data.PullRequest == nil {
		return noRun
	}

	return run(ev.Data.PullRequest.NodeID)
}

func handlePullRequestReadyForReview(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	if _, ok := configured.(models.PullRequestReadyForReview); !ok || !ev.Is(event.PullRequestReadyForReview) || ev.Data.PullRequest == nil {
		return noRun
	}

	return run(ev.Data.PullRequest.NodeID)
}

func handlePullRequestClosed(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	if _, ok := configured.(models.PullRequestClosed); !ok || !ev.Is(event.PullRequestClosed) || ev.Data.PullRequest == nil {
		return noRun
	}

	return run(ev.Data.PullRequest.NodeID)
}

func handlePullRequestLabeled(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	labeled, ok := configured.(models.PullRequestLabeled)
	if !ok || !ev.Is(event.PullRequestLabeled) || ev.Data.PullRequest == nil || ev.Data.Label == nil {
		return noRun
	}

	if !labeled.Conditions.HasLabel(ev.Data.Label.Name) {
		return noRun
	}

	return run(ev.Data.PullRequest.NodeID)
}

func handlePullRequestReviewCommentCreated(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	created, ok := configured.(models.PullRequestReviewCommentCreated)
	if !ok || !ev.Is(event.PullRequestReviewCommentCreated) || ev.Data.Comment == nil {
		return noRun
	}

	if !callsignMatches(ev.Data.Comment.Body, created.Conditions) {
		return noRun
	}

	return run(ev.Data.Comment.NodeID)
}

func handleDiscussionCreated(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	if _, ok := configured.(models.DiscussionCreated); !ok || !ev.Is(event.DiscussionCreated) || ev.Data.Discussion == nil {
		return noRun
	}

	return run(ev.Data.Discussion.NodeID)
}

func handleDiscussionCommentCreated(ev *event.WebhookEvent, configured models.GitHubEvent) models.EventHandlerResult {
	created, ok := configured.(models.DiscussionCommentCreated)
	if !ok || !ev.Is(event.DiscussionCommentCreated) || ev.Data.Comment == nil {
		return noRun
	}

	if !callsignMatches(ev.Data.Comment.Body, created.Conditions) {
		return noRun
	}

	return run(ev.Data.Comment.NodeID)
}
