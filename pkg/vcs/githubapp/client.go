// Package githubapp implements vcs.Client against GitHub, authenticated as a
// GitHub App installation. Issue and review comments go through the REST API;
// reactions and discussions through GraphQL.
package githubapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/giselles-ai/giselle-sub003/pkg/vcs"
	"github.com/google/go-github/v74/github"
	"github.com/shurcooL/githubv4"
)

// discussionTreeSize bounds the comments and replies fetched per level.
const discussionTreeSize = 100

type Client struct {
	rest    *github.Client
	graphql *githubv4.Client
}

var _ vcs.Client = (*Client)(nil)

// NewClient talks to github.com through httpClient.
func NewClient(httpClient *http.Client) *Client {
	return &Client{
		rest:    github.NewClient(httpClient),
		graphql: githubv4.NewClient(httpClient),
	}
}

// NewEnterpriseClient talks to a GitHub Enterprise Server at baseURL.
func NewEnterpriseClient(baseURL string, httpClient *http.Client) (*Client, error) {
	rest, err := github.NewClient(httpClient).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid github base url %q: %w", baseURL, err)
	}

	return &Client{
		rest:    rest,
		graphql: githubv4.NewEnterpriseClient(strings.TrimSuffix(baseURL, "/")+"/api/graphql", httpClient),
	}, nil
}

func (c *Client) AddReaction(ctx context.Context, subjectNodeID string, content vcs.ReactionContent) error {
	var m struct {
		AddReaction struct {
			Reaction struct {
				Content githubv4.ReactionContent
			}
		} `graphql:"addReaction(input: $input)"`
	}

	input := githubv4.AddReactionInput{
		SubjectID: githubv4.ID(subjectNodeID),
		Content:   githubv4.ReactionContent(content),
	}

	if err := c.graphql.Mutate(ctx, &m, input, nil); err != nil {
		return fmt.Errorf("failed to add %s reaction to %s: %w", content, subjectNodeID, err)
	}

	return nil
}

func (c *Client) CreateIssueComment(ctx context.Context, repo vcs.Repository, issueNumber int, body string) (int64, error) {
	comment, _, err := c.rest.Issues.CreateComment(ctx, repo.Owner, repo.Name, issueNumber, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to comment on %s#%d: %w", repo, issueNumber, err)
	}

	return comment.GetID(), nil
}

// CreatePullRequestComment posts a conversation comment, which GitHub stores as
// an issue comment on the pull request.
func (c *Client) CreatePullRequestComment(ctx context.Context, repo vcs.Repository, pullNumber int, body string) (int64, error) {
	return c.CreateIssueComment(ctx, repo, pullNumber, body)
}

func (c *Client) ReplyPullRequestReviewComment(ctx context.Context, repo vcs.Repository, pullNumber int, commentID int64, body string) (int64, error) {
	comment, _, err := c.rest.PullRequests.CreateCommentInReplyTo(ctx, repo.Owner, repo.Name, pullNumber, body, commentID)
	if err != nil {
		return 0, fmt.Errorf("failed to reply to review comment %d on %s#%d: %w", commentID, repo, pullNumber, err)
	}

	return comment.GetID(), nil
}

func (c *Client) CreateDiscussionComment(ctx context.Context, discussionNodeID, replyToNodeID, body string) (string, error) {
	var m struct {
		AddDiscussionComment struct {
			Comment struct {
				ID string
			}
		} `graphql:"addDiscussionComment(input: $input)"`
	}

	input := githubv4.AddDiscussionCommentInput{
		DiscussionID: githubv4.ID(discussionNodeID),
		Body:         githubv4.String(body),
	}
	if replyToNodeID != "" {
		input.ReplyToID = githubv4.NewID(githubv4.ID(replyToNodeID))
	}

	if err := c.graphql.Mutate(ctx, &m, input, nil); err != nil {
		return "", fmt.Errorf("failed to comment on discussion %s: %w", discussionNodeID, err)
	}

	return m.AddDiscussionComment.Comment.ID, nil
}

func (c *Client) UpdateIssueComment(ctx context.Context, repo vcs.Repository, commentID int64, body string) error {
	_, _, err := c.rest.Issues.EditComment(ctx, repo.Owner, repo.Name, commentID, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("failed to edit comment %d on %s: %w", commentID, repo, err)
	}

	return nil
}

func (c *Client) UpdatePullRequestReviewComment(ctx context.Context, repo vcs.Repository, commentID int64, body string) error {
	_, _, err := c.rest.PullRequests.EditComment(ctx, repo.Owner, repo.Name, commentID, &github.PullRequestComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("failed to edit review comment %d on %s: %w", commentID, repo, err)
	}

	return nil
}

func (c *Client) UpdateDiscussionComment(ctx context.Context, commentNodeID, body string) error {
	var m struct {
		UpdateDiscussionComment struct {
			Comment struct {
				ID string
			}
		} `graphql:"updateDiscussionComment(input: $input)"`
	}

	input := githubv4.UpdateDiscussionCommentInput{
		CommentID: githubv4.ID(commentNodeID),
		Body:      githubv4.String(body),
	}

	if err := c.graphql.Mutate(ctx, &m, input, nil); err != nil {
		return fmt.Errorf("failed to edit discussion comment %s: %w", commentNodeID, err)
	}

	return nil
}

// GetDiscussionForCommentCreation fetches the discussion and the latest page of
// its comment tree, enough to resolve where a reply belongs.
func (c *Client) GetDiscussionForCommentCreation(ctx context.Context, repo vcs.Repository, number int) (*vcs.Discussion, error) {
	var q struct {
		Repository struct {
			Discussion *struct {
				ID       string
				Comments struct {
					Nodes []struct {
						ID         string
						DatabaseID int64
						Replies    struct {
							Nodes []struct {
								ID         string
								DatabaseID int64
							}
						} `graphql:"replies(first: $size)"`
					}
				} `graphql:"comments(last: $size)"`
			} `graphql:"discussion(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]any{
		"owner":  githubv4.String(repo.Owner),
		"name":   githubv4.String(repo.Name),
		"number": githubv4.Int(number),
		"size":   githubv4.Int(discussionTreeSize),
	}

	if err := c.graphql.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to load discussion %s#%d: %w", repo, number, err)
	}

	found := q.Repository.Discussion
	if found == nil {
		return nil, fmt.Errorf("%w: %s#%d", vcs.ErrDiscussionNotFound, repo, number)
	}

	discussion := &vcs.Discussion{NodeID: found.ID}

	for _, node := range found.Comments.Nodes {
		comment := vcs.DiscussionComment{NodeID: node.ID, DatabaseID: node.DatabaseID}

		for _, reply := range node.Replies.Nodes {
			comment.Replies = append(comment.Replies, vcs.DiscussionComment{
				NodeID:     reply.ID,
				DatabaseID: reply.DatabaseID,
			})
		}

		discussion.Comments = append(discussion.Comments, comment)
	}

	return discussion, nil
}
