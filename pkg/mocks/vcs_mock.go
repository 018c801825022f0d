package mocks

import (
	"context"

	"github.com/giselles-ai/giselle-sub003/pkg/vcs"
	"github.com/stretchr/testify/mock"
)

// MockVCSClient is a mock implementation of vcs.Client interface.
type MockVCSClient struct {
	mock.Mock
}

func (m *MockVCSClient) AddReaction(ctx context.Context, subjectNodeID string, content vcs.ReactionContent) error {
	args := m.Called(ctx, subjectNodeID, content)

	return args.Error(0)
}

func (m *MockVCSClient) CreateIssueComment(ctx context.Context, repo vcs.Repository, issueNumber int, body string) (int64, error) {
	args := m.Called(ctx, repo, issueNumber, body)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVCSClient) CreatePullRequestComment(ctx context.Context, repo vcs.Repository, pullNumber int, body string) (int64, error) {
	args := m.Called(ctx, repo, pullNumber, body)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVCSClient) ReplyPullRequestReviewComment(ctx context.Context, repo vcs.Repository, pullNumber int, commentID int64, body string) (int64, error) {
	args := m.Called(ctx, repo, pullNumber, commentID, body)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVCSClient) CreateDiscussionComment(ctx context.Context, discussionNodeID, replyToNodeID, body string) (string, error) {
	args := m.Called(ctx, discussionNodeID, replyToNodeID, body)

	return args.String(0), args.Error(1)
}

func (m *MockVCSClient) UpdateIssueComment(ctx context.Context, repo vcs.Repository, commentID int64, body string) error {
	args := m.Called(ctx, repo, commentID, body)

	return args.Error(0)
}

func (m *MockVCSClient) UpdatePullRequestReviewComment(ctx context.Context, repo vcs.Repository, commentID int64, body string) error {
	args := m.Called(ctx, repo, commentID, body)

	return args.Error(0)
}

func (m *MockVCSClient) UpdateDiscussionComment(ctx context.Context, commentNodeID, body string) error {
	args := m.Called(ctx, commentNodeID, body)

	return args.Error(0)
}

func (m *MockVCSClient) GetDiscussionForCommentCreation(ctx context.Context, repo vcs.Repository, number int) (*vcs.Discussion, error) {
	args := m.Called(ctx, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*vcs.Discussion), args.Error(1)
}

// MockClientFactory is a mock implementation of vcs.ClientFactory interface.
type MockClientFactory struct {
	mock.Mock
}

func (m *MockClientFactory) ForInstallation(ctx context.Context, installationID int64) (vcs.Client, error) {
	args := m.Called(ctx, installationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(vcs.Client), args.Error(1)
}
