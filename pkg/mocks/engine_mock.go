package mocks

import (
	"context"

	"github.com/giselles-ai/giselle-sub003/pkg/engine"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockEngine is a mock implementation of engine.Engine interface. Use Run on the
// expectation to drive the observer.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) CreateAndStartAct(ctx context.Context, request engine.StartRequest, observer engine.Observer) error {
	args := m.Called(ctx, request, observer)

	return args.Error(0)
}

// MockWorkspaceLoader is a mock implementation of workspace.Loader interface.
type MockWorkspaceLoader struct {
	mock.Mock
}

func (m *MockWorkspaceLoader) Workspace(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workspace), args.Error(1)
}
