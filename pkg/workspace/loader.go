// Package workspace loads the workspace a flow trigger belongs to.
package workspace

import (
	"context"
	"fmt"

	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
)

// Loader returns a workspace by id.
type Loader interface {
	Workspace(ctx context.Context, workspaceID string) (*models.Workspace, error)
}

// Store loads workspaces from the storage chain.
type Store struct {
	persistence persistence.Persistence
}

func NewStore(persistence persistence.Persistence) *Store {
	return &Store{persistence: persistence}
}

func (s *Store) Workspace(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	workspace, err := persistence.GetJSON[models.Workspace](ctx, s.persistence, persistence.WorkspaceKey(workspaceID))
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace %s: %w", workspaceID, err)
	}

	return workspace, nil
}
