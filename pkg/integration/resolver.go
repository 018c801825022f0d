// Package integration resolves which flow triggers listen on a GitHub repository.
package integration

import (
	"context"
	"fmt"
	"slices"

	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
)

// Resolver reads and maintains the per-repository trigger index.
type Resolver struct {
	persistence persistence.Persistence
}

func NewResolver(persistence persistence.Persistence) *Resolver {
	return &Resolver{persistence: persistence}
}

// TriggerIDs returns the trigger ids registered for the repository in insertion
// order. A repository without an index has no triggers; that is not an error.
func (r *Resolver) TriggerIDs(ctx context.Context, repositoryNodeID string) ([]string, error) {
	index, err := r.index(ctx, repositoryNodeID)
	if err != nil {
		return nil, err
	}

	if index == nil {
		return nil, nil
	}

	return index.FlowTriggerIDs, nil
}

// Add appends flowTriggerID to the repository's index unless already present.
func (r *Resolver) Add(ctx context.Context, repositoryNodeID, flowTriggerID string) error {
	index, err := r.index(ctx, repositoryNodeID)
	if err != nil {
		return err
	}

	if index == nil {
		index = &models.GitHubRepositoryIntegrationIndex{RepositoryNodeID: repositoryNodeID}
	}

	if slices.Contains(index.FlowTriggerIDs, flowTriggerID) {
		return nil
	}

	index.FlowTriggerIDs = append(index.FlowTriggerIDs, flowTriggerID)

	return r.save(ctx, index)
}

// Remove drops flowTriggerID from the repository's index. The index is deleted
// once it is empty.
func (r *Resolver) Remove(ctx context.Context, repositoryNodeID, flowTriggerID string) error {
	index, err := r.index(ctx, repositoryNodeID)
	if err != nil || index == nil {
		return err
	}

	remaining := slices.DeleteFunc(slices.Clone(index.FlowTriggerIDs), func(id string) bool {
		return id == flowTriggerID
	})

	if len(remaining) == len(index.FlowTriggerIDs) {
		return nil
	}

	if len(remaining) == 0 {
		err := r.persistence.Delete(ctx, persistence.GitHubRepositoryIndexKey(repositoryNodeID))
		if err != nil && !persistence.IsNotFound(err) {
			return fmt.Errorf("failed to delete integration index for %s: %w", repositoryNodeID, err)
		}

		return nil
	}

	index.FlowTriggerIDs = remaining

	return r.save(ctx, index)
}

func (r *Resolver) index(ctx context.Context, repositoryNodeID string) (*models.GitHubRepositoryIntegrationIndex, error) {
	index, err := persistence.GetJSON[models.GitHubRepositoryIntegrationIndex](
		ctx, r.persistence, persistence.GitHubRepositoryIndexKey(repositoryNodeID))
	if persistence.IsNotFound(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read integration index for %s: %w", repositoryNodeID, err)
	}

	return index, nil
}

func (r *Resolver) save(ctx context.Context, index *models.GitHubRepositoryIntegrationIndex) error {
	err := persistence.PutJSON(ctx, r.persistence, persistence.GitHubRepositoryIndexKey(index.RepositoryNodeID), index)
	if err != nil {
		return fmt.Errorf("failed to write integration index for %s: %w", index.RepositoryNodeID, err)
	}

	return nil
}
