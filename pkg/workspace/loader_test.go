package workspace

import (
	"context"
	"testing"

	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Workspace(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())
	require.NoError(t, store.Put(ctx, persistence.WorkspaceKey("wrks-1"),
		[]byte(`{"id":"wrks-1","name":"Triage","nodes":[{"id":"nd-1"}]}`)))

	workspace, err := NewStore(store).Workspace(ctx, "wrks-1")

	require.NoError(t, err)
	assert.Equal(t, "wrks-1", workspace.ID)
	assert.Equal(t, "Triage", workspace.Name)
	assert.Len(t, workspace.Nodes, 1)
}

func TestStore_WorkspaceMissing(t *testing.T) {
	_, err := NewStore(file.NewPersistence(t.TempDir())).Workspace(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))
}
