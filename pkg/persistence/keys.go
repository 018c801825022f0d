package persistence

import "fmt"

// GitHubRepositoryIndexKey is the location of a repository's integration index.
func GitHubRepositoryIndexKey(repositoryNodeID string) string {
	return fmt.Sprintf("integrations/github/repositories/%s.json", repositoryNodeID)
}

// FlowTriggerKey is the location of a persisted trigger.
func FlowTriggerKey(flowTriggerID string) string {
	return fmt.Sprintf("flow-triggers/%s.json", flowTriggerID)
}

// WorkspaceKey is the location of a persisted workspace.
func WorkspaceKey(workspaceID string) string {
	return fmt.Sprintf("workspaces/%s/workspace.json", workspaceID)
}
