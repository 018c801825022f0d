package models

// GitHubRepositoryIntegrationIndex maps a repository to the triggers listening on it.
type GitHubRepositoryIntegrationIndex struct {
	RepositoryNodeID string   `json:"repositoryNodeId"`
	FlowTriggerIDs   []string `json:"flowTriggerIds"`
}
