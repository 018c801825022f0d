package models

import "encoding/json"

// Workspace is handed to the engine untouched; only the id is interpreted here.
type Workspace struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Nodes       []json.RawMessage `json:"nodes,omitempty"`
	Connections []json.RawMessage `json:"connections,omitempty"`
}
