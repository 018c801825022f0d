// Package engine is the contract between a flow run and the execution engine that
// performs it.
package engine

import (
	"context"
	"errors"

	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
)

const (
	// OriginGitHubApp tags acts started from a GitHub webhook delivery.
	OriginGitHubApp = "github-app"

	InputKindGitHubWebhookEvent = "github-webhook-event"
)

// ErrActFailed is returned when the engine reports that an act could not run.
var ErrActFailed = errors.New("act failed")

// Input is one item handed to the entry node.
type Input struct {
	Kind  string              `json:"kind"`
	Event *event.WebhookEvent `json:"event"`
}

type StartRequest struct {
	RunID     string            `json:"runId"`
	NodeID    string            `json:"nodeId"`
	Workspace *models.Workspace `json:"workspace"`
	Origin    string            `json:"origin"`
	Inputs    []Input           `json:"inputs"`
}

// Observer receives the lifecycle of one act. A returned error aborts the act.
type Observer interface {
	ActCreated(ctx context.Context, act models.Act) error
	SequenceStarted(ctx context.Context, sequence models.Sequence) error
	SequenceCompleted(ctx context.Context, sequence models.Sequence) error
	SequenceFailed(ctx context.Context, sequence models.Sequence) error
	SequenceSkipped(ctx context.Context, sequence models.Sequence) error
}

// Engine creates an act for the request and runs it to the end, reporting to
// observer along the way.
type Engine interface {
	CreateAndStartAct(ctx context.Context, request StartRequest, observer Observer) error
}

// NewStartRequest builds the request for a delivery entering the flow at nodeID.
func NewStartRequest(runID, nodeID string, workspace *models.Workspace, ev *event.WebhookEvent) StartRequest {
	return StartRequest{
		RunID:     runID,
		NodeID:    nodeID,
		Workspace: workspace,
		Origin:    OriginGitHubApp,
		Inputs:    []Input{{Kind: InputKindGitHubWebhookEvent, Event: ev}},
	}
}
