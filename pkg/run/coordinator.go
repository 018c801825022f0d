// Package run carries one matched trigger through a flow run: acknowledge the
// delivery, start the act and keep a single progress comment up to date.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/giselles-ai/giselle-sub003/pkg/engine"
	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/giselles-ai/giselle-sub003/pkg/log"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/otelhelper"
	"github.com/giselles-ai/giselle-sub003/pkg/vcs"
	"github.com/giselles-ai/giselle-sub003/pkg/workspace"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*Coordinator)

// WithClock replaces time.Now for progress timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

type Coordinator struct {
	engine     engine.Engine
	workspaces workspace.Loader
	clients    vcs.ClientFactory
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

func NewCoordinator(
	engine engine.Engine,
	workspaces workspace.Loader,
	clients vcs.ClientFactory,
	logger *slog.Logger,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		engine:     engine,
		workspaces: workspaces,
		clients:    clients,
		logger:     logger.With("module", "run"),
		tracer:     otelhelper.Tracer("giselle-run"),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run performs one flow run for trigger. Errors from the reaction, the workspace
// load, the engine or any progress edit abort the run; the closing message is
// only written when the engine returns normally.
func (c *Coordinator) Run(ctx context.Context, trigger *models.FlowTrigger, ev *event.WebhookEvent, result models.EventHandlerResult) (err error) {
	runID := uuid.NewString()
	logger := log.FromContext(ctx, c.logger).With("run_id", runID)

	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "run",
		attribute.String(otelhelper.RunIDKey, runID),
		attribute.String(otelhelper.TriggerIDKey, trigger.ID),
		attribute.String(otelhelper.WorkspaceIDKey, trigger.WorkspaceID),
		attribute.String(otelhelper.NodeIDKey, trigger.NodeID),
	)
	defer func() {
		if err != nil {
			otelhelper.SetError(span, err)
		}

		span.End()
	}()

	client, err := c.clients.ForInstallation(ctx, installationID(trigger, ev))
	if err != nil {
		return fmt.Errorf("failed to get installation client: %w", err)
	}

	if result.ReactionNodeID != "" {
		if err := client.AddReaction(ctx, result.ReactionNodeID, vcs.ReactionEyes); err != nil {
			return err
		}
	}

	reporter := NewReporter(client, ev, c.now, logger)

	ws, err := c.workspaces.Workspace(ctx, trigger.WorkspaceID)
	if err != nil {
		return err
	}

	logger.Info("Starting flow run")

	request := engine.NewStartRequest(runID, trigger.NodeID, ws, ev)
	if err := c.engine.CreateAndStartAct(ctx, request, reporter); err != nil {
		return fmt.Errorf("flow run %s failed: %w", runID, err)
	}

	if err := reporter.Finish(ctx); err != nil {
		return err
	}

	logger.Info("Flow run finished", "flow_error", reporter.HasFlowError())

	return nil
}

// installationID prefers the installation that sent the delivery.
func installationID(trigger *models.FlowTrigger, ev *event.WebhookEvent) int64 {
	if ev != nil && ev.Data != nil && ev.Data.Installation != nil && ev.Data.Installation.ID != 0 {
		return ev.Data.Installation.ID
	}

	return trigger.Configuration.InstallationID
}
