// Package dispatcher routes a webhook delivery to every flow trigger registered
// for its repository and runs each match in isolation.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/giselles-ai/giselle-sub003/pkg/github/handlers"
	"github.com/giselles-ai/giselle-sub003/pkg/log"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/otelhelper"
	"github.com/giselles-ai/giselle-sub003/pkg/trigger"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TriggerIndex lists the triggers registered for a repository.
type TriggerIndex interface {
	TriggerIDs(ctx context.Context, repositoryNodeID string) ([]string, error)
}

type TriggerStore interface {
	Get(ctx context.Context, flowTriggerID string) (*models.FlowTrigger, error)
}

// Runner performs one flow run for a matched trigger.
type Runner interface {
	Run(ctx context.Context, flowTrigger *models.FlowTrigger, ev *event.WebhookEvent, result models.EventHandlerResult) error
}

type Dispatcher struct {
	index    TriggerIndex
	triggers TriggerStore
	runner   Runner
	logger   *slog.Logger
	tracer   trace.Tracer
	envelope *gojsonschema.Schema

	inflight sync.WaitGroup
}

func New(index TriggerIndex, triggers TriggerStore, runner Runner, logger *slog.Logger) (*Dispatcher, error) {
	envelope, err := compileEnvelope()
	if err != nil {
		return nil, fmt.Errorf("failed to compile delivery envelope schema: %w", err)
	}

	return &Dispatcher{
		index:    index,
		triggers: triggers,
		runner:   runner,
		logger:   logger.With("module", "dispatcher"),
		tracer:   otelhelper.Tracer("giselle-dispatcher"),
		envelope: envelope,
	}, nil
}

// Dispatch handles one delivery and returns once every run it started has
// ended. Deliveries that are unsupported, malformed or unknown to the index are
// dropped without error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *event.WebhookEvent) {
	if ev == nil || !event.IsSupported(ev.Name) {
		return
	}

	logger := log.FromContext(ctx, d.logger).With("event", ev.Name, "delivery_id", ev.DeliveryID)

	if err := validateEnvelope(d.envelope, ev.Payload); err != nil {
		logger.Debug("Ignoring delivery without repository", "reason", err)

		return
	}

	repositoryNodeID := ev.RepositoryNodeID()

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatch",
		attribute.String(otelhelper.EventNameKey, string(ev.Name)),
		attribute.String(otelhelper.DeliveryIDKey, ev.DeliveryID),
		attribute.String(otelhelper.RepositoryKey, repositoryNodeID),
	)
	defer span.End()

	flowTriggerIDs, err := d.index.TriggerIDs(ctx, repositoryNodeID)
	if err != nil {
		logger.Error("Failed to resolve flow triggers", "repository_node_id", repositoryNodeID, "error", err)
		otelhelper.SetError(span, err)

		return
	}

	if len(flowTriggerIDs) == 0 {
		logger.Debug("No flow triggers registered for repository", "repository_node_id", repositoryNodeID)

		return
	}

	var wg sync.WaitGroup

	for _, flowTriggerID := range flowTriggerIDs {
		wg.Add(1)

		go func() {
			defer wg.Done()

			d.runTrigger(ctx, flowTriggerID, ev, logger.With("trigger_id", flowTriggerID))
		}()
	}

	wg.Wait()
}

// Enqueue dispatches ev in the background. Wait blocks until every enqueued
// delivery is done.
func (d *Dispatcher) Enqueue(ctx context.Context, ev *event.WebhookEvent) {
	d.inflight.Add(1)

	go func() {
		defer d.inflight.Done()

		d.Dispatch(context.WithoutCancel(ctx), ev)
	}()
}

func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// runTrigger is the failure boundary of one trigger: errors and panics are
// logged here and never reach sibling triggers.
func (d *Dispatcher) runTrigger(ctx context.Context, flowTriggerID string, ev *event.WebhookEvent, logger *slog.Logger) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "trigger", attribute.String(otelhelper.TriggerIDKey, flowTriggerID))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			logger.Error("Flow trigger run panicked", "error", err)
			otelhelper.SetError(span, err)
		}
	}()

	flowTrigger, err := d.triggers.Get(ctx, flowTriggerID)
	if trigger.IsNotFound(err) {
		logger.Debug("Flow trigger not found")

		return
	}

	if err != nil {
		logger.Error("Failed to load flow trigger", "error", err)
		otelhelper.SetError(span, err)

		return
	}

	if !flowTrigger.Runnable() {
		logger.Debug("Flow trigger disabled or not a github trigger")

		return
	}

	logger = logger.With("workspace_id", flowTrigger.WorkspaceID, "node_id", flowTrigger.NodeID)
	span.SetAttributes(
		attribute.String(otelhelper.WorkspaceIDKey, flowTrigger.WorkspaceID),
		attribute.String(otelhelper.NodeIDKey, flowTrigger.NodeID),
	)

	for _, result := range handlers.Evaluate(ev, flowTrigger.Configuration.Event) {
		if err := d.runner.Run(log.WithLogger(ctx, logger), flowTrigger, ev, result); err != nil {
			logger.Error("Flow run failed", "error", err)
			otelhelper.SetError(span, err)
		}
	}
}
