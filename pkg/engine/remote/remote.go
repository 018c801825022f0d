// Package remote runs acts on an execution engine reachable over the event bus.
// Start requests go out on the requests topic; the engine answers with act and
// sequence lifecycle messages keyed by run id.
package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/giselles-ai/giselle-sub003/pkg/engine"
	"github.com/giselles-ai/giselle-sub003/pkg/eventbus"
	"github.com/giselles-ai/giselle-sub003/pkg/events"
	"github.com/google/uuid"
)

const runBuffer = 64

var lifecycleEvents = []events.EventType{
	events.ActCreatedEvent,
	events.SequenceStartedEvent,
	events.SequenceCompletedEvent,
	events.SequenceFailedEvent,
	events.SequenceSkippedEvent,
	events.ActFinishedEvent,
}

type Engine struct {
	bus    eventbus.EventBus
	logger *slog.Logger

	mu   sync.Mutex
	runs map[string]*activeRun
}

// activeRun is a registered act; done is closed once nothing reads inbox.
type activeRun struct {
	inbox chan any
	done  chan struct{}
}

func New(bus eventbus.EventBus, logger *slog.Logger) *Engine {
	return &Engine{
		bus:    bus,
		logger: logger.With("module", "remote_engine"),
		runs:   make(map[string]*activeRun),
	}
}

// Start routes lifecycle messages from the bus to running acts.
func (e *Engine) Start(ctx context.Context) error {
	for _, eventType := range lifecycleEvents {
		if err := e.bus.Handle(eventType, e.route); err != nil {
			return err
		}
	}

	return e.bus.Subscribe(ctx, events.ActEventsTopic)
}

// CreateAndStartAct publishes the start request and feeds the act's lifecycle to
// observer, one message at a time, until the engine reports the act finished.
func (e *Engine) CreateAndStartAct(ctx context.Context, request engine.StartRequest, observer engine.Observer) error {
	if request.RunID == "" {
		request.RunID = uuid.NewString()
	}

	active := e.register(request.RunID)
	defer e.unregister(request.RunID)

	err := e.bus.Publish(ctx, events.ActRequestsTopic, request.RunID, events.NewActStartRequested(request))
	if err != nil {
		return fmt.Errorf("failed to request act for node %s: %w", request.NodeID, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-active.inbox:
			finished, err := deliver(ctx, msg, observer)
			if err != nil || finished {
				return err
			}
		}
	}
}

func deliver(ctx context.Context, msg any, observer engine.Observer) (bool, error) {
	switch m := msg.(type) {
	case *events.ActCreated:
		return false, observer.ActCreated(ctx, m.Act)
	case *events.SequenceLifecycle:
		switch m.Type {
		case events.SequenceStartedEvent:
			return false, observer.SequenceStarted(ctx, m.Sequence)
		case events.SequenceCompletedEvent:
			return false, observer.SequenceCompleted(ctx, m.Sequence)
		case events.SequenceFailedEvent:
			return false, observer.SequenceFailed(ctx, m.Sequence)
		case events.SequenceSkippedEvent:
			return false, observer.SequenceSkipped(ctx, m.Sequence)
		}
	case *events.ActFinished:
		if m.Error != "" {
			return true, fmt.Errorf("%w: %s", engine.ErrActFailed, m.Error)
		}

		return true, nil
	}

	return false, nil
}

func (e *Engine) route(ctx context.Context, msg any) error {
	runID := runIDOf(msg)

	e.mu.Lock()
	active, ok := e.runs[runID]
	e.mu.Unlock()

	if !ok {
		e.logger.Debug("Ignoring lifecycle message for unknown run", "run_id", runID)

		return nil
	}

	select {
	case active.inbox <- msg:
		return nil
	case <-active.done:
		e.logger.Debug("Dropping lifecycle message for ended run", "run_id", runID)

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runIDOf(msg any) string {
	switch m := msg.(type) {
	case *events.ActCreated:
		return m.RunID
	case *events.SequenceLifecycle:
		return m.RunID
	case *events.ActFinished:
		return m.RunID
	default:
		return ""
	}
}

func (e *Engine) register(runID string) *activeRun {
	active := &activeRun{
		inbox: make(chan any, runBuffer),
		done:  make(chan struct{}),
	}

	e.mu.Lock()
	e.runs[runID] = active
	e.mu.Unlock()

	return active
}

// unregister releases any route call still waiting to hand the run a message.
func (e *Engine) unregister(runID string) {
	e.mu.Lock()
	active, ok := e.runs[runID]
	if ok {
		delete(e.runs, runID)
	}
	e.mu.Unlock()

	if ok {
		close(active.done)
	}
}
