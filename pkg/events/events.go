// Package events defines the messages exchanged over the event bus: webhook
// deliveries waiting for dispatch and the act lifecycle of the remote engine.
package events

import (
	"time"

	"github.com/giselles-ai/giselle-sub003/pkg/engine"
	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topics.
const (
	DeliveriesTopic  = "giselle.github.deliveries"
	ActRequestsTopic = "giselle.acts.requests"
	ActEventsTopic   = "giselle.acts.events"
)

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	DeliveryReceivedEvent EventType = "github.delivery.received"

	ActStartRequestedEvent EventType = "act.start_requested"
	ActCreatedEvent        EventType = "act.created"
	ActFinishedEvent       EventType = "act.finished"

	SequenceStartedEvent   EventType = "sequence.started"
	SequenceCompletedEvent EventType = "sequence.completed"
	SequenceFailedEvent    EventType = "sequence.failed"
	SequenceSkippedEvent   EventType = "sequence.skipped"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func newBase(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// DeliveryReceived carries a verified webhook delivery to the dispatcher.
type DeliveryReceived struct {
	BaseEvent

	Delivery *event.WebhookEvent `json:"delivery"`
}

func NewDeliveryReceived(delivery *event.WebhookEvent) *DeliveryReceived {
	return &DeliveryReceived{BaseEvent: newBase(DeliveryReceivedEvent), Delivery: delivery}
}

func (e DeliveryReceived) GetType() EventType {
	return DeliveryReceivedEvent
}

type ActStartRequested struct {
	BaseEvent

	Request engine.StartRequest `json:"request"`
}

func NewActStartRequested(request engine.StartRequest) *ActStartRequested {
	return &ActStartRequested{BaseEvent: newBase(ActStartRequestedEvent), Request: request}
}

func (e ActStartRequested) GetType() EventType {
	return ActStartRequestedEvent
}

// ActCreated is emitted once the engine has laid out the act's sequences.
type ActCreated struct {
	BaseEvent

	RunID string     `json:"runId"`
	Act   models.Act `json:"act"`
}

func NewActCreated(runID string, act models.Act) *ActCreated {
	return &ActCreated{BaseEvent: newBase(ActCreatedEvent), RunID: runID, Act: act}
}

func (e ActCreated) GetType() EventType {
	return ActCreatedEvent
}

// SequenceLifecycle reports one sequence transition. Type tells which one.
type SequenceLifecycle struct {
	BaseEvent

	RunID    string          `json:"runId"`
	Sequence models.Sequence `json:"sequence"`
}

func NewSequenceLifecycle(eventType EventType, runID string, sequence models.Sequence) *SequenceLifecycle {
	return &SequenceLifecycle{BaseEvent: newBase(eventType), RunID: runID, Sequence: sequence}
}

func (e SequenceLifecycle) GetType() EventType {
	return e.Type
}

// ActFinished ends an act. A non-empty Error means the act could not run.
type ActFinished struct {
	BaseEvent

	RunID string `json:"runId"`
	Error string `json:"error,omitempty"`
}

func NewActFinished(runID string, actErr error) *ActFinished {
	finished := &ActFinished{BaseEvent: newBase(ActFinishedEvent), RunID: runID}
	if actErr != nil {
		finished.Error = actErr.Error()
	}

	return finished
}

func (e ActFinished) GetType() EventType {
	return ActFinishedEvent
}

// New returns an empty value to decode a message of eventType into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case DeliveryReceivedEvent:
		return &DeliveryReceived{}, true
	case ActStartRequestedEvent:
		return &ActStartRequested{}, true
	case ActCreatedEvent:
		return &ActCreated{}, true
	case SequenceStartedEvent, SequenceCompletedEvent, SequenceFailedEvent, SequenceSkippedEvent:
		return &SequenceLifecycle{}, true
	case ActFinishedEvent:
		return &ActFinished{}, true
	default:
		return nil, false
	}
}
