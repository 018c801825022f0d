package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/giselles-ai/giselle-sub003/pkg/events"
)

type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topics     map[string]message.Subscriber
	logger     *slog.Logger

	mu            sync.RWMutex
	subscriptions map[events.EventType]EventHandler
}

type Option func(*WatermillEventBus)

// WithTopicSubscriber consumes topic through sub instead of the default
// subscriber, e.g. to read it outside the shared consumer group.
func WithTopicSubscriber(topic string, sub message.Subscriber) Option {
	return func(eb *WatermillEventBus) {
		eb.topics[topic] = sub
	}
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger, opts ...Option) *WatermillEventBus {
	eb := &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		topics:        make(map[string]message.Subscriber),
		logger:        logger.With("module", "eventbus"),
		subscriptions: make(map[events.EventType]EventHandler),
	}

	for _, opt := range opts {
		opt(eb)
	}

	return eb
}

func (eb *WatermillEventBus) subscriberFor(topic string) message.Subscriber {
	if sub, ok := eb.topics[topic]; ok {
		return sub
	}

	return eb.subscriber
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, topic, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(topic, msg)
}

// Subscribe consumes topic in the background. Messages are handled one at a time
// in arrival order. Every message is acked, including the ones that fail: nothing
// on the bus is redelivered.
func (eb *WatermillEventBus) Subscribe(ctx context.Context, topic string) error {
	messages, err := eb.subscriberFor(topic).Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eb.dispatch(ctx, msg)
		}
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	eb.mu.RLock()
	handler, exists := eb.subscriptions[eventType]
	eb.mu.RUnlock()

	if !exists {
		msg.Ack()

		return
	}

	event, known := events.New(eventType)
	if !known {
		eb.logger.Warn("Dropping message of unknown type", "event_type", eventType, "message_id", msg.UUID)
		msg.Ack()

		return
	}

	if err := json.Unmarshal(msg.Payload, event); err != nil {
		eb.logger.Error("Failed to decode message", "event_type", eventType, "message_id", msg.UUID, "error", err)
		msg.Ack()

		return
	}

	if err := handler(ctx, event); err != nil {
		eb.logger.Error("Handler failed", "event_type", eventType, "message_id", msg.UUID, "error", err)
		msg.Ack()

		return
	}

	msg.Ack()
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	for _, sub := range eb.topics {
		if sub == eb.subscriber {
			continue
		}

		if err := sub.Close(); err != nil {
			return err
		}
	}

	return eb.subscriber.Close()
}
