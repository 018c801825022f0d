package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/giselles-ai/giselle-sub003/pkg/channels/gochannel"
	"github.com/giselles-ai/giselle-sub003/pkg/channels/kafka"
	"github.com/giselles-ai/giselle-sub003/pkg/eventbus"
	"github.com/giselles-ai/giselle-sub003/pkg/events"
)

const serviceName = "giselle-github-webhook"

// NewEventBus opens the bus named by provider: "gochannel" or "kafka".
func NewEventBus(provider string, brokers []string, logger *slog.Logger) (*eventbus.WatermillEventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, err
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, brokers, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		// Lifecycle messages are routed to the replica that started the run, so
		// every replica reads the whole act events topic.
		actEvents, err := kafka.CreateSubscriber(wmLogger, brokers, kafka.InstanceGroup(serviceName))
		if err != nil {
			_ = pub.Close()
			_ = sub.Close()

			return nil, fmt.Errorf("failed to create Kafka act events subscriber: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger,
			eventbus.WithTopicSubscriber(events.ActEventsTopic, actEvents)), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
