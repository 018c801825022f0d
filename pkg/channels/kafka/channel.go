// Package kafka provides the delivery bus shared by several webhook servers and
// a remote execution engine.
package kafka

import (
	"errors"
	"strings"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/google/uuid"
)

var ErrNoBrokers = errors.New("no kafka brokers configured")

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(raw string) []string {
	var brokers []string

	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}

	return brokers
}

// SharedGroup is the consumer group every replica of serviceName joins, so each
// message is handled by exactly one of them.
func SharedGroup(serviceName string) string {
	return "cg-" + serviceName
}

// InstanceGroup is a consumer group private to this process, so it sees every
// message of the topics it subscribes to.
func InstanceGroup(serviceName string) string {
	return "cg-" + serviceName + "-" + uuid.NewString()
}

// CreateChannel connects a publisher and a subscriber in SharedGroup(serviceName).
func CreateChannel(logger watermill.LoggerAdapter, brokers []string, serviceName string) (*kafka.Publisher, *kafka.Subscriber, error) {
	subscriber, err := CreateSubscriber(logger, brokers, SharedGroup(serviceName))
	if err != nil {
		return nil, nil, err
	}

	saramaPublisherConfig := sarama.NewConfig()
	saramaPublisherConfig.Producer.Return.Successes = true
	saramaPublisherConfig.Producer.RequiredAcks = sarama.WaitForAll

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaPublisherConfig,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		_ = subscriber.Close()

		return nil, nil, err
	}

	return publisher, subscriber, nil
}

// CreateSubscriber connects a subscriber in consumerGroup, starting from the
// newest offset.
func CreateSubscriber(logger watermill.LoggerAdapter, brokers []string, consumerGroup string) (*kafka.Subscriber, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	saramaSubscriberConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaSubscriberConfig.Consumer.Offsets.Initial = sarama.OffsetNewest

	return kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaSubscriberConfig,
			ConsumerGroup:         consumerGroup,
			OTELEnabled:           true,
		},
		logger,
	)
}
