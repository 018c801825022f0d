package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/giselles-ai/giselle-sub003/pkg/channels/gochannel"
	"github.com/giselles-ai/giselle-sub003/pkg/events"
	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub, slog.Default())
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_DeliversToHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)
	received := make(chan *events.DeliveryReceived, 1)

	require.NoError(t, bus.Handle(events.DeliveryReceivedEvent, func(_ context.Context, e any) error {
		received <- e.(*events.DeliveryReceived)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, events.DeliveriesTopic))

	delivery, err := event.Parse("discussion", "d-1", []byte(`{"action":"created","discussion":{"node_id":"D_1"}}`))
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, events.DeliveriesTopic, "d-1", events.NewDeliveryReceived(delivery)))

	select {
	case got := <-received:
		assert.Equal(t, event.DiscussionCreated, got.Delivery.Name)
		assert.Equal(t, "D_1", got.Delivery.Data.Discussion.NodeID)
	case <-time.After(5 * time.Second):
		t.Fatal("delivery was not handled")
	}
}

func TestWatermillEventBus_FailedHandlerDoesNotRedeliver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)

	var calls atomic.Int32

	done := make(chan struct{}, 2)

	require.NoError(t, bus.Handle(events.ActFinishedEvent, func(_ context.Context, e any) error {
		calls.Add(1)
		done <- struct{}{}

		if e.(*events.ActFinished).RunID == "run-1" {
			return errors.New("handler failed")
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, events.ActEventsTopic))

	require.NoError(t, bus.Publish(ctx, events.ActEventsTopic, "run-1", events.NewActFinished("run-1", nil)))
	require.NoError(t, bus.Publish(ctx, events.ActEventsTopic, "run-2", events.NewActFinished("run-2", nil)))

	for range 2 {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("message was not handled")
		}
	}

	assert.Equal(t, int32(2), calls.Load())
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}

func TestWatermillEventBus_TopicSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	instancePub, instanceSub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub, slog.Default(), WithTopicSubscriber(events.ActEventsTopic, instanceSub))
	t.Cleanup(func() { _ = bus.Close() })

	instance := NewWatermillEventBus(instancePub, instanceSub, slog.Default())

	received := make(chan string, 2)

	require.NoError(t, bus.Handle(events.ActFinishedEvent, func(_ context.Context, e any) error {
		received <- e.(*events.ActFinished).RunID

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, events.ActEventsTopic))

	require.NoError(t, bus.Publish(ctx, events.ActEventsTopic, "run-1", events.NewActFinished("run-1", nil)))
	require.NoError(t, instance.Publish(ctx, events.ActEventsTopic, "run-2", events.NewActFinished("run-2", nil)))

	select {
	case runID := <-received:
		assert.Equal(t, "run-2", runID)
	case <-time.After(5 * time.Second):
		t.Fatal("message on the topic subscriber was not handled")
	}

	assert.Empty(t, received)
}
