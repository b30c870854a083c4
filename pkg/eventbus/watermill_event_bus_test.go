package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/dukex/weatherflow/pkg/events"
	"github.com/dukex/weatherflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 10}, watermill.NopLogger{})
	bus := NewWatermillEventBus(pubSub, pubSub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.NodeStatusReported, 1)
	require.NoError(t, bus.Handle(events.NodeStatusReportedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.NodeStatusReported)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "formatter", events.NodeStatusReported{
		BaseEvent: events.NewBaseEvent(events.NodeStatusReportedEvent, "tokyo"),
		NodeID:    "formatter",
		NodeType:  "weather-formatter",
		Status:    models.StatusOK("Formatted"),
	}))

	select {
	case event := <-received:
		assert.Equal(t, "formatter", event.NodeID)
		assert.Equal(t, models.StatusOK("Formatted"), event.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestWatermillEventBus_UnhandledEventIsSkipped(t *testing.T) {
	bus := newTestBus(t)

	started := make(chan *events.NodeStarted, 1)
	require.NoError(t, bus.Handle(events.NodeStartedEvent, func(_ context.Context, event any) error {
		started <- event.(*events.NodeStarted)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "weather", events.NodeStopped{
		BaseEvent: events.NewBaseEvent(events.NodeStoppedEvent, "tokyo"),
		NodeID:    "weather",
	}))
	require.NoError(t, bus.Publish(ctx, "weather", events.NodeStarted{
		BaseEvent: events.NewBaseEvent(events.NodeStartedEvent, "tokyo"),
		NodeID:    "weather",
	}))

	select {
	case event := <-started:
		assert.Equal(t, "weather", event.NodeID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}

func TestDecodeEvent_Unknown(t *testing.T) {
	_, err := decodeEvent("node.unknown", []byte(`{}`))
	require.ErrorIs(t, err, ErrUnknownEventType)
}
