package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dukex/weatherflow/pkg/channels/gochannel"
	"github.com/dukex/weatherflow/pkg/events"
	"github.com/dukex/weatherflow/pkg/mocks"
	"github.com/dukex/weatherflow/pkg/models"
	"github.com/dukex/weatherflow/pkg/registry"
)

func TestEngine_PublishesEventsWhenStoreFails(t *testing.T) {
	received := make(chan *models.Message, 4)

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterDefaultNodes()
	reg.RegisterNode(&captureFactory{received: received})

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	store := &mocks.MockStatusStore{}
	store.On("Set", mock.Anything, mock.MatchedBy(func(s models.NodeStatus) bool {
		return s.NodeID == "filter" && s.NodeType == "data-filter"
	})).Return(errors.New("redis down"))

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "filter", mock.AnythingOfType("events.NodeStarted")).Return(nil).Once()
	bus.On("Publish", mock.Anything, "sink", mock.AnythingOfType("events.NodeStarted")).Return(nil).Once()
	bus.On("Publish", mock.Anything, "filter", mock.MatchedBy(func(e events.NodeStatusReported) bool {
		return e.FlowName == "events" && e.Status == models.StatusOK("passed: 25")
	})).Return(errors.New("bus unavailable")).Once()
	bus.On("Close").Return(nil).Once()

	eng, err := New(context.Background(), Config{
		Flow: &models.FlowDefinition{
			Name: "events",
			Nodes: []*models.FlowNode{
				{ID: "filter", Type: "data-filter", Config: map[string]any{"threshold": 20}},
				{ID: "sink", Type: captureType},
			},
			Connections: []*models.FlowConnection{{Source: "filter", Target: "sink"}},
		},
		Registry:   reg,
		Publisher:  pub,
		Subscriber: sub,
		EventBus:   bus,
		Status:     store,
	})
	require.NoError(t, err)

	require.NoError(t, eng.Start(context.Background()))
	require.NoError(t, eng.Inject(context.Background(), "filter", models.NewMessage(25.0)))

	select {
	case msg := <-received:
		require.InDelta(t, 25.0, msg.Payload, 1e-9)
	case <-time.After(3 * time.Second):
		t.Fatal("filtered message never reached the sink")
	}

	require.NoError(t, eng.Close(context.Background()))

	bus.AssertExpectations(t)
	store.AssertExpectations(t)
}
