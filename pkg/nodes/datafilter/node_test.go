package datafilter

import (
	"context"
	"testing"

	"github.com/dukex/weatherflow/pkg/models"
	"github.com/dukex/weatherflow/pkg/nodes/nodetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataFilterNode(t *testing.T) {
	rec := nodetest.NewRecorder()

	node, err := NewDataFilterNode("filter", map[string]any{"threshold": 5.0}, rec.Dependencies())
	require.NoError(t, err)
	assert.Equal(t, "filter", node.ID())
	assert.Equal(t, NodeType, node.Type())
	assert.InDelta(t, 5.0, node.Threshold(), 1e-9)
}

func TestNewDataFilterNode_DefaultThreshold(t *testing.T) {
	node, err := NewDataFilterNode("filter", map[string]any{}, nodetest.NewRecorder().Dependencies())
	require.NoError(t, err)
	assert.Zero(t, node.Threshold())
}

func TestNewDataFilterNode_InvalidThreshold(t *testing.T) {
	_, err := NewDataFilterNode("filter", map[string]any{"threshold": "high"}, nodetest.NewRecorder().Dependencies())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold must be a number")
}

func TestDataFilterNode_HandleInput(t *testing.T) {
	tests := []struct {
		name       string
		threshold  any
		payload    any
		forwarded  bool
		wantStatus models.Status
	}{
		{
			name:       "above threshold is forwarded",
			threshold:  5,
			payload:    10,
			forwarded:  true,
			wantStatus: models.StatusOK("passed: 10"),
		},
		{
			name:       "below threshold is filtered",
			threshold:  5,
			payload:    3,
			wantStatus: models.StatusError("filtered: 3"),
		},
		{
			name:       "equal to threshold is filtered",
			threshold:  5,
			payload:    5.0,
			wantStatus: models.StatusError("filtered: 5"),
		},
		{
			name:       "fractional payload from the bus",
			threshold:  nil,
			payload:    0.5,
			forwarded:  true,
			wantStatus: models.StatusOK("passed: 0.5"),
		},
		{
			name:       "negative payload against default threshold",
			threshold:  nil,
			payload:    -1.0,
			wantStatus: models.StatusError("filtered: -1"),
		},
		{
			name:       "string payload warns",
			threshold:  5,
			payload:    "x",
			wantStatus: models.StatusWarning("Payload is not a number"),
		},
		{
			name:       "numeric string is not a number",
			threshold:  5,
			payload:    "10",
			wantStatus: models.StatusWarning("Payload is not a number"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := nodetest.NewRecorder()

			node, err := NewDataFilterNode("filter", map[string]any{"threshold": tt.threshold}, rec.Dependencies())
			require.NoError(t, err)

			msg := models.NewMessage(tt.payload).WithTopic("sensor")
			node.HandleInput(context.Background(), msg, rec.Send, rec.Done)

			if tt.forwarded {
				require.Len(t, rec.Sent(), 1)
				assert.Same(t, msg, rec.Sent()[0])
				assert.Equal(t, "sensor", rec.Sent()[0].Topic)
			} else {
				assert.Empty(t, rec.Sent())
			}

			assert.Equal(t, []models.Status{tt.wantStatus}, rec.Statuses())
			assert.Equal(t, []error{nil}, rec.Dones())
		})
	}
}

func TestDataFilterNode_Ports(t *testing.T) {
	node, err := NewDataFilterNode("filter", nil, nodetest.NewRecorder().Dependencies())
	require.NoError(t, err)

	require.Len(t, node.InputPorts(), 1)
	assert.Equal(t, "filter:main", node.InputPorts()[0].ID)
	require.Len(t, node.OutputPorts(), 1)
	assert.Equal(t, OutputPortPassed, node.OutputPorts()[0].Name)
}

func TestDataFilterNodeFactory(t *testing.T) {
	factory := NewDataFilterNodeFactory()
	assert.Equal(t, NodeType, factory.ID())
	assert.NotEmpty(t, factory.Name())
	assert.NotEmpty(t, factory.Description())
	assert.Equal(t, "object", factory.Schema()["type"])

	node, err := factory.Create(context.Background(), "f1", map[string]any{"threshold": 1}, nodetest.NewRecorder().Dependencies())
	require.NoError(t, err)
	assert.Equal(t, "f1", node.ID())
}
