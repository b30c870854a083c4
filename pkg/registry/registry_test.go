package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/weatherflow/pkg/nodes/datafilter"
	"github.com/dukex/weatherflow/pkg/nodes/tokyoweather"
	"github.com/dukex/weatherflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes()

	return registry
}

func TestRegisterDefaultNodes(t *testing.T) {
	registry := newTestRegistry()

	var ids []string
	for _, factory := range registry.GetAvailableNodes() {
		ids = append(ids, factory.ID())
	}

	assert.Equal(t, []string{"data-filter", "timestamp-merge", "tokyo-weather", "weather-formatter"}, ids)
}

func TestRegistry_GetNodeFactory_NotRegistered(t *testing.T) {
	_, err := newTestRegistry().GetNodeFactory("msg-class-lookup")
	require.ErrorIs(t, err, ErrNodeTypeNotRegistered)
}

func TestRegistry_ValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		nodeType string
		config   map[string]any
		wantErr  error
	}{
		{name: "nil config", nodeType: datafilter.NodeType, config: nil},
		{name: "numeric threshold", nodeType: datafilter.NodeType, config: map[string]any{"threshold": 10}},
		{name: "string threshold", nodeType: datafilter.NodeType, config: map[string]any{"threshold": "ten"}, wantErr: ErrInvalidConfig},
		{name: "interval", nodeType: tokyoweather.NodeType, config: map[string]any{"interval": 30.0}},
		{name: "empty base url", nodeType: tokyoweather.NodeType, config: map[string]any{"base_url": ""}, wantErr: ErrInvalidConfig},
		{name: "unknown type", nodeType: "nope", wantErr: ErrNodeTypeNotRegistered},
	}

	registry := newTestRegistry()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.ValidateConfig(tt.nodeType, tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestRegistry_CreateNode(t *testing.T) {
	registry := newTestRegistry()

	node, err := registry.CreateNode(context.Background(), datafilter.NodeType, "filter-1", map[string]any{"threshold": 3}, protocol.Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, "filter-1", node.ID())
	assert.Equal(t, datafilter.NodeType, node.Type())

	_, ok := node.(protocol.InputHandler)
	assert.True(t, ok)
}

func TestRegistry_CreateNode_InvalidConfig(t *testing.T) {
	registry := newTestRegistry()

	node, err := registry.CreateNode(context.Background(), datafilter.NodeType, "filter-1", map[string]any{"threshold": "high"}, protocol.Dependencies{})
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, node)
}

func TestRegistry_RegisterNodeReplaces(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterNode(datafilter.NewDataFilterNodeFactory())
	registry.RegisterNode(datafilter.NewDataFilterNodeFactory())

	assert.Len(t, registry.GetAvailableNodes(), 1)
}

func TestRegistry_HealthCheck(t *testing.T) {
	message, ok := NewRegistry(slog.Default()).HealthCheck()
	assert.False(t, ok)
	assert.Equal(t, "no node types registered", message)

	message, ok = newTestRegistry().HealthCheck()
	assert.True(t, ok)
	assert.Equal(t, "4 node types registered", message)
}

func TestRegistry_AcceptsInput(t *testing.T) {
	reg := NewRegistry(slog.Default())
	reg.RegisterDefaultNodes()

	tests := []struct {
		nodeType string
		want     bool
	}{
		{nodeType: "data-filter", want: true},
		{nodeType: "timestamp-merge", want: true},
		{nodeType: "weather-formatter", want: true},
		{nodeType: "tokyo-weather", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.nodeType, func(t *testing.T) {
			got, err := reg.AcceptsInput(tt.nodeType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := reg.AcceptsInput("class-lookup")
	require.ErrorIs(t, err, ErrNodeTypeNotRegistered)
}
