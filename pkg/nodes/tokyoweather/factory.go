package tokyoweather

import (
	"context"

	"github.com/dukex/weatherflow/pkg/protocol"
)

// TokyoWeatherNodeFactory creates TokyoWeatherNode instances.
type TokyoWeatherNodeFactory struct{}

// NewTokyoWeatherNodeFactory creates a new factory instance.
func NewTokyoWeatherNodeFactory() protocol.NodeFactory {
	return &TokyoWeatherNodeFactory{}
}

// Create creates a new TokyoWeatherNode instance.
func (f *TokyoWeatherNodeFactory) Create(ctx context.Context, id string, config map[string]any, deps protocol.Dependencies) (protocol.Node, error) {
	return NewTokyoWeatherNode(id, config, deps)
}

// ID returns the factory ID.
func (f *TokyoWeatherNodeFactory) ID() string {
	return NodeType
}

// Name returns the factory name.
func (f *TokyoWeatherNodeFactory) Name() string {
	return "Tokyo Weather"
}

// Description returns the factory description.
func (f *TokyoWeatherNodeFactory) Description() string {
	return "Polls Open-Meteo for the current Tokyo weather and emits a normalized snapshot on every tick"
}

// AcceptsInput reports false: the node is driven by its own schedule.
func (f *TokyoWeatherNodeFactory) AcceptsInput() bool {
	return false
}

// Schema returns the JSON schema for Tokyo Weather node configuration.
func (f *TokyoWeatherNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"interval": map[string]any{
				"type":        "number",
				"description": "Polling interval in seconds; unset or non-positive values use the default",
				"default":     10,
				"examples":    []int{10, 60, 300},
			},
			"base_url": map[string]any{
				"type":        "string",
				"description": "Forecast endpoint; coordinates and fields are always appended",
				"default":     DefaultBaseURL,
				"minLength":   1,
			},
		},
		"examples": []map[string]any{
			{"interval": 10},
			{"interval": 60, "base_url": "http://open-meteo.internal/v1/forecast"},
		},
	}
}
