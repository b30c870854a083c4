package weatherformatter

import (
	"context"

	"github.com/dukex/weatherflow/pkg/protocol"
)

// WeatherFormatterNodeFactory creates WeatherFormatterNode instances.
type WeatherFormatterNodeFactory struct{}

// NewWeatherFormatterNodeFactory creates a new factory instance.
func NewWeatherFormatterNodeFactory() protocol.NodeFactory {
	return &WeatherFormatterNodeFactory{}
}

// Create creates a new WeatherFormatterNode instance.
func (f *WeatherFormatterNodeFactory) Create(ctx context.Context, id string, config map[string]any, deps protocol.Dependencies) (protocol.Node, error) {
	return NewWeatherFormatterNode(ctx, id, config, deps)
}

// ID returns the factory ID.
func (f *WeatherFormatterNodeFactory) ID() string {
	return NodeType
}

// Name returns the factory name.
func (f *WeatherFormatterNodeFactory) Name() string {
	return "Weather Formatter"
}

// Description returns the factory description.
func (f *WeatherFormatterNodeFactory) Description() string {
	return "Formats tokyo-weather snapshots into time, Japanese date and a Japanese weather summary"
}

// Schema returns the JSON schema for Weather Formatter node configuration.
func (f *WeatherFormatterNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}
