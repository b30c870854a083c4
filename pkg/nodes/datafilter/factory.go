package datafilter

import (
	"context"

	"github.com/dukex/weatherflow/pkg/protocol"
)

// DataFilterNodeFactory creates DataFilterNode instances.
type DataFilterNodeFactory struct{}

// NewDataFilterNodeFactory creates a new factory instance.
func NewDataFilterNodeFactory() protocol.NodeFactory {
	return &DataFilterNodeFactory{}
}

// Create creates a new DataFilterNode instance.
func (f *DataFilterNodeFactory) Create(ctx context.Context, id string, config map[string]any, deps protocol.Dependencies) (protocol.Node, error) {
	return NewDataFilterNode(id, config, deps)
}

// ID returns the factory ID.
func (f *DataFilterNodeFactory) ID() string {
	return NodeType
}

// Name returns the factory name.
func (f *DataFilterNodeFactory) Name() string {
	return "Data Filter"
}

// Description returns the factory description.
func (f *DataFilterNodeFactory) Description() string {
	return "Forwards numeric payloads strictly greater than a threshold and suppresses the rest"
}

// Schema returns the JSON schema for Data Filter node configuration.
func (f *DataFilterNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"threshold": map[string]any{
				"type":        "number",
				"description": "Payloads must be strictly greater than this value to pass",
				"default":     0,
				"examples":    []float64{0, 5, 22.5},
			},
		},
		"examples": []map[string]any{
			{"threshold": 5},
		},
	}
}
