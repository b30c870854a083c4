package timestampmerge

import (
	"context"

	"github.com/dukex/weatherflow/pkg/protocol"
)

// TimestampMergeNodeFactory creates TimestampMergeNode instances.
type TimestampMergeNodeFactory struct{}

// NewTimestampMergeNodeFactory creates a new factory instance.
func NewTimestampMergeNodeFactory() protocol.NodeFactory {
	return &TimestampMergeNodeFactory{}
}

// Create creates a new TimestampMergeNode instance.
func (f *TimestampMergeNodeFactory) Create(ctx context.Context, id string, config map[string]any, deps protocol.Dependencies) (protocol.Node, error) {
	return NewTimestampMergeNode(id, config, deps)
}

// ID returns the factory ID.
func (f *TimestampMergeNodeFactory) ID() string {
	return NodeType
}

// Name returns the factory name.
func (f *TimestampMergeNodeFactory) Name() string {
	return "Timestamp Merge"
}

// Description returns the factory description.
func (f *TimestampMergeNodeFactory) Description() string {
	return "Retains the latest timestamp (port 0 or topic 'timestamp') and emits it with each string (port 1 or topic 'string')"
}

// Schema returns the JSON schema for Timestamp Merge node configuration.
func (f *TimestampMergeNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}
