// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/dukex/weatherflow/pkg/models"
)

// CreateTestNode creates a test FlowNode with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.FlowNode)) *models.FlowNode {
	node := &models.FlowNode{
		ID:     "node-" + uuid.New().String()[:8],
		Type:   "data-filter",
		Name:   "Test Node",
		Config: map[string]any{"threshold": 20},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node ID.
func WithID(id string) func(*models.FlowNode) {
	return func(n *models.FlowNode) {
		n.ID = id
	}
}

// WithType sets the node type and drops the default config.
func WithType(nodeType string) func(*models.FlowNode) {
	return func(n *models.FlowNode) {
		n.Type = nodeType
		n.Config = nil
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.FlowNode) {
	return func(n *models.FlowNode) {
		n.Config = config
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.FlowNode) {
	return func(n *models.FlowNode) {
		n.Name = name
	}
}

// CreateTestFlow creates a flow holding the given nodes and no connections.
func CreateTestFlow(name string, nodes ...*models.FlowNode) *models.FlowDefinition {
	return &models.FlowDefinition{
		Name:        name,
		Nodes:       nodes,
		Connections: []*models.FlowConnection{},
	}
}

// Connect appends a connection to the flow. A negative port leaves the connection untagged.
func Connect(flow *models.FlowDefinition, source, target string, port int) *models.FlowDefinition {
	connection := &models.FlowConnection{Source: source, Target: target}
	if port >= 0 {
		connection.Port = &port
	}

	flow.Connections = append(flow.Connections, connection)

	return flow
}
