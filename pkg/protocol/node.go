// Package protocol defines the contracts between flow nodes and the host that runs them.
package protocol

import (
	"context"

	"github.com/dukex/weatherflow/pkg/models"
)

// SendFunc forwards a message to every node wired to the sender's output.
type SendFunc func(msg *models.Message)

// DoneFunc acknowledges that a node finished with an input message.
// A nil error means the message was handled, whatever the outcome.
type DoneFunc func(err error)

// Node is a running node instance.
type Node interface {
	ID() string
	Type() string
}

// InputHandler is implemented by nodes that react to delivered messages.
// The host calls HandleInput with at most one message at a time per instance.
type InputHandler interface {
	HandleInput(ctx context.Context, msg *models.Message, send SendFunc, done DoneFunc)
}

// Starter is implemented by nodes that produce messages on their own.
// Start is called once after the node is wired into the flow.
type Starter interface {
	Start(ctx context.Context, send SendFunc) error
}

// Closer is implemented by nodes that hold resources.
// Close must be safe to call more than once.
type Closer interface {
	Close(ctx context.Context) error
}

// PortDescriber is implemented by nodes that declare their ports.
type PortDescriber interface {
	InputPorts() []models.InputPort
	OutputPorts() []models.OutputPort
}

// InputCapability is implemented by factories whose nodes never accept input.
// Factories that do not implement it are assumed to produce input handlers.
type InputCapability interface {
	AcceptsInput() bool
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration
	Create(ctx context.Context, id string, config map[string]any, deps Dependencies) (Node, error)

	// ID returns the unique identifier for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}
