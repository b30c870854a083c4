// Package web provides the HTTP API for inspecting and feeding a running flow.
package web

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukex/weatherflow/pkg/engine"
	"github.com/dukex/weatherflow/pkg/models"
)

// Runtime is the part of the engine the API uses.
type Runtime interface {
	FlowName() string
	Nodes() []engine.NodeInfo
	Node(nodeID string) (engine.NodeInfo, error)
	Status(ctx context.Context, nodeID string) (models.NodeStatus, error)
	Statuses(ctx context.Context) ([]models.NodeStatus, error)
	Inject(ctx context.Context, nodeID string, msg *models.Message) error
}

// InjectMessageRequest is the body of POST /nodes/:id/inject.
type InjectMessageRequest struct {
	ID      string          `json:"_msgid"          validate:"omitempty,max=128"`
	Payload json.RawMessage `json:"payload"         validate:"required"`
	Topic   string          `json:"topic,omitempty" validate:"omitempty,max=256"`
	Port    *int            `json:"_port,omitempty" validate:"omitempty,min=0"`
}

// InjectMessageResponse acknowledges an accepted message.
type InjectMessageResponse struct {
	ID     string `json:"_msgid"`
	NodeID string `json:"node_id"`
}

// NodeTypeResponse describes a registered node type.
type NodeTypeResponse struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema,omitempty"`
}

// NodeResponse is a running node with its last reported status, if any.
type NodeResponse struct {
	engine.NodeInfo

	Status *models.NodeStatus `json:"status,omitempty"`
}

// toMessage decodes the payload the same way the bus does, so numbers become float64.
func (r InjectMessageRequest) toMessage() (*models.Message, error) {
	var payload any
	if err := json.Unmarshal(r.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	return &models.Message{
		ID:      r.ID,
		Payload: payload,
		Topic:   r.Topic,
		Port:    r.Port,
	}, nil
}
