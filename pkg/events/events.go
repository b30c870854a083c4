// Package events defines the node lifecycle notifications published by the engine.
package events

import (
	"time"

	"github.com/dukex/weatherflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every engine event.
const Topic = "weatherflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	NodeStartedEvent        EventType = "node.started"
	NodeStoppedEvent        EventType = "node.stopped"
	NodeStatusReportedEvent EventType = "node.status"
	NodeInputUnackedEvent   EventType = "node.input.unacked"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowName  string         `json:"flow_name,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a new event with a fresh ID and the current time.
func NewBaseEvent(eventType EventType, flowName string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowName:  flowName,
	}
}

type NodeStarted struct {
	BaseEvent

	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
}

func (e NodeStarted) GetType() EventType {
	return NodeStartedEvent
}

type NodeStopped struct {
	BaseEvent

	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
	Error    string `json:"error,omitempty"`
}

func (e NodeStopped) GetType() EventType {
	return NodeStoppedEvent
}

// NodeStatusReported is published every time a node updates its status indicator.
type NodeStatusReported struct {
	BaseEvent

	NodeID   string        `json:"node_id"`
	NodeType string        `json:"node_type"`
	Status   models.Status `json:"status"`
}

func (e NodeStatusReported) GetType() EventType {
	return NodeStatusReportedEvent
}

// NodeInputUnacked is published when a node returns from an input without signalling completion.
type NodeInputUnacked struct {
	BaseEvent

	NodeID    string `json:"node_id"`
	NodeType  string `json:"node_type"`
	MessageID string `json:"message_id"`
	Topic     string `json:"topic,omitempty"`
}

func (e NodeInputUnacked) GetType() EventType {
	return NodeInputUnackedEvent
}
