package models

import "strings"

// Port represents a connection point on a node.
type Port struct {
	ID          string         `json:"id"`      // Globally unique: "{nodeID}:{portName}"
	NodeID      string         `json:"node_id"` // Which node this port belongs to
	Name        string         `json:"name"`    // Port name (unique within node)
	Index       int            `json:"index"`   // Wire index stamped into Message.Port
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema,omitempty"`
}

// InputPort is a port messages arrive on.
type InputPort struct {
	Port
}

// OutputPort is a port messages leave from.
type OutputPort struct {
	Port
}

// ParsePortID parses a port ID in format "{node_id}:{port_name}" into components.
func ParsePortID(portID string) (string, string, bool) {
	return strings.Cut(portID, ":")
}

// MakePortID creates a port ID from node ID and port name.
func MakePortID(nodeID, portName string) string {
	return nodeID + ":" + portName
}
