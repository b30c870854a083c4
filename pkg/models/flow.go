package models

// FlowNode is one node instance in a flow definition.
type FlowNode struct {
	ID     string         `json:"id"     yaml:"id"     validate:"required"`
	Type   string         `json:"type"   yaml:"type"   validate:"required"`
	Name   string         `json:"name"   yaml:"name"`
	Config map[string]any `json:"config" yaml:"config"`
}

// FlowConnection wires the output of one node into an input of another.
type FlowConnection struct {
	Source string `json:"source"         yaml:"source" validate:"required"`
	Target string `json:"target"         yaml:"target" validate:"required,nefield=Source"`
	Port   *int   `json:"port,omitempty" yaml:"port"   validate:"omitempty,min=0"` // Stamped into Message.Port on delivery
}

// FlowDefinition is the read-only description of the nodes to run and how they are wired.
type FlowDefinition struct {
	Name        string            `json:"name"        yaml:"name"`
	Nodes       []*FlowNode       `json:"nodes"       yaml:"nodes"       validate:"required,min=1,unique=ID,dive"`
	Connections []*FlowConnection `json:"connections" yaml:"connections" validate:"dive"`
}

// Node returns the node with the given ID, or nil.
func (f *FlowDefinition) Node(id string) *FlowNode {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}

// Targets returns the connections leaving the given node.
func (f *FlowDefinition) Targets(source string) []*FlowConnection {
	var out []*FlowConnection

	for _, c := range f.Connections {
		if c.Source == source {
			out = append(out, c)
		}
	}

	return out
}
