// Package flow loads and validates flow definition files.
package flow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dukex/weatherflow/pkg/models"
	"github.com/dukex/weatherflow/pkg/registry"
)

var (
	ErrInvalidFlow       = errors.New("invalid flow definition")
	ErrUnknownEndpoint   = errors.New("connection references an unknown node")
	ErrUnsupportedFormat = errors.New("unsupported flow file format")
	ErrCycle             = errors.New("connections form a cycle")
	ErrNotInputNode      = errors.New("connection targets a node that accepts no input")
)

// Format is the encoding of a flow definition.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads and decodes the flow file at path. It does not validate it.
func Load(path string) (*models.FlowDefinition, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow file: %w", err)
	}

	definition, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if definition.Name == "" {
		definition.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return definition, nil
}

// Parse decodes a flow definition. Unknown fields are rejected.
func Parse(data []byte, format Format) (*models.FlowDefinition, error) {
	definition := &models.FlowDefinition{}

	switch format {
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		if err := decoder.Decode(definition); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFlow, err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()

		if err := decoder.Decode(definition); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFlow, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return definition, nil
}

// Validator checks flow definitions against struct rules, the wiring and the node registry.
type Validator struct {
	validate *validator.Validate
	registry *registry.Registry
}

func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		registry: reg,
	}
}

// Validate returns every problem found, joined into one error wrapping ErrInvalidFlow.
func (v *Validator) Validate(definition *models.FlowDefinition) error {
	if definition == nil {
		return fmt.Errorf("%w: empty definition", ErrInvalidFlow)
	}

	if err := v.validate.Struct(definition); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFlow, err)
	}

	var problems []error

	for i, connection := range definition.Connections {
		if definition.Node(connection.Source) == nil {
			problems = append(problems, fmt.Errorf("connection %d: %w: source %q", i, ErrUnknownEndpoint, connection.Source))
		}

		target := definition.Node(connection.Target)
		if target == nil {
			problems = append(problems, fmt.Errorf("connection %d: %w: target %q", i, ErrUnknownEndpoint, connection.Target))

			continue
		}

		if v.registry == nil {
			continue
		}

		// Unregistered types are reported by the config check below.
		if accepts, err := v.registry.AcceptsInput(target.Type); err == nil && !accepts {
			problems = append(problems, fmt.Errorf("connection %d: %w: %q is a %s node", i, ErrNotInputNode, target.ID, target.Type))
		}
	}

	if path := findCycle(definition); path != nil {
		problems = append(problems, fmt.Errorf("%w: %s", ErrCycle, strings.Join(path, " -> ")))
	}

	if v.registry != nil {
		for _, node := range definition.Nodes {
			if err := v.registry.ValidateConfig(node.Type, node.Config); err != nil {
				problems = append(problems, fmt.Errorf("node %q: %w", node.ID, err))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidFlow, errors.Join(problems...))
	}

	return nil
}

// findCycle returns the node IDs of one cycle in the wiring, or nil.
// Delivery blocks the sender until the receiver has handled the message, so a cycle would deadlock.
func findCycle(definition *models.FlowDefinition) []string {
	const (
		unvisited = iota
		visiting
		visited
	)

	state := make(map[string]int, len(definition.Nodes))

	var stack []string

	var visit func(id string) []string

	visit = func(id string) []string {
		state[id] = visiting
		stack = append(stack, id)

		for _, connection := range definition.Targets(id) {
			switch state[connection.Target] {
			case visiting:
				for i, seen := range stack {
					if seen == connection.Target {
						return append(append([]string(nil), stack[i:]...), connection.Target)
					}
				}
			case unvisited:
				if cycle := visit(connection.Target); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = visited

		return nil
	}

	for _, node := range definition.Nodes {
		if state[node.ID] == unvisited {
			if cycle := visit(node.ID); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}

// LoadAndValidate is Load followed by Validate.
func (v *Validator) LoadAndValidate(path string) (*models.FlowDefinition, error) {
	definition, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := v.Validate(definition); err != nil {
		return nil, err
	}

	return definition, nil
}
