// Package registry maps node type tags to the factories that build them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/weatherflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrNodeTypeNotRegistered = errors.New("node type not registered")
	ErrInvalidConfig         = errors.New("invalid node configuration")
)

type Registry struct {
	logger        *slog.Logger
	mu            sync.RWMutex
	nodeFactories map[string]protocol.NodeFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:        log.With("module", "registry"),
		nodeFactories: make(map[string]protocol.NodeFactory),
	}
}

// RegisterNode adds a factory under its ID, replacing any factory registered before.
func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodeFactories[factory.ID()] = factory
	r.logger.Debug("Registered node type", "type", factory.ID())
}

// GetNodeFactory returns the factory registered for nodeType.
func (r *Registry) GetNodeFactory(nodeType string) (protocol.NodeFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNodeTypeNotRegistered, nodeType)
	}

	return factory, nil
}

// GetAvailableNodes returns every registered factory sorted by ID.
func (r *Registry) GetAvailableNodes() []protocol.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.NodeFactory, 0, len(r.nodeFactories))
	for _, factory := range r.nodeFactories {
		factories = append(factories, factory)
	}

	sort.Slice(factories, func(i, j int) bool {
		return factories[i].ID() < factories[j].ID()
	})

	return factories
}

// ValidateConfig checks config against the JSON schema of the node type.
func (r *Registry) ValidateConfig(nodeType string, config map[string]any) error {
	factory, err := r.GetNodeFactory(nodeType)
	if err != nil {
		return err
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("validate %s config: %w", nodeType, err)
	}

	if !result.Valid() {
		var violations []string
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}

		return fmt.Errorf("%w for %s: %s", ErrInvalidConfig, nodeType, strings.Join(violations, "; "))
	}

	return nil
}

// CreateNode validates config and builds a node instance.
func (r *Registry) CreateNode(ctx context.Context, nodeType, id string, config map[string]any, deps protocol.Dependencies) (protocol.Node, error) {
	factory, err := r.GetNodeFactory(nodeType)
	if err != nil {
		return nil, err
	}

	if err := r.ValidateConfig(nodeType, config); err != nil {
		return nil, err
	}

	node, err := factory.Create(ctx, id, config, deps)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, id, err)
	}

	return node, nil
}

// AcceptsInput reports whether nodes of the given type handle incoming messages.
func (r *Registry) AcceptsInput(nodeType string) (bool, error) {
	factory, err := r.GetNodeFactory(nodeType)
	if err != nil {
		return false, err
	}

	if capability, ok := factory.(protocol.InputCapability); ok {
		return capability.AcceptsInput(), nil
	}

	return true, nil
}

// HealthCheck reports whether any node type is registered.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.nodeFactories) == 0 {
		return "no node types registered", false
	}

	return fmt.Sprintf("%d node types registered", len(r.nodeFactories)), true
}
