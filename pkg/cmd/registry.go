package cmd

import (
	"log/slog"

	"github.com/dukex/weatherflow/pkg/registry"
)

// NewRegistry returns a registry holding every built-in node type.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes()

	return reg
}
