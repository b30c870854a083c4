package protocol

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/weatherflow/pkg/fetch"
	"github.com/dukex/weatherflow/pkg/models"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// StatusReporter receives the status side-channel of a node.
type StatusReporter interface {
	ReportStatus(ctx context.Context, nodeID string, status models.Status)
}

// StatusReporterFunc adapts a function to StatusReporter.
type StatusReporterFunc func(ctx context.Context, nodeID string, status models.Status)

func (f StatusReporterFunc) ReportStatus(ctx context.Context, nodeID string, status models.Status) {
	f(ctx, nodeID, status)
}

// Dependencies contains what the host hands every node at construction.
type Dependencies struct {
	Logger  *slog.Logger
	Status  StatusReporter
	Fetcher fetch.Fetcher
	Tracer  trace.Tracer
	Now     func() time.Time
}

// WithDefaults fills unset dependencies with inert implementations.
func (d Dependencies) WithDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	if d.Status == nil {
		d.Status = StatusReporterFunc(func(context.Context, string, models.Status) {})
	}

	if d.Fetcher == nil {
		d.Fetcher = fetch.NewHTTPFetcher(nil)
	}

	if d.Tracer == nil {
		d.Tracer = noop.NewTracerProvider().Tracer("weatherflow")
	}

	if d.Now == nil {
		d.Now = time.Now
	}

	return d
}

// NodeLogger returns the dependency logger scoped to a node instance.
func (d Dependencies) NodeLogger(nodeID, nodeType string) *slog.Logger {
	return d.Logger.With("module", "node", "node_id", nodeID, "node_type", nodeType)
}
