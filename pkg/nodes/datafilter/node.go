// Package datafilter provides a threshold gate node that forwards numeric payloads above a limit.
package datafilter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukex/weatherflow/pkg/models"
	"github.com/dukex/weatherflow/pkg/protocol"
)

const (
	NodeType          = "data-filter"
	InputPortMain     = "main"
	OutputPortPassed  = "passed"
	warnNotANumber    = "Payload is not a number"
	statusPassedLabel = "passed: "
	statusFilterLabel = "filtered: "
)

// DataFilterNode forwards a message unchanged when its payload is strictly greater than threshold.
type DataFilterNode struct {
	id        string
	threshold float64
	status    protocol.StatusReporter
	logger    *slog.Logger
}

// NewDataFilterNode creates a new threshold gate.
func NewDataFilterNode(id string, config map[string]any, deps protocol.Dependencies) (*DataFilterNode, error) {
	deps = deps.WithDefaults()

	threshold := 0.0

	if raw, ok := config["threshold"]; ok && raw != nil {
		value, ok := models.AsNumber(raw)
		if !ok {
			return nil, errors.New("threshold must be a number")
		}

		threshold = value
	}

	return &DataFilterNode{
		id:        id,
		threshold: threshold,
		status:    deps.Status,
		logger:    deps.NodeLogger(id, NodeType),
	}, nil
}

// ID returns the node ID.
func (n *DataFilterNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *DataFilterNode) Type() string {
	return NodeType
}

// Threshold returns the configured limit.
func (n *DataFilterNode) Threshold() float64 {
	return n.threshold
}

// HandleInput gates a single message.
func (n *DataFilterNode) HandleInput(ctx context.Context, msg *models.Message, send protocol.SendFunc, done protocol.DoneFunc) {
	defer done(nil)

	value, ok := models.AsNumber(msg.Payload)
	if !ok {
		n.logger.WarnContext(ctx, warnNotANumber, "msg_id", msg.ID)
		n.status.ReportStatus(ctx, n.id, models.StatusWarning(warnNotANumber))

		return
	}

	if value > n.threshold {
		send(msg)
		n.status.ReportStatus(ctx, n.id, models.StatusOK(statusPassedLabel+models.FormatNumber(value)))

		return
	}

	n.status.ReportStatus(ctx, n.id, models.StatusError(statusFilterLabel+models.FormatNumber(value)))
}

// InputPorts returns the input ports for the node.
func (n *DataFilterNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Numeric values to compare against the threshold",
				Schema:      map[string]any{"type": "number"},
			},
		},
	}
}

// OutputPorts returns the output ports for the node.
func (n *DataFilterNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortPassed),
				NodeID:      n.id,
				Name:        OutputPortPassed,
				Description: "Messages whose payload exceeded the threshold, unchanged",
			},
		},
	}
}
