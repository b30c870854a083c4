// Package timestampmerge provides a two-input node that pairs text with the latest timestamp seen.
package timestampmerge

import (
	"context"
	"log/slog"

	"github.com/dukex/weatherflow/pkg/models"
	"github.com/dukex/weatherflow/pkg/protocol"
)

const (
	NodeType = "timestamp-merge"

	TopicTimestamp = "timestamp"
	TopicString    = "string"

	PortTimestamp = 0
	PortString    = 1

	InputPortTimestamp = "timestamp"
	InputPortString    = "string"
	OutputPortMerged   = "merged"

	warnNoTimestamp = "No timestamp available"
)

// MergedPayload is the payload emitted for each string input once a timestamp is known.
type MergedPayload struct {
	Timestamp any `json:"timestamp"`
	Text      any `json:"text"`
}

// TimestampMergeNode retains the latest timestamp input and attaches it to each string input.
// The host serialises deliveries, so latestTimestamp is not locked.
type TimestampMergeNode struct {
	id              string
	latestTimestamp any
	hasTimestamp    bool
	status          protocol.StatusReporter
	logger          *slog.Logger
}

// NewTimestampMergeNode creates a new merge node in the awaiting-timestamp state.
func NewTimestampMergeNode(id string, _ map[string]any, deps protocol.Dependencies) (*TimestampMergeNode, error) {
	deps = deps.WithDefaults()

	return &TimestampMergeNode{
		id:     id,
		status: deps.Status,
		logger: deps.NodeLogger(id, NodeType),
	}, nil
}

// ID returns the node ID.
func (n *TimestampMergeNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *TimestampMergeNode) Type() string {
	return NodeType
}

// LatestTimestamp returns the retained timestamp and whether one is set.
func (n *TimestampMergeNode) LatestTimestamp() (any, bool) {
	return n.latestTimestamp, n.hasTimestamp
}

// HandleInput dispatches on topic or port.
// Messages matching neither input are ignored without completing them.
func (n *TimestampMergeNode) HandleInput(ctx context.Context, msg *models.Message, send protocol.SendFunc, done protocol.DoneFunc) {
	switch {
	case isTimestampInput(msg):
		n.latestTimestamp = msg.Payload
		n.hasTimestamp = msg.Payload != nil
		n.status.ReportStatus(ctx, n.id, models.StatusOK("timestamp updated"))
		done(nil)

	case isStringInput(msg):
		if n.hasTimestamp {
			send(models.NewMessage(MergedPayload{
				Timestamp: n.latestTimestamp,
				Text:      msg.Payload,
			}))
			n.status.ReportStatus(ctx, n.id, models.StatusOK("sent"))
		} else {
			n.logger.WarnContext(ctx, warnNoTimestamp, "msg_id", msg.ID)
			n.status.ReportStatus(ctx, n.id, models.StatusWarning(warnNoTimestamp))
		}

		done(nil)

	default:
		n.logger.DebugContext(ctx, "Ignoring message on unknown input", "msg_id", msg.ID, "topic", msg.Topic)
	}
}

func isTimestampInput(msg *models.Message) bool {
	return msg.Topic == TopicTimestamp || msg.ArrivedOn(PortTimestamp)
}

func isStringInput(msg *models.Message) bool {
	return msg.Topic == TopicString || msg.ArrivedOn(PortString)
}

// InputPorts returns the input ports for the node.
func (n *TimestampMergeNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortTimestamp),
				NodeID:      n.id,
				Name:        InputPortTimestamp,
				Index:       PortTimestamp,
				Description: "Timestamps to retain; also selected by topic 'timestamp'",
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortString),
				NodeID:      n.id,
				Name:        InputPortString,
				Index:       PortString,
				Description: "Text to pair with the latest timestamp; also selected by topic 'string'",
			},
		},
	}
}

// OutputPorts returns the output ports for the node.
func (n *TimestampMergeNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortMerged),
				NodeID:      n.id,
				Name:        OutputPortMerged,
				Description: "Text paired with the latest timestamp",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"timestamp": map[string]any{},
						"text":      map[string]any{},
					},
				},
			},
		},
	}
}
