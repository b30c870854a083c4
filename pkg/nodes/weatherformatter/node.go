// Package weatherformatter provides a node that turns weather snapshots into display-ready Japanese text.
package weatherformatter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/weatherflow/pkg/models"
	"github.com/dukex/weatherflow/pkg/protocol"
)

const (
	NodeType            = "weather-formatter"
	InputPortMain       = "main"
	OutputPortFormatted = "formatted"
)

var (
	ErrInvalidInput  = errors.New("invalid input: expected tokyo-weather node output")
	ErrMissingFields = errors.New("missing required fields in input")
)

var requiredFields = []string{"time", "temperature", "humidity", "weatherCode"}

// WeatherFormatterNode replaces a weather snapshot payload with its formatted form.
type WeatherFormatterNode struct {
	id     string
	status protocol.StatusReporter
	logger *slog.Logger
}

// NewWeatherFormatterNode creates a formatter and reports it ready.
func NewWeatherFormatterNode(ctx context.Context, id string, _ map[string]any, deps protocol.Dependencies) (*WeatherFormatterNode, error) {
	deps = deps.WithDefaults()

	node := &WeatherFormatterNode{
		id:     id,
		status: deps.Status,
		logger: deps.NodeLogger(id, NodeType),
	}

	node.status.ReportStatus(ctx, id, models.StatusIdle("Ready"))

	return node, nil
}

// ID returns the node ID.
func (n *WeatherFormatterNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *WeatherFormatterNode) Type() string {
	return NodeType
}

// HandleInput formats the payload in place and forwards the same message.
func (n *WeatherFormatterNode) HandleInput(ctx context.Context, msg *models.Message, send protocol.SendFunc, done protocol.DoneFunc) {
	defer done(nil)

	formatted, err := Format(msg.Payload)
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to format weather data: "+err.Error(), "msg_id", msg.ID)
		n.status.ReportStatus(ctx, n.id, models.StatusError("Error"))

		return
	}

	msg.Payload = formatted
	send(msg)

	n.status.ReportStatus(ctx, n.id, models.StatusOK("Formatted"))
}

// Format validates a snapshot-shaped payload and returns its formatted form.
func Format(payload any) (models.FormattedWeather, error) {
	current, err := currentSection(payload)
	if err != nil {
		return models.FormattedWeather{}, err
	}

	for _, field := range requiredFields {
		if _, ok := current[field]; !ok {
			return models.FormattedWeather{}, fmt.Errorf("%w: current.%s", ErrMissingFields, field)
		}
	}

	isoTime, ok := current["time"].(string)
	if !ok {
		return models.FormattedWeather{}, fmt.Errorf("%w: current.time must be a string", ErrInvalidInput)
	}

	return models.FormattedWeather{
		Time:            FormatTime(isoTime),
		Date:            FormatDate(isoTime),
		WeatherInfoText: WeatherInfoText(current["temperature"], current["humidity"], DescribeWeatherCode(current["weatherCode"])),
	}, nil
}

// currentSection returns the "current" object of the payload as a generic map.
// Typed snapshots are converted through their JSON form so both shapes validate the same way.
func currentSection(payload any) (map[string]any, error) {
	record, ok := payload.(map[string]any)
	if !ok {
		if payload == nil {
			return nil, ErrInvalidInput
		}

		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}

		if err := json.Unmarshal(data, &record); err != nil {
			return nil, ErrInvalidInput
		}
	}

	current, ok := record["current"].(map[string]any)
	if !ok {
		return nil, ErrInvalidInput
	}

	return current, nil
}

// InputPorts returns the input ports for the node.
func (n *WeatherFormatterNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Weather snapshots as produced by the tokyo-weather node",
				Schema: map[string]any{
					"type":     "object",
					"required": []string{"current"},
				},
			},
		},
	}
}

// OutputPorts returns the output ports for the node.
func (n *WeatherFormatterNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortFormatted),
				NodeID:      n.id,
				Name:        OutputPortFormatted,
				Description: "The input message with its payload replaced by time, date and weather_info_text",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"time":              map[string]any{"type": "string"},
						"date":              map[string]any{"type": "string"},
						"weather_info_text": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}
