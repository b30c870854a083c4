// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/dukex/weatherflow/pkg/channels/gochannel"
	"github.com/dukex/weatherflow/pkg/channels/kafka"
	"github.com/dukex/weatherflow/pkg/eventbus"
)

const (
	ProviderGoChannel = "gochannel"
	ProviderKafka     = "kafka"

	serviceName = "weatherflow"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

// NewPubSub creates the publisher and subscriber carrying node messages.
func NewPubSub(provider string, logger *slog.Logger, brokers []string) (message.Publisher, message.Subscriber, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case ProviderGoChannel:
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, nil, err
		}

		return pub, sub, nil
	case ProviderKafka:
		pub, sub, err := kafka.CreateChannel(wmLogger, serviceName, brokers)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return pub, sub, nil
	default:
		return nil, nil, fmt.Errorf("%w: event bus %q", ErrUnsupportedProvider, provider)
	}
}

// NewEventBus creates the bus carrying node lifecycle and status events.
func NewEventBus(provider string, logger *slog.Logger, brokers []string) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case ProviderGoChannel:
		pub, sub, err := gochannel.CreateEventChannel(wmLogger)
		if err != nil {
			return nil, err
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case ProviderKafka:
		pub, sub, err := kafka.CreateChannel(wmLogger, serviceName+"-events", brokers)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka event bus: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("%w: event bus %q", ErrUnsupportedProvider, provider)
	}
}
