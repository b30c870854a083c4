package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/weatherflow/pkg/channels/kafka"
	"github.com/dukex/weatherflow/pkg/cmd"
	"github.com/dukex/weatherflow/pkg/engine"
	"github.com/dukex/weatherflow/pkg/eventbus"
	"github.com/dukex/weatherflow/pkg/events"
	"github.com/dukex/weatherflow/pkg/flow"
	"github.com/dukex/weatherflow/pkg/log"
	"github.com/dukex/weatherflow/pkg/metric"
	"github.com/dukex/weatherflow/pkg/otelhelper"
	"github.com/dukex/weatherflow/pkg/web"
)

const (
	defaultPort            = 9091
	defaultShutdownTimeout = 10 * time.Second
)

type runOptions struct {
	FlowPath        string
	EventBus        string
	KafkaBrokers    []string
	StatusStore     string
	RedisURL        string
	Port            int
	Tracing         bool
	ShutdownTimeout time.Duration
}

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run a flow and serve its API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "flow",
				Aliases:  []string{"f"},
				Usage:    "Path to the flow definition (yaml or json)",
				Required: true,
				Sources:  cli.EnvVars("FLOW_FILE"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Message bus type (gochannel, kafka)",
				Value:   cmd.ProviderGoChannel,
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers, used with the kafka event bus",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "status-store",
				Usage:   "Node status store (memory, redis)",
				Value:   cmd.StoreMemory,
				Sources: cli.EnvVars("STATUS_STORE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL, used with the redis status store",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.DurationFlag{
				Name:    "shutdown-timeout",
				Usage:   "Time allowed for nodes to stop",
				Value:   defaultShutdownTimeout,
				Sources: cli.EnvVars("SHUTDOWN_TIMEOUT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("weatherflow")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runFlow(ctx, logger, runOptions{
				FlowPath:        command.String("flow"),
				EventBus:        command.String("event-bus"),
				KafkaBrokers:    kafka.ParseBrokers(command.String("kafka-brokers")),
				StatusStore:     command.String("status-store"),
				RedisURL:        command.String("redis-url"),
				Port:            int(command.Int("port")),
				Tracing:         command.Bool("tracing"),
				ShutdownTimeout: command.Duration("shutdown-timeout"),
			})
		},
	}
}

// runFlow serves the flow until ctx is done, then stops the API and the engine.
func runFlow(ctx context.Context, logger *slog.Logger, opts runOptions) error {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	registry := cmd.NewRegistry(logger)

	definition, err := flow.NewValidator(registry).LoadAndValidate(opts.FlowPath)
	if err != nil {
		return fmt.Errorf("failed to load flow: %w", err)
	}

	logger = logger.With("flow", definition.Name)
	logger.InfoContext(ctx, "Initializing flow", "nodes", len(definition.Nodes), "connections", len(definition.Connections))

	var tracer trace.Tracer

	if opts.Tracing {
		tracerProvider, err := otelhelper.NewTracer(ctx, "weatherflow")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Failed to shutdown tracer provider", "error", err)
			}
		}()

		tracer = tracerProvider.Tracer
	}

	store, err := cmd.NewStatusStore(ctx, logger, opts.StatusStore, opts.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create status store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close status store", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(opts.EventBus, logger, opts.KafkaBrokers)
	if err != nil {
		return err
	}

	if err := subscribeEventLog(ctx, logger, eventBus); err != nil {
		_ = eventBus.Close()

		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	publisher, subscriber, err := cmd.NewPubSub(opts.EventBus, logger, opts.KafkaBrokers)
	if err != nil {
		_ = eventBus.Close()

		return err
	}

	metrics := metric.NewMetrics()

	eng, err := engine.New(ctx, engine.Config{
		Flow:       definition,
		Registry:   registry,
		Publisher:  publisher,
		Subscriber: subscriber,
		EventBus:   eventBus,
		Status:     store,
		Metrics:    metrics,
		Logger:     logger,
		Tracer:     tracer,
	})
	if err != nil {
		_ = publisher.Close()
		_ = subscriber.Close()
		_ = eventBus.Close()

		return fmt.Errorf("failed to create engine: %w", err)
	}

	shutdown := func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()

		return eng.Close(closeCtx)
	}

	if err := eng.Start(ctx); err != nil {
		return errors.Join(fmt.Errorf("failed to start engine: %w", err), shutdown())
	}

	app := web.NewApp(eng, registry, metrics.Registry())

	listenErr := make(chan error, 1)

	go func() {
		listenErr <- app.Listen(":"+strconv.Itoa(opts.Port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	logger.InfoContext(ctx, "Flow running", "port", opts.Port)

	var serveErr error

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-listenErr:
		serveErr = fmt.Errorf("api server stopped: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Failed to stop api server", "error", err)
	}

	return errors.Join(serveErr, shutdown())
}

// subscribeEventLog logs the lifecycle events that need operator attention.
func subscribeEventLog(ctx context.Context, logger *slog.Logger, bus eventbus.EventBus) error {
	if err := bus.Handle(events.NodeStoppedEvent, func(_ context.Context, event any) error {
		stopped, ok := event.(*events.NodeStopped)
		if ok && stopped.Error != "" {
			logger.Warn("Node stopped with error", "node_id", stopped.NodeID, "error", stopped.Error)
		}

		return nil
	}); err != nil {
		return err
	}

	if err := bus.Handle(events.NodeInputUnackedEvent, func(_ context.Context, event any) error {
		if unacked, ok := event.(*events.NodeInputUnacked); ok {
			logger.Debug("Input returned without done", "node_id", unacked.NodeID, "message_id", unacked.MessageID)
		}

		return nil
	}); err != nil {
		return err
	}

	return bus.Subscribe(ctx)
}
