package web

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukex/weatherflow/pkg/registry"
)

// NewApp builds the fiber application serving the flow API and, when gatherer is set, /metrics.
func NewApp(runtime Runtime, reg *registry.Registry, gatherer prometheus.Gatherer) *fiber.App {
	handlers := NewAPIHandlers(runtime, validator.New(validator.WithRequiredStructEnabled()), reg)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/health", handlers.HealthCheck)
	app.Get("/node-types", handlers.GetNodeTypes)

	n := app.Group("/nodes")
	n.Get("/", handlers.GetNodes)
	n.Get("/:id", handlers.GetNode)
	n.Get("/:id/status", handlers.GetNodeStatus)
	n.Post("/:id/inject", handlers.InjectMessage)

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return app
}
