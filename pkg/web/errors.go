package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/dukex/weatherflow/pkg/engine"
	"github.com/dukex/weatherflow/pkg/status"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func unavailable(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(503).
		WithInstance(c.Path()).
		WithType("flow_unavailable").
		WithDetail(detail)

	return c.Status(fiber.StatusServiceUnavailable).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleEngineError maps engine and status store errors to problem documents.
func handleEngineError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engine.ErrNodeNotFound):
		return notFound(c, "node_not_found", err.Error())
	case errors.Is(err, status.ErrNotFound):
		return notFound(c, "status_not_found", err.Error())
	case errors.Is(err, engine.ErrNotInputNode):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("not_input_node").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)
	case errors.Is(err, engine.ErrClosed), errors.Is(err, engine.ErrNotStarted):
		return unavailable(c, err.Error())
	default:
		return internalError(c, err)
	}
}
