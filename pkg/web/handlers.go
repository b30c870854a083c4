package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/dukex/weatherflow/pkg/registry"
	"github.com/dukex/weatherflow/pkg/status"
)

type APIHandlers struct {
	runtime   Runtime
	validator *validator.Validate
	registry  *registry.Registry
}

func NewAPIHandlers(runtime Runtime, validator *validator.Validate, registry *registry.Registry) *APIHandlers {
	return &APIHandlers{
		runtime:   runtime,
		validator: validator,
		registry:  registry,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()

	statusCheck := "status store reachable"

	_, err := h.runtime.Statuses(c.Context())
	storeOk := err == nil

	if !storeOk {
		statusCheck = err.Error()
	}

	health := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && storeOk {
		health = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": health,
		"flow":   h.runtime.FlowName(),
		"nodes":  len(h.runtime.Nodes()),
		"checkers": fiber.Map{
			"registry":     registryCheck,
			"status_store": statusCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	factories := h.registry.GetAvailableNodes()

	types := make([]NodeTypeResponse, 0, len(factories))
	for _, factory := range factories {
		types = append(types, NodeTypeResponse{
			Type:        factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return c.JSON(types)
}

func (h *APIHandlers) GetNodes(c fiber.Ctx) error {
	statuses, err := h.runtime.Statuses(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	byNode := make(map[string]int, len(statuses))
	for i, s := range statuses {
		byNode[s.NodeID] = i
	}

	nodes := h.runtime.Nodes()
	response := make([]NodeResponse, 0, len(nodes))

	for _, info := range nodes {
		node := NodeResponse{NodeInfo: info}
		if i, ok := byNode[info.ID]; ok {
			node.Status = &statuses[i]
		}

		response = append(response, node)
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetNode(c fiber.Ctx) error {
	info, err := h.runtime.Node(c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	node := NodeResponse{NodeInfo: info}

	reported, err := h.runtime.Status(c.Context(), info.ID)
	switch {
	case err == nil:
		node.Status = &reported
	case !errors.Is(err, status.ErrNotFound):
		return handleEngineError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) GetNodeStatus(c fiber.Ctx) error {
	reported, err := h.runtime.Status(c.Context(), c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(reported)
}

func (h *APIHandlers) InjectMessage(c fiber.Ctx) error {
	nodeID := c.Params("id")
	if nodeID == "" {
		return badRequest(c, "Node ID is required")
	}

	var req InjectMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	msg, err := req.toMessage()
	if err != nil {
		return badRequest(c, err.Error())
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	if err := h.runtime.Inject(c.Context(), nodeID, msg); err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(InjectMessageResponse{ID: msg.ID, NodeID: nodeID})
}
