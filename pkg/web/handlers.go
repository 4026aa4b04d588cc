// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/dukex/stepflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService   *services.Workflow
	stepService       *services.Step
	roleService       *services.Role
	connectionService *services.Connection
	validator         *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	stepService *services.Step,
	roleService *services.Role,
	connectionService *services.Connection,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService:   workflowService,
		stepService:       stepService,
		roleService:       roleService,
		connectionService: connectionService,
		validator:         validator,
	}
}

// Register mounts every workflow, step, role and connection endpoint on router.
func (h *APIHandlers) Register(router fiber.Router) {
	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Patch("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/steps", h.AddStep)

	s := router.Group("/steps")
	s.Get("/:id", h.GetStep)
	s.Put("/:id", h.UpdateStep)
	s.Patch("/:id", h.UpdateStep)
	s.Delete("/:id", h.DeleteStep)
	s.Get("/:id/roles", h.GetStepRoles)
	s.Post("/:id/roles", h.AddRole)

	router.Delete("/roles/:id", h.DeleteRole)

	c := router.Group("/connections")
	c.Post("/", h.CreateConnection)
	c.Put("/:id", h.UpdateConnection)
	c.Patch("/:id", h.UpdateConnection)
	c.Delete("/:id", h.DeleteConnection)
}

var errInvalidJSON = errors.New("invalid JSON format")

// bind decodes the JSON body into req and validates it.
func (h *APIHandlers) bind(c fiber.Ctx, req any) error {
	if err := c.Bind().JSON(req); err != nil {
		return errInvalidJSON
	}

	return h.validator.Struct(req)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Stepflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Stepflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

// GetWorkflow returns the composed view: steps with roles, and connections.
func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	view, err := h.workflowService.View(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), req.toService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req UpdateWorkflowRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), c.Params("id"), req.toService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddStep(c fiber.Ctx) error {
	var req CreateStepRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.stepService.Add(c.Context(), c.Params("id"), req.toService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(step)
}

// GetStep returns the step with its roles and outgoing connections.
func (h *APIHandlers) GetStep(c fiber.Ctx) error {
	detail, err := h.stepService.FetchWithConnections(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(detail)
}

func (h *APIHandlers) UpdateStep(c fiber.Ctx) error {
	var req UpdateStepRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.stepService.Update(c.Context(), c.Params("id"), req.toService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) DeleteStep(c fiber.Ctx) error {
	err := h.stepService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetStepRoles(c fiber.Ctx) error {
	roles, err := h.stepService.ListRoles(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(roles)
}

func (h *APIHandlers) AddRole(c fiber.Ctx) error {
	var req RoleRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	role, err := h.roleService.Add(c.Context(), c.Params("id"), req.RoleName)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

func (h *APIHandlers) DeleteRole(c fiber.Ctx) error {
	err := h.roleService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateConnection(c fiber.Ctx) error {
	var req CreateConnectionRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	connection, err := h.connectionService.Create(c.Context(), req.toService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(connection)
}

func (h *APIHandlers) UpdateConnection(c fiber.Ctx) error {
	var req UpdateConnectionRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	connection, err := h.connectionService.Update(c.Context(), c.Params("id"), req.ConditionType)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(connection)
}

func (h *APIHandlers) DeleteConnection(c fiber.Ctx) error {
	err := h.connectionService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
