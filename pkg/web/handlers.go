// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/services"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/templates"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/uistate"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	logger          *slog.Logger
	workflowService *services.Workflow
	runService      *services.Run
	templates       *templates.Catalog
	uiState         *uistate.Manager
	validator       *validator.Validate
}

func NewAPIHandlers(
	logger *slog.Logger,
	workflowService *services.Workflow,
	runService *services.Run,
	templates *templates.Catalog,
	uiState *uistate.Manager,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		logger:          logger,
		workflowService: workflowService,
		runService:      runService,
		templates:       templates,
		uiState:         uiState,
		validator:       validator,
	}
}

// Routes mounts every workflow, run, template and ui-state endpoint on router.
func (h *APIHandlers) Routes(router fiber.Router) {
	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Patch("/:id", h.UpdateWorkflow)
	w.Get("/:id/versions", h.GetVersions)
	w.Post("/:id/versions", h.AppendVersion)
	w.Get("/:id/versions/:version", h.GetVersion)
	w.Get("/:id/runs", h.GetRuns)
	w.Post("/:id/runs", h.StartRun)

	router.Get("/runs/:runId", h.GetRun)

	router.Get("/templates", h.GetTemplates)
	router.Get("/templates/:id", h.GetTemplate)

	router.Get("/ui-state/:session", h.GetUIState)
	router.Put("/ui-state/:session", h.PutUIState)

	router.Get("/health", h.HealthCheck)
}

// parseLimit reads the optional limit query parameter; zero means the store default.
func parseLimit(c fiber.Ctx) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return 0, strconv.ErrSyntax
	}

	return limit, nil
}

// body returns the raw request body, treating an empty body as an empty object.
func body(c fiber.Ctx) []byte {
	raw := c.Body()
	if len(raw) == 0 {
		return []byte("{}")
	}

	return raw
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: limit must be a non-negative integer")
	}

	return c.JSON(h.workflowService.List(c.Context(), limit))
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	payload := body(c)

	if err := ValidatePayload(createWorkflowSchema, payload); err != nil {
		return badRequest(c, err.Error())
	}

	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, _, err := h.workflowService.Create(c.Context(), services.CreateWorkflowRequest{
		Name:        req.Name,
		Description: req.Description,
		TemplateID:  req.TemplateID,
		Graph:       req.Graph,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	details, err := h.workflowService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(details)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	if err := ValidatePayload(updateWorkflowSchema, body(c)); err != nil {
		return badRequest(c, err.Error())
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.UpdateMetadata(c.Context(), c.Params("id"), services.UpdateWorkflowRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) GetVersions(c fiber.Ctx) error {
	summaries, err := h.workflowService.ListVersions(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(summaries)
}

func (h *APIHandlers) AppendVersion(c fiber.Ctx) error {
	if err := ValidatePayload(appendVersionSchema, body(c)); err != nil {
		return badRequest(c, err.Error())
	}

	var req AppendVersionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.workflowService.AppendVersion(c.Context(), c.Params("id"), req.Graph, req.Note)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(AppendVersionResponse{
		Version:  result.Version,
		Warnings: result.Warnings,
	})
}

func (h *APIHandlers) GetVersion(c fiber.Ctx) error {
	number, err := strconv.Atoi(c.Params("version"))
	if err != nil {
		return badRequest(c, "Version must be an integer")
	}

	version, err := h.workflowService.GetVersion(c.Context(), c.Params("id"), number)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(version)
}

func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	record, err := h.runService.StartRun(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TransformRunResponse(record))
}

func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: limit must be a non-negative integer")
	}

	records, err := h.runService.ListRuns(c.Context(), c.Params("id"), limit)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(TransformRunResponses(records))
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	record, err := h.runService.GetRun(c.Context(), c.Params("runId"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(TransformRunResponse(record))
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	return c.JSON(h.templates.List())
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	template, ok := h.templates.Get(c.Params("id"))
	if !ok {
		return problem(c, fiber.StatusNotFound, "template_not_found", "template not found")
	}

	return c.JSON(template)
}

func (h *APIHandlers) GetUIState(c fiber.Ctx) error {
	state, err := h.uiState.Load(c.Context(), c.Params("session"))
	if err != nil {
		return h.handleUIStateError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) PutUIState(c fiber.Ctx) error {
	var state models.UIState
	if err := c.Bind().JSON(&state); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	saved, err := h.uiState.Save(c.Context(), c.Params("session"), &state)
	if err != nil {
		return h.handleUIStateError(c, err)
	}

	return c.JSON(saved)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Dashboard API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Dashboard API is healthy"
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
