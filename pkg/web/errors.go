package web

import (
	"errors"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/services"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/uistate"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

const problemContentType = "application/problem+json"

func problem(c fiber.Ctx, status int, problemType, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(p, problemContentType)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

// internalError logs err and answers with a generic problem; error text never reaches the client.
func (h *APIHandlers) internalError(c fiber.Ctx, err error) error {
	h.logger.ErrorContext(c.Context(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)

	return problem(c, fiber.StatusInternalServerError, "internal_error", "an unexpected error occurred")
}

// handleServiceError provides typed error handling for service layer errors.
func (h *APIHandlers) handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "version_conflict", err.Error())

	case persistence.IsWorkflowNotFound(err):
		return problem(c, fiber.StatusNotFound, "workflow_not_found", "workflow not found")

	case persistence.IsVersionNotFound(err):
		return problem(c, fiber.StatusNotFound, "version_not_found", "version not found")

	case persistence.IsExecutionNotFound(err):
		return problem(c, fiber.StatusNotFound, "execution_not_found", "run not found")

	case services.IsPersistenceError(err):
		// the service layer already logged the store failure
		return problem(c, fiber.StatusInternalServerError, "persistence_error", "the workflow store is unavailable")

	default:
		return h.internalError(c, err)
	}
}

func (h *APIHandlers) handleUIStateError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, uistate.ErrInvalidSession), errors.Is(err, uistate.ErrInvalidState):
		return badRequest(c, err.Error())
	default:
		return h.internalError(c, err)
	}
}
