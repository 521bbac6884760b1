// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
// A blank name is accepted and replaced by the default name.
type CreateWorkflowRequest struct {
	Name        string        `json:"name"                  validate:"max=200"`
	Description string        `json:"description,omitempty" validate:"max=2000"`
	TemplateID  string        `json:"template_id,omitempty" validate:"omitempty,max=64"`
	Graph       *models.Graph `json:"graph,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating workflow metadata.
// All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// AppendVersionRequest represents the request body for saving a new graph snapshot.
type AppendVersionRequest struct {
	Graph models.Graph `json:"graph"`
	Note  string       `json:"note,omitempty" validate:"max=500"`
}

// AppendVersionResponse is the stored version plus integrity warnings about its graph.
type AppendVersionResponse struct {
	Version  *models.Version `json:"version"`
	Warnings []string        `json:"warnings,omitempty"`
}

// RunResponse describes a finished run attempt.
type RunResponse struct {
	RunID      string                 `json:"run_id"`
	WorkflowID string                 `json:"workflow_id"`
	Version    int                    `json:"version"`
	Status     models.ExecutionStatus `json:"status"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt *time.Time             `json:"finished_at"`
	DurationMs *int64                 `json:"duration_ms"`
}

// TransformRunResponse maps an execution record onto the API shape.
func TransformRunResponse(record *models.ExecutionRecord) RunResponse {
	return RunResponse{
		RunID:      record.ID,
		WorkflowID: record.WorkflowID,
		Version:    record.Version,
		Status:     record.Status,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
		DurationMs: record.DurationMs,
	}
}

// TransformRunResponses maps a list of execution records, never returning nil.
func TransformRunResponses(records []*models.ExecutionRecord) []RunResponse {
	responses := make([]RunResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, TransformRunResponse(record))
	}

	return responses
}
