// Package models defines the core domain models for versioned workflow graphs
package models

import (
	"strings"
	"time"
)

// DefaultWorkflowName is used when a workflow is created without a usable name.
const DefaultWorkflowName = "Untitled workflow"

// Workflow represents a named automation unit whose graph lives in an append-only version log.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Version     int       `json:"version"` // Number of the most recently appended version
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WorkflowName trims the given name and falls back to DefaultWorkflowName when it is blank.
func WorkflowName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return DefaultWorkflowName
	}

	return trimmed
}
