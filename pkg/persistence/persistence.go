// Package persistence provides the data storage abstraction layer for workflows, their
// version log and execution records.
package persistence

import (
	"context"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
)

// MaxListLimit bounds every listing so responses stay small.
const MaxListLimit = 200

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	VersionRepository() VersionRepository
	ExecutionRepository() ExecutionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow metadata.
type WorkflowRepository interface {
	// Create stores a new workflow together with its first version in one atomic unit.
	Create(ctx context.Context, workflow *models.Workflow, initial *models.Version) error

	// GetByID returns ErrWorkflowNotFound when no workflow has the id.
	GetByID(ctx context.Context, id string) (*models.Workflow, error)

	// List returns metadata ordered by updated_at descending, at most limit entries.
	List(ctx context.Context, limit int) ([]*models.Workflow, error)

	// UpdateMetadata persists name, description and updated_at only.
	UpdateMetadata(ctx context.Context, workflow *models.Workflow) error
}

// VersionRepository stores the append-only version log.
type VersionRepository interface {
	// Append assigns version.Version = current + 1 and moves the workflow pointer to it
	// with a compare-and-swap on the stored number. Losing a race returns ErrVersionConflict
	// and leaves nothing written.
	Append(ctx context.Context, version *models.Version) error

	// Latest returns the highest numbered version, or ErrVersionNotFound.
	Latest(ctx context.Context, workflowID string) (*models.Version, error)

	// GetByNumber returns ErrVersionNotFound when the workflow has no such version.
	GetByNumber(ctx context.Context, workflowID string, number int) (*models.Version, error)

	// List returns summaries ordered by version descending.
	List(ctx context.Context, workflowID string) ([]*models.VersionSummary, error)
}

// ExecutionRepository stores run records.
type ExecutionRepository interface {
	Create(ctx context.Context, record *models.ExecutionRecord) error

	// Update returns ErrExecutionNotFound when the record does not exist.
	Update(ctx context.Context, record *models.ExecutionRecord) error

	GetByID(ctx context.Context, id string) (*models.ExecutionRecord, error)

	// ListByWorkflow returns records ordered by started_at descending, at most limit entries.
	ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRecord, error)
}

// ClampLimit maps a requested page size onto (0, MaxListLimit].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return MaxListLimit
	}

	return limit
}
