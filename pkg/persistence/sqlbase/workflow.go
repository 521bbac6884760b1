package sqlbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, dialect: dialect, logger: logger}
}

const selectWorkflowColumns = `
	SELECT
		id
	  , name
	  , slug
	  , description
	  , version
	  , created_at
	  , updated_at
	FROM workflows
`

// Create inserts the workflow row and its first version in one transaction.
func (r *WorkflowRepository) Create(ctx context.Context, workflow *models.Workflow, initial *models.Version) error {
	transaction, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = transaction.Rollback()
	}()

	_, err = transaction.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO workflows (id, name, slug, description, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`),
		workflow.ID,
		workflow.Name,
		workflow.Slug,
		workflow.Description,
		workflow.Version,
		r.dialect.Time(workflow.CreatedAt),
		r.dialect.Time(workflow.UpdatedAt),
	)
	if err != nil {
		if r.dialect.IsUniqueViolation(err) {
			return persistence.NewWorkflowError("Create", workflow.ID, persistence.ErrWorkflowAlreadyExists)
		}

		return fmt.Errorf("failed to insert workflow: %w", err)
	}

	err = insertVersion(ctx, transaction, r.dialect, initial)
	if err != nil {
		if r.dialect.IsUniqueViolation(err) {
			return persistence.NewWorkflowError("Create", workflow.ID, persistence.ErrWorkflowAlreadyExists)
		}

		return fmt.Errorf("failed to insert initial version: %w", err)
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a workflow by its ID.
func (r *WorkflowRepository) GetByID(ctx context.Context, workflowID string) (*models.Workflow, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectWorkflowColumns+" WHERE id = $1"), workflowID)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", workflowID, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// List returns workflows ordered by updated_at descending.
func (r *WorkflowRepository) List(ctx context.Context, limit int) ([]*models.Workflow, error) {
	query := selectWorkflowColumns + " ORDER BY updated_at DESC, id ASC LIMIT $1"

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), persistence.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// UpdateMetadata rewrites name, description and updated_at. The version pointer is untouched.
func (r *WorkflowRepository) UpdateMetadata(ctx context.Context, workflow *models.Workflow) error {
	result, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE workflows SET name = $1, description = $2, updated_at = $3 WHERE id = $4
	`),
		workflow.Name,
		workflow.Description,
		r.dialect.Time(workflow.UpdatedAt),
		workflow.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("UpdateMetadata", workflow.ID, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var workflow models.Workflow

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Slug,
		&workflow.Description,
		&workflow.Version,
		timeColumn{&workflow.CreatedAt},
		timeColumn{&workflow.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}

	return &workflow, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertVersion(ctx context.Context, db execer, dialect Dialect, version *models.Version) error {
	graph, err := json.Marshal(version.Graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	_, err = db.ExecContext(ctx, dialect.Rebind(`
		INSERT INTO workflow_versions (id, workflow_id, version, graph, note, checksum, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`),
		version.ID,
		version.WorkflowID,
		version.Version,
		string(graph),
		version.Note,
		version.Checksum,
		dialect.Time(version.CreatedAt),
	)

	return err
}
