package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
)

// ExecutionRepository handles execution record database operations.
type ExecutionRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, dialect: dialect, logger: logger}
}

const selectExecutionColumns = `
	SELECT
		id
	  , workflow_id
	  , version
	  , status
	  , started_at
	  , finished_at
	  , duration_ms
	FROM workflow_executions
`

// Create inserts a new execution record.
func (r *ExecutionRepository) Create(ctx context.Context, record *models.ExecutionRecord) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO workflow_executions (id, workflow_id, version, status, started_at, finished_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`),
		record.ID,
		record.WorkflowID,
		record.Version,
		string(record.Status),
		r.dialect.Time(record.StartedAt),
		r.nullableTime(record),
		record.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution record: %w", err)
	}

	return nil
}

// Update rewrites status, finished_at and duration_ms of an existing record.
func (r *ExecutionRepository) Update(ctx context.Context, record *models.ExecutionRecord) error {
	result, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE workflow_executions SET status = $1, finished_at = $2, duration_ms = $3 WHERE id = $4
	`),
		string(record.Status),
		r.nullableTime(record),
		record.DurationMs,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update execution record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("Update", record.ID, persistence.ErrExecutionNotFound)
	}

	return nil
}

// GetByID returns an execution record.
func (r *ExecutionRepository) GetByID(ctx context.Context, executionID string) (*models.ExecutionRecord, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectExecutionColumns+" WHERE id = $1"), executionID)

	record, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", executionID, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution record: %w", err)
	}

	return record, nil
}

// ListByWorkflow returns the newest records of a workflow first.
func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRecord, error) {
	query := selectExecutionColumns + " WHERE workflow_id = $1 ORDER BY started_at DESC, id ASC LIMIT $2"

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), workflowID, persistence.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query execution records: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	records := make([]*models.ExecutionRecord, 0)

	for rows.Next() {
		record, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating execution records: %w", err)
	}

	return records, nil
}

func (r *ExecutionRepository) nullableTime(record *models.ExecutionRecord) any {
	if record.FinishedAt == nil {
		return nil
	}

	return r.dialect.Time(*record.FinishedAt)
}

func scanExecution(row rowScanner) (*models.ExecutionRecord, error) {
	var (
		record     models.ExecutionRecord
		status     string
		durationMs sql.NullInt64
	)

	err := row.Scan(
		&record.ID,
		&record.WorkflowID,
		&record.Version,
		&status,
		timeColumn{&record.StartedAt},
		nullTimeColumn{&record.FinishedAt},
		&durationMs,
	)
	if err != nil {
		return nil, err
	}

	record.Status = models.ExecutionStatus(status)

	if durationMs.Valid {
		record.DurationMs = &durationMs.Int64
	}

	return &record, nil
}
