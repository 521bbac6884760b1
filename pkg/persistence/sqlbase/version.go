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

// VersionRepository handles the append-only version log.
type VersionRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewVersionRepository creates a new version repository.
func NewVersionRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *VersionRepository {
	return &VersionRepository{db: db, dialect: dialect, logger: logger}
}

const selectVersionColumns = `
	SELECT
		id
	  , workflow_id
	  , version
	  , graph
	  , note
	  , checksum
	  , created_at
	FROM workflow_versions
`

// Append inserts version current+1 and moves the workflow pointer with a compare-and-set.
// The pointer row is locked for the transaction where the engine supports it, so
// concurrent appends queue. A writer that still loses surfaces as ErrVersionConflict.
func (r *VersionRepository) Append(ctx context.Context, version *models.Version) error {
	transaction, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = transaction.Rollback()
	}()

	var current int

	err = transaction.QueryRowContext(ctx, r.dialect.Rebind("SELECT version FROM workflows WHERE id = $1"+r.dialect.RowLock()), version.WorkflowID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.NewWorkflowError("Append", version.WorkflowID, persistence.ErrWorkflowNotFound)
		}

		return fmt.Errorf("failed to read version pointer: %w", err)
	}

	version.Version = current + 1

	err = insertVersion(ctx, transaction, r.dialect, version)
	if err != nil {
		if r.dialect.IsUniqueViolation(err) {
			return persistence.NewVersionError("Append", version.WorkflowID, version.Version, persistence.ErrVersionConflict)
		}

		return fmt.Errorf("failed to insert version: %w", err)
	}

	result, err := transaction.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE workflows SET version = $1, updated_at = $2 WHERE id = $3 AND version = $4
	`),
		version.Version,
		r.dialect.Time(version.CreatedAt),
		version.WorkflowID,
		current,
	)
	if err != nil {
		return fmt.Errorf("failed to move version pointer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewVersionError("Append", version.WorkflowID, version.Version, persistence.ErrVersionConflict)
	}

	err = transaction.Commit()
	if err != nil {
		if r.dialect.IsUniqueViolation(err) {
			return persistence.NewVersionError("Append", version.WorkflowID, version.Version, persistence.ErrVersionConflict)
		}

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Latest returns the highest numbered version of the workflow.
func (r *VersionRepository) Latest(ctx context.Context, workflowID string) (*models.Version, error) {
	query := selectVersionColumns + " WHERE workflow_id = $1 ORDER BY version DESC LIMIT 1"

	version, err := scanVersion(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), workflowID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewVersionError("Latest", workflowID, 0, persistence.ErrVersionNotFound)
		}

		return nil, fmt.Errorf("failed to scan version: %w", err)
	}

	return version, nil
}

// GetByNumber returns a specific version of the workflow.
func (r *VersionRepository) GetByNumber(ctx context.Context, workflowID string, number int) (*models.Version, error) {
	query := selectVersionColumns + " WHERE workflow_id = $1 AND version = $2"

	version, err := scanVersion(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), workflowID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewVersionError("GetByNumber", workflowID, number, persistence.ErrVersionNotFound)
		}

		return nil, fmt.Errorf("failed to scan version: %w", err)
	}

	return version, nil
}

// List returns version summaries ordered by version descending. Graphs are not loaded.
func (r *VersionRepository) List(ctx context.Context, workflowID string) ([]*models.VersionSummary, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
		SELECT id, version, note, checksum, created_at
		FROM workflow_versions
		WHERE workflow_id = $1
		ORDER BY version DESC
	`), workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	summaries := make([]*models.VersionSummary, 0)

	for rows.Next() {
		var summary models.VersionSummary

		err := rows.Scan(&summary.ID, &summary.Version, &summary.Note, &summary.Checksum, timeColumn{&summary.CreatedAt})
		if err != nil {
			return nil, fmt.Errorf("failed to scan version summary: %w", err)
		}

		summaries = append(summaries, &summary)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating versions: %w", err)
	}

	return summaries, nil
}

func scanVersion(row rowScanner) (*models.Version, error) {
	var (
		version models.Version
		graph   []byte
	)

	err := row.Scan(
		&version.ID,
		&version.WorkflowID,
		&version.Version,
		&graph,
		&version.Note,
		&version.Checksum,
		timeColumn{&version.CreatedAt},
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(graph, &version.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	return &version, nil
}
