package sqlbase

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of database/sql.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	workflowRepo  *WorkflowRepository
	versionRepo   *VersionRepository
	executionRepo *ExecutionRepository
}

// NewPersistence wires the shared repositories to an open, migrated database.
func NewPersistence(logger *slog.Logger, db *sql.DB, dialect Dialect) *Persistence {
	return &Persistence{
		db:            db,
		logger:        logger,
		workflowRepo:  NewWorkflowRepository(db, dialect, logger),
		versionRepo:   NewVersionRepository(db, dialect, logger),
		executionRepo: NewExecutionRepository(db, dialect, logger),
	}
}

// DB returns the underlying connection pool.
func (p *Persistence) DB() *sql.DB {
	return p.db
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// WorkflowRepository returns the workflow repository.
func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

// VersionRepository returns the version log repository.
func (p *Persistence) VersionRepository() persistence.VersionRepository {
	return p.versionRepo
}

// ExecutionRepository returns the execution record repository.
func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executionRepo
}

type rowScanner interface {
	Scan(dest ...any) error
}

func closeRows(ctx context.Context, logger *slog.Logger, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
