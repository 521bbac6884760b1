package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
)

// ExecutionRepository handles execution record file operations.
type ExecutionRepository struct {
	root string // File system root for storing execution records
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) path(executionID string) string {
	return filepath.Join(er.root, executionsDir, executionID+".json")
}

// Create writes a new execution record. Existing records are never overwritten.
func (er *ExecutionRepository) Create(_ context.Context, record *models.ExecutionRecord) error {
	err := validateID(record.ID)
	if err != nil {
		return persistence.NewExecutionError("Create", record.ID, err)
	}

	err = publishJSON(er.path(record.ID), record)
	if err != nil {
		return fmt.Errorf("failed to write execution record %s: %w", record.ID, err)
	}

	return nil
}

// Update replaces an existing execution record.
func (er *ExecutionRepository) Update(ctx context.Context, record *models.ExecutionRecord) error {
	_, err := er.GetByID(ctx, record.ID)
	if err != nil {
		return err
	}

	err = writeJSON(er.path(record.ID), record)
	if err != nil {
		return fmt.Errorf("failed to update execution record %s: %w", record.ID, err)
	}

	return nil
}

// GetByID retrieves an execution record by its ID from the file system.
func (er *ExecutionRepository) GetByID(_ context.Context, executionID string) (*models.ExecutionRecord, error) {
	if validateID(executionID) != nil {
		return nil, persistence.NewExecutionError("GetByID", executionID, persistence.ErrExecutionNotFound)
	}

	var record models.ExecutionRecord

	err := readJSON(er.path(executionID), &record)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewExecutionError("GetByID", executionID, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to read execution record %s: %w", executionID, err)
	}

	return &record, nil
}

// ListByWorkflow scans all records and keeps the ones of the workflow, newest first.
func (er *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRecord, error) {
	limit = persistence.ClampLimit(limit)

	jsonFiles, err := fs.Glob(os.DirFS(filepath.Join(er.root, executionsDir)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	records := make([]*models.ExecutionRecord, 0)

	for _, file := range jsonFiles {
		record, err := er.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if record.WorkflowID == workflowID {
			records = append(records, record)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}
