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

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	root  string // File system root for storing workflows
	locks *keyedMutex
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string, locks *keyedMutex) *WorkflowRepository {
	return &WorkflowRepository{root: root, locks: locks}
}

func (wr *WorkflowRepository) path(workflowID string) string {
	return filepath.Join(wr.root, workflowsDir, workflowID+".json")
}

// Create writes version 1 and then the workflow document. A failed workflow write
// removes the version again so no orphan snapshot is left behind.
func (wr *WorkflowRepository) Create(_ context.Context, workflow *models.Workflow, initial *models.Version) error {
	err := validateID(workflow.ID)
	if err != nil {
		return persistence.NewWorkflowError("Create", workflow.ID, err)
	}

	unlock := wr.locks.Lock(workflow.ID)
	defer unlock()

	if _, err := os.Stat(wr.path(workflow.ID)); err == nil {
		return persistence.NewWorkflowError("Create", workflow.ID, persistence.ErrWorkflowAlreadyExists)
	}

	versionPath := versionPath(wr.root, workflow.ID, initial.Version)

	err = publishJSON(versionPath, initial)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return persistence.NewWorkflowError("Create", workflow.ID, persistence.ErrWorkflowAlreadyExists)
		}

		return fmt.Errorf("failed to write initial version of workflow %s: %w", workflow.ID, err)
	}

	err = writeJSON(wr.path(workflow.ID), workflow)
	if err != nil {
		_ = os.Remove(versionPath)

		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.Workflow, error) {
	err := validateID(workflowID)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", workflowID, persistence.ErrWorkflowNotFound)
	}

	var workflow models.Workflow

	err = readJSON(wr.path(workflowID), &workflow)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("GetByID", workflowID, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	return &workflow, nil
}

// List returns workflows ordered by updated_at descending.
func (wr *WorkflowRepository) List(ctx context.Context, limit int) ([]*models.Workflow, error) {
	limit = persistence.ClampLimit(limit)

	root := os.DirFS(filepath.Join(wr.root, workflowsDir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflow, err := wr.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				continue
			}

			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	sort.SliceStable(workflows, func(i, j int) bool {
		return workflows[i].UpdatedAt.After(workflows[j].UpdatedAt)
	})

	if len(workflows) > limit {
		workflows = workflows[:limit]
	}

	return workflows, nil
}

// UpdateMetadata rewrites name, description and updated_at of an existing workflow.
func (wr *WorkflowRepository) UpdateMetadata(ctx context.Context, workflow *models.Workflow) error {
	unlock := wr.locks.Lock(workflow.ID)
	defer unlock()

	existing, err := wr.GetByID(ctx, workflow.ID)
	if err != nil {
		return err
	}

	existing.Name = workflow.Name
	existing.Description = workflow.Description
	existing.UpdatedAt = workflow.UpdatedAt

	err = writeJSON(wr.path(workflow.ID), existing)
	if err != nil {
		return fmt.Errorf("failed to update workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// save writes the workflow document. Callers hold the workflow lock.
func (wr *WorkflowRepository) save(workflow *models.Workflow) error {
	return writeJSON(wr.path(workflow.ID), workflow)
}
