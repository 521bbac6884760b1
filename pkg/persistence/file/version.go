package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
)

// VersionRepository stores one JSON document per version under workflow_versions/<workflow id>/.
type VersionRepository struct {
	root      string
	workflows *WorkflowRepository
	locks     *keyedMutex
}

// NewVersionRepository creates a new version repository.
func NewVersionRepository(root string, workflows *WorkflowRepository, locks *keyedMutex) *VersionRepository {
	return &VersionRepository{root: root, workflows: workflows, locks: locks}
}

func versionPath(root, workflowID string, number int) string {
	return filepath.Join(root, versionsDir, workflowID, fmt.Sprintf("%010d.json", number))
}

// Append publishes version current+1 exclusively, then moves the workflow pointer.
// A version file already past the pointer was published by a writer that never moved
// it; the pointer is rolled forward over it and the next number is tried.
func (vr *VersionRepository) Append(ctx context.Context, version *models.Version) error {
	unlock := vr.locks.Lock(version.WorkflowID)
	defer unlock()

	workflow, err := vr.workflows.GetByID(ctx, version.WorkflowID)
	if err != nil {
		return err
	}

	var filePath string

	for {
		version.Version = workflow.Version + 1
		filePath = versionPath(vr.root, version.WorkflowID, version.Version)

		err = publishJSON(filePath, version)
		if err == nil {
			break
		}

		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("failed to write version %d of workflow %s: %w", version.Version, version.WorkflowID, err)
		}

		published, err := vr.numbers(version.WorkflowID)
		if err != nil {
			return err
		}

		if len(published) == 0 || published[0] <= workflow.Version {
			return persistence.NewVersionError("Append", version.WorkflowID, version.Version, persistence.ErrVersionConflict)
		}

		workflow.Version = published[0]
	}

	workflow.Version = version.Version
	workflow.UpdatedAt = version.CreatedAt

	err = vr.workflows.save(workflow)
	if err != nil {
		_ = os.Remove(filePath)

		return fmt.Errorf("failed to move version pointer of workflow %s: %w", version.WorkflowID, err)
	}

	return nil
}

// Latest returns the highest numbered version of the workflow.
func (vr *VersionRepository) Latest(_ context.Context, workflowID string) (*models.Version, error) {
	numbers, err := vr.numbers(workflowID)
	if err != nil {
		return nil, err
	}

	if len(numbers) == 0 {
		return nil, persistence.NewVersionError("Latest", workflowID, 0, persistence.ErrVersionNotFound)
	}

	return vr.read(workflowID, numbers[0])
}

// GetByNumber returns a specific version of the workflow.
func (vr *VersionRepository) GetByNumber(_ context.Context, workflowID string, number int) (*models.Version, error) {
	if validateID(workflowID) != nil || number < 1 {
		return nil, persistence.NewVersionError("GetByNumber", workflowID, number, persistence.ErrVersionNotFound)
	}

	return vr.read(workflowID, number)
}

// List returns version summaries ordered by version descending.
func (vr *VersionRepository) List(_ context.Context, workflowID string) ([]*models.VersionSummary, error) {
	numbers, err := vr.numbers(workflowID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.VersionSummary, 0, len(numbers))

	for _, number := range numbers {
		version, err := vr.read(workflowID, number)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, version.Summary())
	}

	return summaries, nil
}

func (vr *VersionRepository) read(workflowID string, number int) (*models.Version, error) {
	var version models.Version

	err := readJSON(versionPath(vr.root, workflowID, number), &version)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewVersionError("GetByNumber", workflowID, number, persistence.ErrVersionNotFound)
		}

		return nil, fmt.Errorf("failed to read version %d of workflow %s: %w", number, workflowID, err)
	}

	return &version, nil
}

// numbers lists the stored version numbers of a workflow, highest first.
func (vr *VersionRepository) numbers(workflowID string) ([]int, error) {
	if validateID(workflowID) != nil {
		return nil, nil
	}

	entries, err := os.ReadDir(filepath.Join(vr.root, versionsDir, workflowID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list versions of workflow %s: %w", workflowID, err)
	}

	numbers := make([]int, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		number, err := strconv.Atoi(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}

		numbers = append(numbers, number)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(numbers)))

	return numbers, nil
}
