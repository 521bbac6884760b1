// Package file provides file-based persistence implementation for workflows, versions and runs.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
)

const (
	workflowsDir  = "workflows"
	versionsDir   = "workflow_versions"
	executionsDir = "workflow_executions"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root          string
	workflowRepo  *WorkflowRepository
	versionRepo   *VersionRepository
	executionRepo *ExecutionRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)
	locks := newKeyedMutex()
	workflowRepo := NewWorkflowRepository(cleanRoot, locks)

	return &Persistence{
		root:          cleanRoot,
		workflowRepo:  workflowRepo,
		versionRepo:   NewVersionRepository(cleanRoot, workflowRepo, locks),
		executionRepo: NewExecutionRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// WorkflowRepository returns the workflow repository implementation for file persistence.
func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

// VersionRepository returns the version log implementation for file persistence.
func (fp *Persistence) VersionRepository() persistence.VersionRepository {
	return fp.versionRepo
}

// ExecutionRepository returns the execution record implementation for file persistence.
func (fp *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return fp.executionRepo
}

// keyedMutex serializes writers per key inside one process. Cross-process safety comes
// from exclusive file publication.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()

	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}

	k.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}

// validateID validates that an ID is safe to use as a file name.
func validateID(id string) error {
	if id == "" {
		return errors.New("ID cannot be empty")
	}

	// Check for path traversal attempts
	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("ID %q contains invalid characters", id)
	}

	return nil
}

func readJSON(filePath string, target any) error {
	body, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return err
	}

	return json.Unmarshal(body, target)
}

// writeJSON replaces filePath atomically through a temporary file and rename.
func writeJSON(filePath string, value any) error {
	tmp, err := stage(filePath, value)
	if err != nil {
		return err
	}

	err = os.Rename(tmp, filePath)
	if err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("failed to move %s into place: %w", filePath, err)
	}

	return nil
}

// publishJSON creates filePath only if it does not exist yet. The hard link either
// publishes the complete document or fails with fs.ErrExist.
func publishJSON(filePath string, value any) error {
	tmp, err := stage(filePath, value)
	if err != nil {
		return err
	}

	defer func() { _ = os.Remove(tmp) }()

	return os.Link(tmp, filePath)
}

func stage(filePath string, value any) (string, error) {
	dir := filepath.Dir(filePath)

	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", filepath.Base(filePath), err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return "", fmt.Errorf("failed to write %s: %w", filepath.Base(filePath), err)
	}

	return tmp.Name(), nil
}
