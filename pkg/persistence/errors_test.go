package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		workflowErr := persistence.NewWorkflowError("GetByID", "workflow-123", persistence.ErrWorkflowNotFound)
		versionErr := persistence.NewVersionError("GetByNumber", "workflow-123", 4, persistence.ErrVersionNotFound)
		conflictErr := persistence.NewVersionError("Append", "workflow-123", 5, persistence.ErrVersionConflict)
		executionErr := persistence.NewExecutionError("Update", "run-1", persistence.ErrExecutionNotFound)

		assert.True(t, persistence.IsWorkflowNotFound(workflowErr))
		assert.True(t, persistence.IsVersionNotFound(versionErr))
		assert.True(t, persistence.IsVersionConflict(conflictErr))
		assert.True(t, persistence.IsExecutionNotFound(executionErr))

		assert.True(t, persistence.IsNotFound(workflowErr))
		assert.True(t, persistence.IsNotFound(versionErr))
		assert.True(t, persistence.IsNotFound(executionErr))
		assert.False(t, persistence.IsNotFound(conflictErr))

		assert.True(t, errors.Is(workflowErr, persistence.ErrWorkflowNotFound))
		assert.False(t, errors.Is(workflowErr, persistence.ErrVersionNotFound))
	})

	t.Run("errors survive further wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("service layer: %w", persistence.NewVersionError("Append", "wf", 2, persistence.ErrVersionConflict))

		assert.True(t, persistence.IsVersionConflict(wrapped))
	})

	t.Run("workflow error contains context", func(t *testing.T) {
		err := persistence.NewWorkflowError("UpdateMetadata", "workflow-123", persistence.ErrWorkflowNotFound)

		assert.Contains(t, err.Error(), "UpdateMetadata")
		assert.Contains(t, err.Error(), "workflow-123")
		assert.Contains(t, err.Error(), "workflow not found")
	})

	t.Run("version error contains context", func(t *testing.T) {
		err := persistence.NewVersionError("GetByNumber", "workflow-123", 7, persistence.ErrVersionNotFound)

		assert.Contains(t, err.Error(), "GetByNumber")
		assert.Contains(t, err.Error(), "version 7")
		assert.Contains(t, err.Error(), "workflow-123")
	})
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, persistence.MaxListLimit, persistence.ClampLimit(0))
	assert.Equal(t, persistence.MaxListLimit, persistence.ClampLimit(-3))
	assert.Equal(t, persistence.MaxListLimit, persistence.ClampLimit(5000))
	assert.Equal(t, 25, persistence.ClampLimit(25))
}
