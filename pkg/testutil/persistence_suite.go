package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PersistenceFactory returns a fresh, empty store for one test.
type PersistenceFactory func(t *testing.T) persistence.Persistence

// RunPersistenceSuite exercises the repository contract every backend must honor.
func RunPersistenceSuite(t *testing.T, newPersistence PersistenceFactory) {
	t.Helper()

	t.Run("create and fetch workflow with initial version", func(t *testing.T) {
		p := newPersistence(t)
		ctx := t.Context()

		workflow, initial := CreateTestWorkflow("My Assistant", CreateTestGraph())
		require.NoError(t, p.WorkflowRepository().Create(ctx, workflow, initial))

		fetched, err := p.WorkflowRepository().GetByID(ctx, workflow.ID)
		require.NoError(t, err)
		assertWorkflowEqual(t, workflow, fetched)

		latest, err := p.VersionRepository().Latest(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, latest.Version)
		assert.Equal(t, initial.ID, latest.ID)
		assert.Equal(t, initial.Graph, latest.Graph)
		assert.Equal(t, initial.Checksum, latest.Checksum)
	})

	t.Run("duplicate create is rejected", func(t *testing.T) {
		p := newPersistence(t)
		ctx := t.Context()

		workflow, initial := CreateTestWorkflow("Duplicate", models.EmptyGraph())
		require.NoError(t, p.WorkflowRepository().Create(ctx, workflow, initial))

		again := *initial
		again.ID = uuid.New().String()

		err := p.WorkflowRepository().Create(ctx, workflow, &again)
		require.Error(t, err)
		assert.ErrorIs(t, err, persistence.ErrWorkflowAlreadyExists)
	})

	t.Run("missing workflow is not found", func(t *testing.T) {
		p := newPersistence(t)

		_, err := p.WorkflowRepository().GetByID(t.Context(), uuid.New().String())
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("list orders by updated_at descending and honors limit", func(t *testing.T) {
		p := newPersistence(t)
		ctx := t.Context()
		base := Now()

		ids := make([]string, 0, 3)

		for i := range 3 {
			workflow, initial := CreateTestWorkflow(fmt.Sprintf("Workflow %d", i), models.EmptyGraph())
			workflow.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
			require.NoError(t, p.WorkflowRepository().Create(ctx, workflow, initial))

			ids = append(ids, workflow.ID)
		}

		listed, err := p.WorkflowRepository().List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, listed, 3)
		assert.Equal(t, ids[2], listed[0].ID)
		assert.Equal(t, ids[1], listed[1].ID)
		assert.Equal(t, ids[0], listed[2].ID)

		limited, err := p.WorkflowRepository().List(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("list on empty store", func(t *testing.T) {
		p := newPersistence(t)

		listed, err := p.WorkflowRepository().List(t.Context(), 10)
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("update metadata leaves version pointer alone", func(t *testing.T) {
		p := newPersistence(t)
		ctx := t.Context()

		workflow, initial := CreateTestWorkflow("Before", models.EmptyGraph())
		require.NoError(t, p.WorkflowRepository().Create(ctx, workflow, initial))
		require.NoError(t, p.VersionRepository().Append(ctx, CreateTestVersion(workflow.ID, CreateTestGraph(), "second")))

		update := *workflow
		update.Name = "After"
		update.Description = "changed"
		update.Version = 1
		update.UpdatedAt = Now().Add(time.Hour)

		require.NoError(t, p.WorkflowRepository().UpdateMetadata(ctx, &update))

		fetched, err := p.WorkflowRepository().GetByID(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, "After", fetched.Name)
		assert.Equal(t, "changed", fetched.Description)
		assert.Equal(t, "before", fetched.Slug)
		assert.Equal(t, 2, fetched.Version)
		assert.True(t, update.UpdatedAt.Equal(fetched.UpdatedAt))
	})

	t.Run("update metadata of missing workflow", func(t *testing.T) {
		p := newPersistence(t)

		workflow, _ := CreateTestWorkflow("Ghost", models.EmptyGraph())

		err := p.WorkflowRepository().UpdateMetadata(t.Context(), workflow)
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("sequential appends are contiguous", func(t *testing.T) {
		p := newPersistence(t)
		ctx := t.Context()

		workflow, initial := CreateTestWorkflow("Sequential", models.EmptyGraph())
		require.NoError(t, p.WorkflowRepository().Create(ctx, workflow, initial))

		for expected := 2; expected <= 6; expected++ {
			version := CreateTestVersion(workflow.ID, CreateTestGraph(), fmt.Sprintf("v%d", expected))
			require.NoError(t, p.VersionRepository().Append(ctx, version))
			assert.Equal(t, expected, version.Version)
		}

		fetched, err := p.WorkflowRepository().GetByID(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, fetched.Version)

		summaries, err := p.VersionRepository().List(ctx, workflow.ID)
		require.NoError(t, err)
		require.Len(t, summaries, 6)

		for i, summary := range summaries {
			assert.Equal(t, 6-i, summary.Version)
		}

		assert.Equal(t, fetched.Version, summaries[0].Version)
		assert.Equal(t, "v6", summaries[0].Note)

		third, err := p.VersionRepository().GetByNumber(ctx, workflow.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, "v3", third.Note)

		_, err = p.VersionRepository().GetByNumber(ctx, workflow.ID, 99)
		require.Error(t, err)
		assert.True(t, persistence.IsVersionNotFound(err))
	})

	t.Run("append moves updated_at", func(t *testing.T) {
		p := newPersistence(t)
		ctx := t.Context()

		workflow, initial := CreateTestWorkflow("Touch", models.EmptyGraph())
		require.NoError(t, p.WorkflowRepository().Create(ctx, workflow, initial))

		version := CreateTestVersion(workflow.ID, models.EmptyGraph(), "")
		version.CreatedAt = workflow.UpdatedAt.Add(time.Minute)
		require.NoError(t, p.VersionRepository().Append(ctx, version))

		fetched, err := p.WorkflowRepository().GetByID(ctx, workflow.ID)
		require.NoError(t, err)
		assert.True(t, version.CreatedAt.Equal(fetched.UpdatedAt))
	})

	t.Run("append to missing workflow", func(t *testing.T) {
		p := newPersistence(t)

		err := p.VersionRepository().Append(t.Context(), CreateTestVersion(uuid.New().String(), models.EmptyGraph(), ""))
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("concurrent appends never reuse a number", func(t *testing.T) {
		p := newPersistence(t)
		ctx := t.Context()

		workflow, initial := CreateTestWorkflow("Concurrent", models.EmptyGraph())
		require.NoError(t, p.WorkflowRepository().Create(ctx, workflow, initial))

		const writers = 8

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			numbers []int
			errs    []error
		)

		for i := range writers {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				number, err := appendWithRetry(ctx, p, CreateTestVersion(workflow.ID, models.EmptyGraph(), fmt.Sprintf("writer %d", i)))

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					errs = append(errs, err)

					return
				}

				numbers = append(numbers, number)
			}(i)
		}

		wg.Wait()

		require.Empty(t, errs)
		sort.Ints(numbers)

		expected := make([]int, 0, writers)
		for n := 2; n <= writers+1; n++ {
			expected = append(expected, n)
		}

		assert.Equal(t, expected, numbers)

		fetched, err := p.WorkflowRepository().GetByID(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, writers+1, fetched.Version)

		summaries, err := p.VersionRepository().List(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Len(t, summaries, writers+1)
	})

	t.Run("graph round trip keeps every field", func(t *testing.T) {
		p := newPersistence(t)
		ctx := t.Context()

		workflow, initial := CreateTestWorkflow("Round Trip", models.EmptyGraph())
		require.NoError(t, p.WorkflowRepository().Create(ctx, workflow, initial))

		graph := models.Graph{
			Nodes: []models.Node{{
				ID:       "n1",
				Type:     "trigger.manual",
				Label:    "Start",
				Position: models.Position{X: 0, Y: 0},
				Config:   map[string]any{},
			}},
			Edges: []models.Edge{},
		}

		require.NoError(t, p.VersionRepository().Append(ctx, CreateTestVersion(workflow.ID, graph, "")))

		latest, err := p.VersionRepository().Latest(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, graph, latest.Graph)
	})

	t.Run("execution record lifecycle", func(t *testing.T) {
		p := newPersistence(t)
		ctx := t.Context()
		repo := p.ExecutionRepository()

		workflow, initial := CreateTestWorkflow("Runs", models.EmptyGraph())
		require.NoError(t, p.WorkflowRepository().Create(ctx, workflow, initial))

		base := Now()
		first := &models.ExecutionRecord{
			ID:         uuid.New().String(),
			WorkflowID: workflow.ID,
			Version:    1,
			Status:     models.ExecutionStatusRunning,
			StartedAt:  base,
		}
		second := &models.ExecutionRecord{
			ID:         uuid.New().String(),
			WorkflowID: workflow.ID,
			Version:    1,
			Status:     models.ExecutionStatusRunning,
			StartedAt:  base.Add(time.Second),
		}

		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		fetched, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ExecutionStatusRunning, fetched.Status)
		assert.Nil(t, fetched.FinishedAt)
		assert.Nil(t, fetched.DurationMs)

		first.Finish(models.ExecutionStatusSucceeded, base.Add(250*time.Millisecond))
		require.NoError(t, repo.Update(ctx, first))

		fetched, err = repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ExecutionStatusSucceeded, fetched.Status)
		require.NotNil(t, fetched.FinishedAt)
		require.NotNil(t, fetched.DurationMs)
		assert.Equal(t, int64(250), *fetched.DurationMs)
		assert.True(t, first.FinishedAt.Equal(*fetched.FinishedAt))

		listed, err := repo.ListByWorkflow(ctx, workflow.ID, 0)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, second.ID, listed[0].ID)
		assert.Equal(t, first.ID, listed[1].ID)

		other, err := repo.ListByWorkflow(ctx, uuid.New().String(), 0)
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("missing execution record", func(t *testing.T) {
		p := newPersistence(t)
		ctx := t.Context()

		_, err := p.ExecutionRepository().GetByID(ctx, uuid.New().String())
		require.Error(t, err)
		assert.True(t, persistence.IsExecutionNotFound(err))

		record := &models.ExecutionRecord{ID: uuid.New().String(), Status: models.ExecutionStatusSucceeded, StartedAt: Now()}
		err = p.ExecutionRepository().Update(ctx, record)
		require.Error(t, err)
		assert.True(t, persistence.IsExecutionNotFound(err))
	})

	t.Run("health check", func(t *testing.T) {
		p := newPersistence(t)

		assert.NoError(t, p.HealthCheck(t.Context()))
	})
}

func appendWithRetry(ctx context.Context, p persistence.Persistence, version *models.Version) (int, error) {
	var err error

	for range 20 {
		err = p.VersionRepository().Append(ctx, version)
		if err == nil {
			return version.Version, nil
		}

		if !persistence.IsVersionConflict(err) {
			return 0, err
		}
	}

	return 0, err
}

func assertWorkflowEqual(t *testing.T, expected, actual *models.Workflow) {
	t.Helper()

	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.Name, actual.Name)
	assert.Equal(t, expected.Slug, actual.Slug)
	assert.Equal(t, expected.Description, actual.Description)
	assert.Equal(t, expected.Version, actual.Version)
	assert.True(t, expected.CreatedAt.Equal(actual.CreatedAt), "created_at %v != %v", expected.CreatedAt, actual.CreatedAt)
	assert.True(t, expected.UpdatedAt.Equal(actual.UpdatedAt), "updated_at %v != %v", expected.UpdatedAt, actual.UpdatedAt)
}
