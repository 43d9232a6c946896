package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/memory"
	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

func TestJobStore_ListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewJobStore()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Create(ctx, &entities.ImportJob{
			ID:        fmt.Sprintf("job-%d", i),
			Status:    entities.JobStatusCompleted,
			StartedAt: time.Now(),
		}))
	}

	jobs, err := store.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "job-2", jobs[0].ID)
	assert.Equal(t, "job-0", jobs[2].ID)
}

func TestJobStore_UpdateMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := memory.NewJobStore()

	err := store.Update(ctx, &entities.ImportJob{ID: "missing"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTaskStore_ResolveTransitionsOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTaskStore()

	task := &entities.VerificationTask{
		ID:        "task-1",
		Status:    entities.TaskStatusPending,
		Priority:  entities.TaskPriorityNormal,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Create(ctx, task))

	transitioned, err := store.Resolve(ctx, "task-1", entities.TaskStatusApproved, "reviewer")
	require.NoError(t, err)
	assert.True(t, transitioned)

	again, err := store.Resolve(ctx, "task-1", entities.TaskStatusRejected, "other")
	require.NoError(t, err)
	assert.False(t, again)

	resolved, err := store.GetByID(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusApproved, resolved.Status)
	assert.Equal(t, "reviewer", resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)
}

func TestTaskStore_ResolveMissingTask(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTaskStore()

	transitioned, err := store.Resolve(ctx, "missing", entities.TaskStatusApproved, "reviewer")
	require.NoError(t, err)
	assert.False(t, transitioned)
}

func TestTaskStore_ConcurrentResolveHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTaskStore()
	require.NoError(t, store.Create(ctx, &entities.VerificationTask{
		ID:     "task-1",
		Status: entities.TaskStatusPending,
	}))

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Resolve(ctx, "task-1", entities.TaskStatusApproved, "reviewer")
			assert.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for ok := range results {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestTaskStore_ListPendingOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTaskStore()
	base := time.Now()

	require.NoError(t, store.Create(ctx, &entities.VerificationTask{
		ID: "normal-old", Status: entities.TaskStatusPending, Priority: entities.TaskPriorityNormal, CreatedAt: base,
	}))
	require.NoError(t, store.Create(ctx, &entities.VerificationTask{
		ID: "high-new", Status: entities.TaskStatusPending, Priority: entities.TaskPriorityHigh, CreatedAt: base.Add(time.Hour),
	}))
	require.NoError(t, store.Create(ctx, &entities.VerificationTask{
		ID: "low", Status: entities.TaskStatusPending, Priority: entities.TaskPriorityLow, CreatedAt: base,
	}))
	require.NoError(t, store.Create(ctx, &entities.VerificationTask{
		ID: "resolved", Status: entities.TaskStatusApproved, Priority: entities.TaskPriorityHigh, CreatedAt: base,
	}))

	pending, err := store.ListPending(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "high-new", pending[0].ID)
	assert.Equal(t, "normal-old", pending[1].ID)
	assert.Equal(t, "low", pending[2].ID)
}
