package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func TestTaskStoreGetOrCreateDedup(t *testing.T) {
	repo := newMemRepo()
	store := NewTaskStore(testLogger(), repo)
	ctx := context.Background()

	task, change, err := store.GetOrCreate(ctx, "c-1", domain.StepCreateProposal, "u-1")
	require.NoError(t, err)
	assert.Equal(t, TaskCreated, change)
	assert.NotEmpty(t, task.ID)

	// Same step, same assignee: nothing happens, same row.
	again, change, err := store.GetOrCreate(ctx, "c-1", domain.StepCreateProposal, "u-1")
	require.NoError(t, err)
	assert.Equal(t, TaskUnchanged, change)
	assert.Equal(t, task.ID, again.ID)
	assert.Len(t, repo.tasks, 1)
}

func TestTaskStoreReassign(t *testing.T) {
	repo := newMemRepo()
	store := NewTaskStore(testLogger(), repo)
	ctx := context.Background()

	task, _, err := store.GetOrCreate(ctx, "c-1", domain.StepCreateProposal, "u-1")
	require.NoError(t, err)

	moved, change, err := store.GetOrCreate(ctx, "c-1", domain.StepCreateProposal, "u-2")
	require.NoError(t, err)
	assert.Equal(t, TaskReassigned, change)
	assert.Equal(t, task.ID, moved.ID)
	assert.Equal(t, domain.UserID("u-2"), moved.AssignedTo)
	assert.Len(t, repo.tasks, 1)
}

func TestTaskStoreReactivate(t *testing.T) {
	repo := newMemRepo()
	store := NewTaskStore(testLogger(), repo)
	ctx := context.Background()

	task, _, err := store.GetOrCreate(ctx, "c-1", domain.StepInvoiceSubmission, "acc-1")
	require.NoError(t, err)

	done, err := store.Complete(ctx, task)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)

	// The monthly cycle brings the step back: same row, active again.
	revived, change, err := store.GetOrCreate(ctx, "c-1", domain.StepInvoiceSubmission, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, TaskReactivated, change)
	assert.Equal(t, task.ID, revived.ID)
	assert.False(t, revived.IsCompleted)
	assert.Len(t, repo.tasks, 1)
}

func TestTaskStoreCompleteAndActivate(t *testing.T) {
	repo := newMemRepo()
	store := NewTaskStore(testLogger(), repo)
	ctx := context.Background()

	current, _, err := store.GetOrCreate(ctx, "c-1", domain.StepCreateProposal, "u-1")
	require.NoError(t, err)

	next, change, err := store.Materialize(ctx, "c-1", domain.StepApproveProposal, "am-1")
	require.NoError(t, err)
	assert.Equal(t, TaskCreated, change)

	_, err = store.CompleteAndActivate(ctx, current, next)
	require.NoError(t, err)

	stored, err := repo.GetTask(ctx, current.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)

	pending := repo.pendingForClient("c-1")
	require.Len(t, pending, 1)
	assert.Equal(t, domain.StepApproveProposal, pending[0].Step)
}

func TestTaskStoreRequiresClientAndUser(t *testing.T) {
	store := NewTaskStore(testLogger(), newMemRepo())
	_, _, err := store.Materialize(context.Background(), "", domain.StepAssignTeam, "u-1")
	assert.Error(t, err)
	_, _, err = store.Materialize(context.Background(), "c-1", domain.StepAssignTeam, "")
	assert.Error(t, err)
}
