package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/homekeep/internal/memstore"
	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

func TestCompleteAndReopen(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New().Repositories().Tasks)
	fixed := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	task, err := svc.Create(ctx, model.NewTask{Title: "Replace filter"})
	require.NoError(t, err)

	done, err := svc.MarkComplete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(fixed))

	pending, err := svc.MarkPending(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, pending.Completed)
	assert.Nil(t, pending.CompletedAt)
}

func TestUpdateCompletedSetsTimestamp(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New().Repositories().Tasks)

	task, err := svc.Create(ctx, model.NewTask{Title: "Sweep"})
	require.NoError(t, err)

	done := true
	got, err := svc.Update(ctx, task.ID, model.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.NotNil(t, got.CompletedAt)
}

func TestMissingTask(t *testing.T) {
	svc := NewService(memstore.New().Repositories().Tasks)
	_, err := svc.MarkComplete(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
