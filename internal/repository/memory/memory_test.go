package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anveeka07/TaskManager/internal/domain"
	"github.com/Anveeka07/TaskManager/internal/repository"
)

func TestStoreUsers(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.CreateUser(ctx, &domain.User{ID: "u1", Name: "Ada", Email: "Ada@Example.com"}))
	err := store.CreateUser(ctx, &domain.User{ID: "u2", Name: "Other", Email: " ada@example.COM"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	byEmail, err := store.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	store.DeleteUser("u1")
	_, err = store.GetUserByID(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStoreTasksAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, store.CreateTask(ctx, &domain.Task{
			ID:        id,
			Title:     "task " + id,
			UserID:    "owner",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.CreateTask(ctx, &domain.Task{ID: "x1", UserID: "other", CreatedAt: base}))

	tasks, err := store.ListTasksByOwner(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	_, err = store.GetTaskForOwner(ctx, "x1", "owner")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	title := "renamed"
	_, err = store.UpdateTaskForOwner(ctx, "t1", "other", domain.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	updated, err := store.UpdateTaskForOwner(ctx, "t1", "owner", domain.TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.True(t, updated.UpdatedAt.After(base))

	assert.ErrorIs(t, store.DeleteTaskForOwner(ctx, "t1", "other"), repository.ErrNotFound)
	require.NoError(t, store.DeleteTaskForOwner(ctx, "t1", "owner"))
	assert.ErrorIs(t, store.DeleteTaskForOwner(ctx, "t1", "owner"), repository.ErrNotFound)

	empty, err := store.ListTasksByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
