package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anveeka07/TaskManager/internal/domain"
	"github.com/Anveeka07/TaskManager/internal/repository/memory"
)

func newTestService() (Service, *memory.Store) {
	store := memory.New()
	return New(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func assertKind(t *testing.T, err error, kind domain.ErrorKind, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, domain.KindOf(err))
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, msg, de.Message)
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService()

	task, err := svc.Create(context.Background(), "owner-1", Payload{Title: Text("  Buy milk ")})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "", task.Description)
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, "owner-1", task.UserID)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	_, err = uuid.Parse(task.ID)
	assert.NoError(t, err)
}

func TestCreateTreatsNullDescriptionAsDefault(t *testing.T) {
	svc, _ := newTestService()

	task, err := svc.Create(context.Background(), "owner-1", decode(t, `{"title":"abc","description":null}`))
	require.NoError(t, err)
	assert.Equal(t, "", task.Description)
}

func TestCreateNormalizesSynonyms(t *testing.T) {
	svc, _ := newTestService()

	task, err := svc.Create(context.Background(), "owner-1", Payload{
		Title:    Text("Report"),
		Status:   Text("Done "),
		Priority: Text("critical"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, task.Status)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
}

func TestCreateRejectsUnknownStatusInsteadOfCoercing(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.Create(context.Background(), "owner-1", Payload{Title: Text("Report"), Status: Text("bogus")})
	assertKind(t, err, domain.KindValidation, MsgInvalidStatus)

	tasks, err := store.ListTasksByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateTitleBoundary(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), "owner-1", Payload{Title: Text("ab")})
	assertKind(t, err, domain.KindValidation, "Title must be at least 3 characters")

	_, err = svc.Create(context.Background(), "owner-1", Payload{Title: Text("abc")})
	assert.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	created, err := svc.Create(ctx, "owner-1", Payload{Title: Text("Draft"), Description: Text("first")})
	require.NoError(t, err)

	t.Run("empty payload", func(t *testing.T) {
		_, err := svc.Update(ctx, "owner-1", created.ID, Payload{})
		assertKind(t, err, domain.KindValidation, MsgNoFieldsToUpdate)
	})

	t.Run("invalid id is checked first", func(t *testing.T) {
		_, err := svc.Update(ctx, "owner-1", "not-a-uuid", Payload{})
		assertKind(t, err, domain.KindInvalidID, "Invalid task id")
	})

	t.Run("validation on present keys", func(t *testing.T) {
		_, err := svc.Update(ctx, "owner-1", created.ID, Payload{Priority: Text("someday")})
		assertKind(t, err, domain.KindValidation, MsgInvalidPriority)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		updated, err := svc.Update(ctx, "owner-1", created.ID, Payload{Status: Text("in progress")})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, updated.Status)
		assert.Equal(t, "Draft", updated.Title)
		assert.Equal(t, "first", updated.Description)
	})

	t.Run("other owner sees not found", func(t *testing.T) {
		_, err := svc.Update(ctx, "owner-2", created.ID, Payload{Title: Text("Stolen")})
		assertKind(t, err, domain.KindNotFound, "Task not found")
	})
}

func TestGetAndDeleteAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	created, err := svc.Create(ctx, "owner-1", Payload{Title: Text("Private")})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "owner-2", created.ID)
	assertKind(t, err, domain.KindNotFound, "Task not found")

	err = svc.Delete(ctx, "owner-2", created.ID)
	assertKind(t, err, domain.KindNotFound, "Task not found")

	got, err := svc.Get(ctx, "owner-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title)

	require.NoError(t, svc.Delete(ctx, "owner-1", created.ID))
	err = svc.Delete(ctx, "owner-1", created.ID)
	assertKind(t, err, domain.KindNotFound, "Task not found")

	_, err = svc.Get(ctx, "owner-1", "1234")
	assertKind(t, err, domain.KindInvalidID, "Invalid task id")
}

func TestListIsNewestFirstAndPrivate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	first, err := svc.Create(ctx, "owner-1", Payload{Title: Text("First")})
	require.NoError(t, err)
	second, err := svc.Create(ctx, "owner-1", Payload{Title: Text("Second")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "owner-2", Payload{Title: Text("Someone else")})
	require.NoError(t, err)

	tasks, err := svc.List(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	ids := []string{tasks[0].ID, tasks[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
	assert.False(t, tasks[0].CreatedAt.Before(tasks[1].CreatedAt))
}

type failingTasks struct{ memory.Store }

func (*failingTasks) ListTasksByOwner(context.Context, string) ([]domain.Task, error) {
	return nil, errors.New("connection reset")
}

func TestStorageFailuresAreInternal(t *testing.T) {
	svc := New(&failingTasks{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.List(context.Background(), "owner-1")
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}
