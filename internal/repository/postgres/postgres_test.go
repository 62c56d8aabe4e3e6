package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anveeka07/TaskManager/internal/domain"
	"github.com/Anveeka07/TaskManager/internal/repository"
	"github.com/Anveeka07/TaskManager/internal/repository/postgres"
)

var (
	userRowColumns = []string{"id", "name", "email", "password_hash", "created_at"}
	taskRowColumns = []string{"id", "title", "description", "status", "priority", "user_id", "created_at", "updated_at"}
)

func newMockRepo(t *testing.T) (*postgres.Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return postgres.New(mockPool), mockPool
}

func TestRepository_CreateUser(t *testing.T) {
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	user := &domain.User{
		ID:           "0b5c3f8e-6c0e-4c55-9d0c-0f4a1c1d2e3f",
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: []byte("$2a$10$hash"),
		CreatedAt:    now,
	}

	t.Run("Should insert the user", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.CreateUser(context.Background(), user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should map unique violations to ErrConflict", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		err := repo.CreateUser(context.Background(), user)
		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should wrap other failures", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt).
			WillReturnError(errors.New("connection refused"))

		err := repo.CreateUser(context.Background(), user)
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrConflict)
		assert.Contains(t, err.Error(), "insert user")
	})
}

func TestRepository_GetUserByEmail(t *testing.T) {
	t.Run("Should normalize the email before querying", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now().UTC()
		rows := mock.NewRows(userRowColumns).
			AddRow("user-1", "Ada", "ada@example.com", []byte("hash"), now)
		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = \\$1").
			WithArgs("ada@example.com").
			WillReturnRows(rows)

		user, err := repo.GetUserByEmail(context.Background(), "  Ada@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
		assert.Equal(t, "Ada", user.Name)
		assert.Equal(t, []byte("hash"), user.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should return ErrNotFound for unknown emails", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = \\$1").
			WithArgs("ghost@example.com").
			WillReturnRows(mock.NewRows(userRowColumns))

		user, err := repo.GetUserByEmail(context.Background(), "ghost@example.com")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestRepository_GetUserByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs("user-2").
		WillReturnRows(mock.NewRows(userRowColumns))

	_, err := repo.GetUserByID(context.Background(), "user-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func sampleTask(now time.Time) domain.Task {
	return domain.Task{
		ID:          "6f1d2a3b-4c5d-4e6f-8a9b-0c1d2e3f4a5b",
		Title:       "Write report",
		Description: "Quarterly numbers",
		Status:      domain.StatusPending,
		Priority:    domain.PriorityMedium,
		UserID:      "owner-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func taskRow(rows *pgxmock.Rows, task domain.Task) *pgxmock.Rows {
	return rows.AddRow(task.ID, task.Title, task.Description, task.Status, task.Priority, task.UserID, task.CreatedAt, task.UpdatedAt)
}

func TestRepository_CreateTask(t *testing.T) {
	repo, mock := newMockRepo(t)
	task := sampleTask(time.Now().UTC())
	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(task.ID, task.Title, task.Description, task.Status, task.Priority, task.UserID, task.CreatedAt, task.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateTask(context.Background(), &task))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListTasksByOwner(t *testing.T) {
	t.Run("Should order newest first and scope by owner", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now().UTC()
		newer := sampleTask(now)
		older := sampleTask(now.Add(-time.Hour))
		older.ID = "11111111-2222-4333-8444-555555555555"
		rows := taskRow(taskRow(mock.NewRows(taskRowColumns), newer), older)
		mock.ExpectQuery("SELECT (.+) FROM tasks WHERE user_id = \\$1 ORDER BY created_at DESC").
			WithArgs("owner-1").
			WillReturnRows(rows)

		tasks, err := repo.ListTasksByOwner(context.Background(), "owner-1")
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, newer.ID, tasks[0].ID)
		assert.Equal(t, older.ID, tasks[1].ID)
		assert.Equal(t, domain.StatusPending, tasks[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should return an empty slice when the owner has no tasks", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM tasks WHERE user_id = \\$1").
			WithArgs("owner-2").
			WillReturnRows(mock.NewRows(taskRowColumns))

		tasks, err := repo.ListTasksByOwner(context.Background(), "owner-2")
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})
}

func TestRepository_GetTaskForOwner(t *testing.T) {
	t.Run("Should return the owned task", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		task := sampleTask(time.Now().UTC())
		mock.ExpectQuery("SELECT (.+) FROM tasks WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(task.ID, task.UserID).
			WillReturnRows(taskRow(mock.NewRows(taskRowColumns), task))

		got, err := repo.GetTaskForOwner(context.Background(), task.ID, task.UserID)
		require.NoError(t, err)
		assert.Equal(t, task.Title, got.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should hide tasks owned by someone else", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM tasks WHERE id = \\$1 AND user_id = \\$2").
			WithArgs("task-1", "intruder").
			WillReturnRows(mock.NewRows(taskRowColumns))

		got, err := repo.GetTaskForOwner(context.Background(), "task-1", "intruder")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestRepository_UpdateTaskForOwner(t *testing.T) {
	t.Run("Should set only supplied fields", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		task := sampleTask(time.Now().UTC())
		task.Title = "Renamed"
		task.Status = domain.StatusCompleted
		title := "Renamed"
		status := domain.StatusCompleted

		mock.ExpectQuery("UPDATE tasks SET title = \\$1, status = \\$2, updated_at = \\$3 WHERE id = \\$4 AND user_id = \\$5 RETURNING").
			WithArgs(title, status, pgxmock.AnyArg(), task.ID, task.UserID).
			WillReturnRows(taskRow(mock.NewRows(taskRowColumns), task))

		got, err := repo.UpdateTaskForOwner(context.Background(), task.ID, task.UserID, domain.TaskPatch{Title: &title, Status: &status})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, domain.StatusCompleted, got.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should report ErrNotFound when nothing matched", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		priority := domain.PriorityHigh
		mock.ExpectQuery("UPDATE tasks SET priority = \\$1, updated_at = \\$2 WHERE id = \\$3 AND user_id = \\$4").
			WithArgs(priority, pgxmock.AnyArg(), "task-9", "owner-1").
			WillReturnRows(mock.NewRows(taskRowColumns))

		got, err := repo.UpdateTaskForOwner(context.Background(), "task-9", "owner-1", domain.TaskPatch{Priority: &priority})
		assert.Nil(t, got)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Should refuse an empty patch without querying", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		_, err := repo.UpdateTaskForOwner(context.Background(), "task-9", "owner-1", domain.TaskPatch{})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_DeleteTaskForOwner(t *testing.T) {
	t.Run("Should delete the owned task", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("DELETE FROM tasks WHERE id = \\$1 AND user_id = \\$2").
			WithArgs("task-1", "owner-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.DeleteTaskForOwner(context.Background(), "task-1", "owner-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should report ErrNotFound when no row was removed", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("DELETE FROM tasks WHERE id = \\$1 AND user_id = \\$2").
			WithArgs("task-1", "owner-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.DeleteTaskForOwner(context.Background(), "task-1", "owner-1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
