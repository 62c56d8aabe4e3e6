package repository

import (
	"context"

	"github.com/Anveeka07/TaskManager/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	// CreateUser inserts a user; a duplicate email yields ErrConflict.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// TaskRepository persists tasks. Every lookup is scoped to the owning user and
// a task that exists but belongs to someone else is reported as ErrNotFound.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	// ListTasksByOwner returns the owner's tasks, newest first.
	ListTasksByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	GetTaskForOwner(ctx context.Context, taskID, ownerID string) (*domain.Task, error)
	// UpdateTaskForOwner applies patch atomically and returns the stored result.
	UpdateTaskForOwner(ctx context.Context, taskID, ownerID string, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTaskForOwner(ctx context.Context, taskID, ownerID string) error
}
