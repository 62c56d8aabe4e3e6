package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/Anveeka07/TaskManager/internal/domain"
	"github.com/Anveeka07/TaskManager/internal/repository"
)

var taskColumns = []string{"id", "title", "description", "status", "priority", "user_id", "created_at", "updated_at"}

// CreateTask inserts a task whose identifier and timestamps were assigned by the caller.
func (r *Repository) CreateTask(ctx context.Context, task *domain.Task) error {
	query, args, err := r.sb.Insert("tasks").
		Columns(taskColumns...).
		Values(task.ID, task.Title, task.Description, task.Status, task.Priority, task.UserID, task.CreatedAt, task.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert task: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// ListTasksByOwner returns the owner's tasks ordered newest first.
func (r *Repository) ListTasksByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	query, args, err := r.sb.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tasks: %w", err)
	}
	tasks := make([]domain.Task, 0)
	if err := pgxscan.Select(ctx, r.db, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTaskForOwner fetches a task only when it belongs to ownerID.
func (r *Repository) GetTaskForOwner(ctx context.Context, taskID, ownerID string) (*domain.Task, error) {
	query, args, err := r.sb.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		Where(sq.Eq{"user_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get task: %w", err)
	}
	var task domain.Task
	if err := pgxscan.Get(ctx, r.db, &task, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// UpdateTaskForOwner applies the supplied fields in a single UPDATE ... RETURNING,
// so concurrent writers against the same row are serialized by PostgreSQL.
func (r *Repository) UpdateTaskForOwner(ctx context.Context, taskID, ownerID string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("update task: empty patch")
	}
	builder := r.sb.Update("tasks")
	if patch.Title != nil {
		builder = builder.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		builder = builder.Set("description", *patch.Description)
	}
	if patch.Status != nil {
		builder = builder.Set("status", *patch.Status)
	}
	if patch.Priority != nil {
		builder = builder.Set("priority", *patch.Priority)
	}
	query, args, err := builder.
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": taskID}).
		Where(sq.Eq{"user_id": ownerID}).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update task: %w", err)
	}
	var task domain.Task
	if err := pgxscan.Get(ctx, r.db, &task, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

// DeleteTaskForOwner removes a task owned by ownerID.
func (r *Repository) DeleteTaskForOwner(ctx context.Context, taskID, ownerID string) error {
	query, args, err := r.sb.Delete("tasks").
		Where(sq.Eq{"id": taskID}).
		Where(sq.Eq{"user_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete task: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
