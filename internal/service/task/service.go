// Package task normalizes, validates and persists the tasks of a single owner.
package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Anveeka07/TaskManager/internal/domain"
	"github.com/Anveeka07/TaskManager/internal/repository"
)

const (
	msgInvalidTaskID = "Invalid task id"
	msgTaskNotFound  = "Task not found"
)

// Service implements the task workflows. Every operation is scoped to ownerID.
type Service struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Service.
func New(tasks repository.TaskRepository, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return Service{
		tasks:  tasks,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the payload and stores a new task with defaults applied.
func (s Service) Create(ctx context.Context, ownerID string, payload Payload) (*domain.Task, error) {
	payload = payload.Normalize()
	if problems := Validate(payload, false); len(problems) > 0 {
		return nil, domain.Validation(problems[0])
	}

	title, _ := payload.Title.StringValue()
	description, _ := payload.Description.StringValue()
	status := domain.StatusPending
	if v, ok := payload.Status.StringValue(); ok {
		status = domain.Status(v)
	}
	priority := domain.PriorityMedium
	if v, ok := payload.Priority.StringValue(); ok {
		priority = domain.Priority(v)
	}

	now := s.now()
	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, domain.Internal("create task", err)
	}
	s.logger.InfoContext(ctx, "task created", "task_id", task.ID, "user_id", ownerID)
	return task, nil
}

// List returns the owner's tasks, newest first.
func (s Service) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	tasks, err := s.tasks.ListTasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.Internal("list tasks", err)
	}
	return tasks, nil
}

// Get returns one of the owner's tasks.
func (s Service) Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	id, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.GetTaskForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, translate("get task", err)
	}
	return task, nil
}

// Update applies the supplied fields to one of the owner's tasks.
func (s Service) Update(ctx context.Context, ownerID, taskID string, payload Payload) (*domain.Task, error) {
	id, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}
	if payload.Empty() {
		return nil, domain.Validation(MsgNoFieldsToUpdate)
	}
	payload = payload.Normalize()
	if problems := Validate(payload, true); len(problems) > 0 {
		return nil, domain.Validation(problems[0])
	}

	var patch domain.TaskPatch
	if v, ok := payload.Title.StringValue(); ok {
		patch.Title = &v
	}
	if v, ok := payload.Description.StringValue(); ok {
		patch.Description = &v
	}
	if v, ok := payload.Status.StringValue(); ok {
		status := domain.Status(v)
		patch.Status = &status
	}
	if v, ok := payload.Priority.StringValue(); ok {
		priority := domain.Priority(v)
		patch.Priority = &priority
	}

	task, err := s.tasks.UpdateTaskForOwner(ctx, id, ownerID, patch)
	if err != nil {
		return nil, translate("update task", err)
	}
	s.logger.InfoContext(ctx, "task updated", "task_id", task.ID, "user_id", ownerID)
	return task, nil
}

// Delete removes one of the owner's tasks.
func (s Service) Delete(ctx context.Context, ownerID, taskID string) error {
	id, err := parseTaskID(taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.DeleteTaskForOwner(ctx, id, ownerID); err != nil {
		return translate("delete task", err)
	}
	s.logger.InfoContext(ctx, "task deleted", "task_id", id, "user_id", ownerID)
	return nil
}

// parseTaskID rejects malformed identifiers before any storage access and
// returns the canonical lower-case form.
func parseTaskID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.InvalidID(msgInvalidTaskID)
	}
	return id.String(), nil
}

func translate(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound(msgTaskNotFound)
	}
	return domain.Internal(op, err)
}
