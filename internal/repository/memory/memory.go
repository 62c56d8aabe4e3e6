// Package memory keeps users and tasks in process memory. It backs local runs
// with STORAGE=memory and the service and gateway tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Anveeka07/TaskManager/internal/domain"
	"github.com/Anveeka07/TaskManager/internal/repository"
)

// Store implements repository.UserRepository and repository.TaskRepository.
type Store struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	byEmail map[string]string
	tasks   map[string]domain.Task
	now     func() time.Time
}

var (
	_ repository.UserRepository = (*Store)(nil)
	_ repository.TaskRepository = (*Store)(nil)
)

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
		tasks:   make(map[string]domain.Task),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	email := normalizeEmail(user.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return repository.ErrConflict
	}
	stored := *user
	stored.Email = email
	stored.PasswordHash = append([]byte(nil), user.PasswordHash...)
	s.users[stored.ID] = stored
	s.byEmail[email] = stored.ID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

// DeleteUser removes a user without touching their tasks. Tests use it to
// simulate an account that vanished after a token was issued.
func (s *Store) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		delete(s.byEmail, user.Email)
		delete(s.users, id)
	}
}

func (s *Store) CreateTask(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; exists {
		return repository.ErrConflict
	}
	s.tasks[task.ID] = *task
	return nil
}

func (s *Store) ListTasksByOwner(_ context.Context, ownerID string) ([]domain.Task, error) {
	s.mu.RLock()
	tasks := make([]domain.Task, 0)
	for _, task := range s.tasks {
		if task.UserID == ownerID {
			tasks = append(tasks, task)
		}
	}
	s.mu.RUnlock()

	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
	return tasks, nil
}

func (s *Store) GetTaskForOwner(_ context.Context, taskID, ownerID string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok || task.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &task, nil
}

func (s *Store) UpdateTaskForOwner(_ context.Context, taskID, ownerID string, patch domain.TaskPatch) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok || task.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	task.UpdatedAt = s.now()
	s.tasks[taskID] = task
	return &task, nil
}

func (s *Store) DeleteTaskForOwner(_ context.Context, taskID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok || task.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
