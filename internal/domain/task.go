package domain

import "time"

// Status is the canonical workflow state of a task.
type Status string

// Canonical task statuses.
const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Priority is the canonical urgency of a task.
type Priority string

// Canonical task priorities.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Field limits shared by validation and the database schema.
const (
	TitleMinLength       = 3
	TitleMaxLength       = 120
	DescriptionMaxLength = 1000
)

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Valid reports whether p is one of the canonical priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user.
// JSON names follow the document shape the web client already consumes.
type Task struct {
	ID          string    `db:"id" json:"_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Status      Status    `db:"status" json:"status"`
	Priority    Priority  `db:"priority" json:"priority"`
	UserID      string    `db:"user_id" json:"user"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// TaskPatch carries the editable fields of an update; nil means "leave unchanged".
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil
}
