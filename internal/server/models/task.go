package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
)

// TaskStatus is the progress state of a task. Any status may follow any other.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseTaskStatus accepts only the exact lowercase names.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: invalid status %q", common.ErrValidation, s)
	}
	return st, nil
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParseTaskPriority accepts only the exact lowercase names.
func ParseTaskPriority(s string) (TaskPriority, error) {
	pr := TaskPriority(s)
	if !pr.Valid() {
		return "", fmt.Errorf("%w: invalid priority %q", common.ErrValidation, s)
	}
	return pr, nil
}

const (
	TitleMaxLength       = 200
	DescriptionMaxLength = 1000
)

// Task is a unit of work owned by exactly one user. Description and DueDate
// are optional and nil when absent.
type Task struct {
	ID          string       `db:"id"`
	UserID      string       `db:"user_id"`
	Title       string       `db:"title"`
	Description *string      `db:"description"`
	Status      TaskStatus   `db:"status"`
	Priority    TaskPriority `db:"priority"`
	DueDate     *time.Time   `db:"due_date"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// TaskFilter narrows a task listing. Zero fields do not constrain.
type TaskFilter struct {
	Status   TaskStatus
	Priority TaskPriority
	Search   string
}
