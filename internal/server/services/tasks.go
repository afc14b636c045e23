package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TaskFields are the caller-supplied fields of a new task. Empty Status and
// Priority fall back to pending and medium.
type TaskFields struct {
	Title       string
	Description *string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
}

// TaskPatch lists the fields to change; nil means "leave as is".
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDate     *time.Time
}

type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{
		db:          db,
		repomanager: m,
		now:         time.Now,
	}
}

// timestamp is the current time at the precision every supported database keeps.
func (s *TaskService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func validateTask(t *models.Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(t.Title) > models.TitleMaxLength {
		return fmt.Errorf("%w: title must be at most %d characters", common.ErrValidation, models.TitleMaxLength)
	}
	if t.Description != nil && utf8.RuneCountInString(*t.Description) > models.DescriptionMaxLength {
		return fmt.Errorf("%w: description must be at most %d characters", common.ErrValidation, models.DescriptionMaxLength)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: invalid status %q", common.ErrValidation, t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority %q", common.ErrValidation, t.Priority)
	}
	if t.DueDate != nil {
		d := t.DueDate.UTC().Truncate(time.Microsecond)
		t.DueDate = &d
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, ownerID string, fields TaskFields) (*models.Task, error) {
	now := s.timestamp()
	task := &models.Task{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       fields.Title,
		Description: fields.Description,
		Status:      fields.Status,
		Priority:    fields.Priority,
		DueDate:     fields.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	if err := validateTask(task); err != nil {
		return nil, err
	}

	task, err := s.repomanager.Tasks(s.db).Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return task, nil
}

// List returns the owner's tasks matching every given filter, newest first.
func (s *TaskService) List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]*models.Task, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status filter %q", common.ErrValidation, filter.Status)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, fmt.Errorf("%w: invalid priority filter %q", common.ErrValidation, filter.Priority)
	}
	filter.Search = strings.TrimSpace(filter.Search)

	list, err := s.repomanager.Tasks(s.db).List(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return list, nil
}

func (s *TaskService) Get(ctx context.Context, taskID, ownerID string) (*models.Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, common.ErrNotFound
	}

	task, err := s.repomanager.Tasks(s.db).Get(ctx, taskID, false)
	if err != nil {
		return nil, err
	}
	if task.UserID != ownerID {
		return nil, common.ErrForbidden
	}
	return task, nil
}

// Update applies patch to the owner's task. The ownership check and the
// write share one transaction.
func (s *TaskService) Update(ctx context.Context, taskID, ownerID string, patch TaskPatch) (*models.Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, common.ErrNotFound
	}

	var updated *models.Task

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		task, err := repo.Get(ctx, taskID, true)
		if err != nil {
			return err
		}
		if task.UserID != ownerID {
			return common.ErrForbidden
		}

		applyPatch(task, patch)
		if err := validateTask(task); err != nil {
			return err
		}
		task.UpdatedAt = s.nextUpdatedAt(task.UpdatedAt)

		updated, err = repo.Update(ctx, task)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// UpdateStatus moves a task to status. Every transition is allowed.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID, ownerID string, status models.TaskStatus) (*models.Task, error) {
	return s.Update(ctx, taskID, ownerID, TaskPatch{Status: &status})
}

func (s *TaskService) Delete(ctx context.Context, taskID, ownerID string) (bool, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return false, common.ErrNotFound
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		task, err := repo.Get(ctx, taskID, true)
		if err != nil {
			return err
		}
		if task.UserID != ownerID {
			return common.ErrForbidden
		}
		return repo.Delete(ctx, taskID)
	})
	if err != nil {
		return false, err
	}

	return true, nil
}

func applyPatch(task *models.Task, patch TaskPatch) {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		d := *patch.Description
		task.Description = &d
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		d := *patch.DueDate
		task.DueDate = &d
	}
}

// nextUpdatedAt is the current time, or just after prev when the clock has
// not moved past it.
func (s *TaskService) nextUpdatedAt(prev time.Time) time.Time {
	now := s.timestamp()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
