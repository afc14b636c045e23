package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/taskflow/internal/client/client"
	"github.com/dmitrijs2005/taskflow/internal/client/models"
)

// TaskService proxies task operations to the API. Any 401 answer ends the
// local session, since the stored token is no longer accepted.
type TaskService interface {
	List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	Create(ctx context.Context, in models.TaskInput) (*models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, id string, in models.TaskInput) (*models.Task, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type taskService struct {
	client client.Client
	auth   AuthService
}

func NewTaskService(c client.Client, auth AuthService) TaskService {
	return &taskService{client: c, auth: auth}
}

func (s *taskService) requireSession() error {
	_, err := s.auth.Current()
	return err
}

func (s *taskService) checkAuth(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		if cerr := s.auth.ClearSession(ctx); cerr != nil {
			return errors.Join(err, cerr)
		}
	}
	return err
}

func (s *taskService) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	list, err := s.client.ListTasks(ctx, filter)
	return list, s.checkAuth(ctx, err)
}

func (s *taskService) Create(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	t, err := s.client.CreateTask(ctx, in)
	return t, s.checkAuth(ctx, err)
}

func (s *taskService) Get(ctx context.Context, id string) (*models.Task, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	t, err := s.client.GetTask(ctx, id)
	return t, s.checkAuth(ctx, err)
}

func (s *taskService) Update(ctx context.Context, id string, in models.TaskInput) (*models.Task, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	t, err := s.client.UpdateTask(ctx, id, in)
	return t, s.checkAuth(ctx, err)
}

func (s *taskService) UpdateStatus(ctx context.Context, id, status string) (*models.Task, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	t, err := s.client.UpdateTaskStatus(ctx, id, status)
	return t, s.checkAuth(ctx, err)
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	return s.checkAuth(ctx, s.client.DeleteTask(ctx, id))
}
