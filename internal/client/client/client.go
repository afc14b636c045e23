package client

import (
	"context"

	"github.com/dmitrijs2005/taskflow/internal/client/models"
)

type Client interface {
	SetToken(token string)
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.Token, error)
	Health(ctx context.Context) (*models.Health, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, in models.TaskInput) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id, status string) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}
