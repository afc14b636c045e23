package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskflow/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	// Get loads a task by ID regardless of owner. With forUpdate the row is
	// locked until the surrounding transaction ends, where the dialect supports it.
	Get(ctx context.Context, id string, forUpdate bool) (*models.Task, error)
	List(ctx context.Context, userID string, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}
