package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/taskflow/internal/client/client"
	"github.com/dmitrijs2005/taskflow/internal/client/models"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	token string

	loginToken *models.Token
	loginErr   error
	regErr     error
	taskErr    error

	tasks      []*models.Task
	lastFilter models.TaskFilter
	deleted    []string
}

func (f *fakeClient) SetToken(token string) { f.token = token }

func (f *fakeClient) Register(_ context.Context, email, _ string) (*models.User, error) {
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &models.User{ID: "u-1", Email: email}, nil
}

func (f *fakeClient) Login(context.Context, string, string) (*models.Token, error) {
	return f.loginToken, f.loginErr
}

func (f *fakeClient) Health(context.Context) (*models.Health, error) {
	return &models.Health{Status: "healthy", Version: "1.0.0"}, nil
}

func (f *fakeClient) ListTasks(_ context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	f.lastFilter = filter
	return f.tasks, f.taskErr
}

func (f *fakeClient) CreateTask(_ context.Context, in models.TaskInput) (*models.Task, error) {
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	return &models.Task{ID: "t-1", Title: *in.Title}, nil
}

func (f *fakeClient) GetTask(_ context.Context, id string) (*models.Task, error) {
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	return &models.Task{ID: id}, nil
}

func (f *fakeClient) UpdateTask(_ context.Context, id string, _ models.TaskInput) (*models.Task, error) {
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	return &models.Task{ID: id}, nil
}

func (f *fakeClient) UpdateTaskStatus(_ context.Context, id, status string) (*models.Task, error) {
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	return &models.Task{ID: id, Status: status}, nil
}

func (f *fakeClient) DeleteTask(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.taskErr
}

var _ client.Client = (*fakeClient)(nil)

func newSessionDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	db, err := client.InitDatabase(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}
