package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/config"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskflow/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	t      *testing.T
	server *Server
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()

	db, dialect, err := dbx.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.NewRepositoryManager(dialect)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(context.Background(), db))

	cfg := &config.Config{SecretKey: "test-secret", AccessTokenValidityDuration: time.Hour, BcryptCost: bcrypt.MinCost}
	srv := NewServer("127.0.0.1:0", logging.Nop{},
		services.NewUserService(db, rm, cfg),
		services.NewTaskService(db, rm),
		services.NewHealthService(db),
		opts)

	return &testAPI{t: t, server: srv}
}

type apiResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r apiResponse) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r apiResponse) errorInfo(t *testing.T) ErrorInfo {
	t.Helper()
	var e ErrorResponse
	r.decode(t, &e)
	return e.Error
}

func (a *testAPI) do(method, path string, body any, token string, headers ...string) apiResponse {
	a.t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.server.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return apiResponse{status: resp.StatusCode, header: resp.Header, body: raw}
}

func (a *testAPI) signUp(email string) string {
	a.t.Helper()
	r := a.do(http.MethodPost, "/auth/register", map[string]string{"email": email, "password": "password123"}, "")
	require.Equal(a.t, http.StatusCreated, r.status, string(r.body))

	r = a.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "password123"}, "")
	require.Equal(a.t, http.StatusOK, r.status, string(r.body))

	var tok TokenResponse
	r.decode(a.t, &tok)
	return tok.AccessToken
}

func (a *testAPI) createTask(token string, body map[string]any) TaskResponse {
	a.t.Helper()
	r := a.do(http.MethodPost, "/tasks", body, token)
	require.Equal(a.t, http.StatusCreated, r.status, string(r.body))
	var task TaskResponse
	r.decode(a.t, &task)
	return task
}

func TestRootAndHealth(t *testing.T) {
	api := newTestAPI(t, Options{})

	r := api.do(http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, r.status)
	var root RootResponse
	r.decode(t, &root)
	assert.Equal(t, "running", root.Status)

	r = api.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, r.status)
	var h HealthResponse
	r.decode(t, &h)
	assert.Equal(t, "healthy", h.Status)
	assert.NotEmpty(t, h.Version)
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t, Options{})

	r := api.do(http.MethodPost, "/auth/register", map[string]string{"email": " New@Example.com", "password": "password123"}, "")
	require.Equal(t, http.StatusCreated, r.status)
	var u map[string]any
	r.decode(t, &u)
	assert.Equal(t, "new@example.com", u["email"])
	assert.NotEmpty(t, u["id"])
	assert.NotEmpty(t, u["created_at"])
	assert.NotContains(t, string(r.body), "password")

	r = api.do(http.MethodPost, "/auth/register", map[string]string{"email": "NEW@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusConflict, r.status)
	assert.Equal(t, ErrCodeConflict, r.errorInfo(t).Code)
	assert.Equal(t, "email already registered", r.errorInfo(t).Message)

	r = api.do(http.MethodPost, "/auth/login", map[string]string{"email": "new@example.com", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, r.status)
	var tok TokenResponse
	r.decode(t, &tok)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.NotEmpty(t, tok.AccessToken)

	r = api.do(http.MethodPost, "/auth/login", map[string]string{"email": "new@example.com", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "Bearer", r.header.Get("WWW-Authenticate"))
	wrongMsg := r.errorInfo(t).Message

	r = api.do(http.MethodPost, "/auth/login", map[string]string{"email": "ghost@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, wrongMsg, r.errorInfo(t).Message)
}

func TestRegister_Validation(t *testing.T) {
	api := newTestAPI(t, Options{})

	tests := []struct {
		name string
		body any
	}{
		{"bad email", map[string]string{"email": "not-an-email", "password": "password123"}},
		{"double dot domain", map[string]string{"email": "alice@example..com", "password": "password123"}},
		{"leading dot", map[string]string{"email": ".alice@example.com", "password": "password123"}},
		{"short password", map[string]string{"email": "a@example.com", "password": "short"}},
		{"missing fields", map[string]string{}},
		{"malformed json", `{"email":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := api.do(http.MethodPost, "/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, r.status, string(r.body))
		})
	}
}

func TestTasks_RequireAuth(t *testing.T) {
	api := newTestAPI(t, Options{})

	for _, tc := range []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer nonsense"},
		{"empty token", "Bearer "},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var r apiResponse
			if tc.header == "" {
				r = api.do(http.MethodGet, "/tasks", nil, "")
			} else {
				r = api.do(http.MethodGet, "/tasks", nil, "", "Authorization", tc.header)
			}
			assert.Equal(t, http.StatusUnauthorized, r.status)
			assert.Equal(t, "Bearer", r.header.Get("WWW-Authenticate"))
			assert.Equal(t, ErrCodeUnauthorized, r.errorInfo(t).Code)
		})
	}
}

func TestTasks_CRUD(t *testing.T) {
	api := newTestAPI(t, Options{})
	token := api.signUp("alice@example.com")

	r := api.do(http.MethodGet, "/tasks", nil, token)
	require.Equal(t, http.StatusOK, r.status)
	assert.JSONEq(t, `[]`, string(r.body))

	task := api.createTask(token, map[string]any{
		"title":       "Buy groceries",
		"description": "milk",
		"priority":    "high",
		"due_date":    "2025-06-01T09:00:00",
	})
	assert.Equal(t, "pending", task.Status)
	assert.Equal(t, "high", task.Priority)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))

	r = api.do(http.MethodGet, "/tasks/"+task.ID, nil, token)
	require.Equal(t, http.StatusOK, r.status)
	var got TaskResponse
	r.decode(t, &got)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "Buy groceries", got.Title)

	r = api.do(http.MethodPut, "/tasks/"+task.ID, map[string]any{"title": "Buy more groceries"}, token)
	require.Equal(t, http.StatusOK, r.status, string(r.body))
	var updated TaskResponse
	r.decode(t, &updated)
	assert.Equal(t, "Buy more groceries", updated.Title)
	assert.Equal(t, "high", updated.Priority)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "milk", *updated.Description)

	r = api.do(http.MethodPatch, "/tasks/"+task.ID+"/status", map[string]any{"status": "completed"}, token)
	require.Equal(t, http.StatusOK, r.status, string(r.body))
	r.decode(t, &updated)
	assert.Equal(t, "completed", updated.Status)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	r = api.do(http.MethodDelete, "/tasks/"+task.ID, nil, token)
	require.Equal(t, http.StatusOK, r.status)
	assert.JSONEq(t, `{"success":true}`, string(r.body))

	r = api.do(http.MethodGet, "/tasks/"+task.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, ErrCodeNotFound, r.errorInfo(t).Code)

	r = api.do(http.MethodGet, "/tasks/not-a-uuid", nil, token)
	assert.Equal(t, http.StatusNotFound, r.status)
}

func TestTasks_ValidationErrors(t *testing.T) {
	api := newTestAPI(t, Options{})
	token := api.signUp("v@example.com")

	r := api.do(http.MethodPost, "/tasks", map[string]any{"description": "no title"}, token)
	require.Equal(t, http.StatusBadRequest, r.status)
	info := r.errorInfo(t)
	assert.Equal(t, ErrCodeValidation, info.Code)
	assert.Contains(t, string(r.body), `"field":"title"`)

	r = api.do(http.MethodPost, "/tasks", map[string]any{"title": strings.Repeat("x", 201)}, token)
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = api.do(http.MethodPost, "/tasks", map[string]any{"title": strings.Repeat("x", 200)}, token)
	assert.Equal(t, http.StatusCreated, r.status)

	r = api.do(http.MethodPost, "/tasks", map[string]any{"title": "t", "status": "Completed"}, token)
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = api.do(http.MethodPost, "/tasks", map[string]any{"title": "t", "due_date": "next tuesday"}, token)
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = api.do(http.MethodGet, "/tasks?status=archived", nil, token)
	assert.Equal(t, http.StatusBadRequest, r.status)

	task := api.createTask(token, map[string]any{"title": "t"})
	r = api.do(http.MethodPatch, "/tasks/"+task.ID+"/status", map[string]any{"status": "done"}, token)
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = api.do(http.MethodPut, "/tasks/"+task.ID, map[string]any{"title": "   "}, token)
	assert.Equal(t, http.StatusBadRequest, r.status)
}

func TestTasks_ListFilters(t *testing.T) {
	api := newTestAPI(t, Options{})
	token := api.signUp("f@example.com")

	api.createTask(token, map[string]any{"title": "Write report", "priority": "high"})
	api.createTask(token, map[string]any{"title": "Walk dog", "status": "completed", "description": "Around the REPORT office"})
	api.createTask(token, map[string]any{"title": "Cook", "priority": "high", "status": "in_progress"})

	count := func(query string) int {
		r := api.do(http.MethodGet, "/tasks"+query, nil, token)
		require.Equal(t, http.StatusOK, r.status, string(r.body))
		var list []TaskResponse
		r.decode(t, &list)
		return len(list)
	}

	assert.Equal(t, 3, count(""))
	assert.Equal(t, 2, count("?priority=high"))
	assert.Equal(t, 1, count("?status=completed"))
	assert.Equal(t, 2, count("?search=report"))
	assert.Equal(t, 1, count("?search=report&priority=high"))
	assert.Equal(t, 0, count("?search=report&status=in_progress"))
	assert.Equal(t, 3, count("?search=%20%20"))
}

func TestTasks_ForeignAccess(t *testing.T) {
	for _, tc := range []struct {
		name       string
		hide       bool
		wantStatus int
	}{
		{"forbidden", false, http.StatusForbidden},
		{"hidden", true, http.StatusNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI(t, Options{HideForeignTasks: tc.hide})
			alice := api.signUp("alice@example.com")
			bob := api.signUp("bob@example.com")

			task := api.createTask(alice, map[string]any{"title": "private"})

			r := api.do(http.MethodGet, "/tasks/"+task.ID, nil, bob)
			assert.Equal(t, tc.wantStatus, r.status)
			r = api.do(http.MethodPut, "/tasks/"+task.ID, map[string]any{"title": "mine now"}, bob)
			assert.Equal(t, tc.wantStatus, r.status)
			r = api.do(http.MethodPatch, "/tasks/"+task.ID+"/status", map[string]any{"status": "completed"}, bob)
			assert.Equal(t, tc.wantStatus, r.status)
			r = api.do(http.MethodDelete, "/tasks/"+task.ID, nil, bob)
			assert.Equal(t, tc.wantStatus, r.status)

			r = api.do(http.MethodGet, "/tasks", nil, bob)
			assert.JSONEq(t, `[]`, string(r.body))

			r = api.do(http.MethodGet, "/tasks/"+task.ID, nil, alice)
			require.Equal(t, http.StatusOK, r.status)
			var got TaskResponse
			r.decode(t, &got)
			assert.Equal(t, "private", got.Title)
			assert.Equal(t, "pending", got.Status)
		})
	}
}

func TestRequestID(t *testing.T) {
	api := newTestAPI(t, Options{})

	r := api.do(http.MethodGet, "/health", nil, "", RequestIDHeader, "req-123")
	assert.Equal(t, "req-123", r.header.Get(RequestIDHeader))

	r = api.do(http.MethodGet, "/health", nil, "")
	assert.NotEmpty(t, r.header.Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t, Options{CORSAllowOrigins: "http://localhost:3000"})

	r := api.do(http.MethodOptions, "/tasks", nil, "",
		"Origin", "http://localhost:3000",
		"Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, r.status)
	assert.Equal(t, "http://localhost:3000", r.header.Get("Access-Control-Allow-Origin"))
}

type brokenTasks struct{ TaskService }

func (brokenTasks) List(context.Context, string, models.TaskFilter) ([]*models.Task, error) {
	return nil, errors.New("db error: connection to 10.0.0.5 exploded")
}

func (brokenTasks) Create(context.Context, string, services.TaskFields) (*models.Task, error) {
	return nil, common.ErrAlreadyExists
}

type stubUsers struct{ UserService }

func (stubUsers) Validate(context.Context, string) (*models.User, error) {
	return &models.User{ID: "u-1", Email: "u@example.com"}, nil
}

type downHealth struct{}

func (downHealth) Check(context.Context) (services.Health, error) {
	return services.Health{Status: services.HealthStatusUnhealthy, Version: "1.0.0"}, errors.New("ping failed")
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	srv := NewServer("127.0.0.1:0", logging.Nop{}, stubUsers{}, brokenTasks{}, downHealth{}, Options{})
	api := &testAPI{t: t, server: srv}

	r := api.do(http.MethodGet, "/tasks", nil, "any-token")
	assert.Equal(t, http.StatusInternalServerError, r.status)
	assert.Equal(t, ErrCodeInternalError, r.errorInfo(t).Code)
	assert.NotContains(t, string(r.body), "exploded")

	r = api.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, r.status)
	var h HealthResponse
	r.decode(t, &h)
	assert.Equal(t, "unhealthy", h.Status)
}

func TestConflictMessageIsGeneric(t *testing.T) {
	srv := NewServer("127.0.0.1:0", logging.Nop{}, stubUsers{}, brokenTasks{}, downHealth{}, Options{})
	api := &testAPI{t: t, server: srv}

	r := api.do(http.MethodPost, "/tasks", map[string]string{"title": "dup"}, "any-token")
	assert.Equal(t, http.StatusConflict, r.status)
	info := r.errorInfo(t)
	assert.Equal(t, ErrCodeConflict, info.Code)
	assert.Equal(t, "resource already exists", info.Message)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := NewServer("127.0.0.1:0", logging.Nop{}, stubUsers{}, brokenTasks{}, downHealth{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewServer("127.0.0.1:99999", logging.Nop{}, stubUsers{}, brokenTasks{}, downHealth{}, Options{})
	require.Error(t, srv.Run(context.Background()))
}
