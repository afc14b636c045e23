package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/client/models"
	"github.com/dmitrijs2005/taskflow/internal/common"
)

// maxErrorBody bounds how much of a non-JSON error body is kept.
const maxErrorBody = 4 << 10

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Register(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.Token, error) {
	var t models.Token
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Health reports the server health. A 503 still yields the decoded body
// together with an error wrapping ErrServer.
func (c *HTTPClient) Health(ctx context.Context) (*models.Health, error) {
	resp, err := c.send(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var h models.Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: decode health response: %v", ErrServer, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &h, fmt.Errorf("%w: server reported %s", ErrServer, h.Status)
	}
	return &h, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Priority != "" {
		q.Set("priority", filter.Priority)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}

	tasks := []*models.Task{}
	if err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *HTTPClient) CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) UpdateTask(ctx context.Context, id string, in models.TaskInput) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), nil, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) UpdateTaskStatus(ctx context.Context, id, status string) (*models.Task, error) {
	var t models.Task
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, taskPath(id)+"/status", nil, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) DeleteTask(ctx context.Context, id string) error {
	var res struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, &res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%w: delete was not acknowledged", ErrServer)
	}
	return nil
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

// do sends a JSON request and decodes a 2xx JSON response into out.
// Any other status is returned as *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	resp, err := c.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrServer, err)
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Error struct {
			Code    string       `json:"code"`
			Message string       `json:"message"`
			Details []FieldError `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Details = envelope.Error.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	return apiErr
}
