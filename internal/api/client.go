// Package api is the HTTP client for the task API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/balkashynov/taskboard/internal/auth"
	"github.com/balkashynov/taskboard/internal/metrics"
	"github.com/balkashynov/taskboard/internal/models"
)

// ErrUnauthorized matches any 401 response
var ErrUnauthorized = errors.New("unauthorized")

// HTTPError is a non-2xx response
type HTTPError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}

// Client calls the task API
type Client struct {
	baseURL string
	tokens  auth.Source
	client  *http.Client
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient swaps the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithLogger logs requests at debug level
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for baseURL ("http://host:8000/api/v1").
// tokens may be nil for a client that only logs in.
func NewClient(baseURL string, tokens auth.Source, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{baseURL: baseURL, tokens: tokens, client: &http.Client{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges email and password for an access token
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "/auth/login", false,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &resp)
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errors.New("login response carried no access token")
	}
	return resp.AccessToken, nil
}

// Me returns the logged in user
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.getJSON(ctx, "/auth/me", "/auth/me", &user)
	return user, err
}

// Dashboard returns the dashboard summary
func (c *Client) Dashboard(ctx context.Context) (models.Dashboard, error) {
	var dash models.Dashboard
	err := c.getJSON(ctx, "/dashboard/", "/dashboard", &dash)
	return dash, err
}

// ListTasks returns the tasks of projectID, or every task of the user when
// projectID is empty.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	path := "/tasks/"
	if projectID != "" {
		path += "?project_id=" + url.QueryEscape(projectID)
	}
	var tasks []models.Task
	if err := c.getJSON(ctx, path, "/tasks", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// PrioritizedTasks returns the user's open tasks across every project,
// most pressing first. A non-positive limit leaves it to the server.
func (c *Client) PrioritizedTasks(ctx context.Context, limit int) ([]models.Task, error) {
	path := "/tasks/prioritize/"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var tasks []models.Task
	if err := c.getJSON(ctx, path, "/tasks/prioritize", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns one task
func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	var task models.Task
	err := c.getJSON(ctx, "/tasks/"+url.PathEscape(id), "/tasks/:id", &task)
	return task, err
}

// CreateTask creates a task
func (c *Client) CreateTask(ctx context.Context, create models.TaskCreate) (models.Task, error) {
	var task models.Task
	err := c.sendJSON(ctx, http.MethodPost, "/tasks/", "/tasks", create, &task)
	return task, err
}

// UpdateTask applies a partial update
func (c *Client) UpdateTask(ctx context.Context, id string, update models.TaskUpdate) (models.Task, error) {
	var task models.Task
	err := c.sendJSON(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), "/tasks/:id", update, &task)
	return task, err
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), "/tasks/:id", true, nil, "", nil)
}

// ListProjects returns the user's projects with task counts
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.getJSON(ctx, "/projects/", "/projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns one project
func (c *Client) GetProject(ctx context.Context, id string) (models.Project, error) {
	var project models.Project
	err := c.getJSON(ctx, "/projects/"+url.PathEscape(id), "/projects/:id", &project)
	return project, err
}

// CreateProject creates a project
func (c *Client) CreateProject(ctx context.Context, create models.ProjectCreate) (models.Project, error) {
	var project models.Project
	err := c.sendJSON(ctx, http.MethodPost, "/projects/", "/projects", create, &project)
	return project, err
}

// UpdateProject applies a partial update
func (c *Client) UpdateProject(ctx context.Context, id string, update models.ProjectUpdate) (models.Project, error) {
	var project models.Project
	err := c.sendJSON(ctx, http.MethodPut, "/projects/"+url.PathEscape(id), "/projects/:id", update, &project)
	return project, err
}

// DeleteProject deletes a project and its tasks
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), "/projects/:id", true, nil, "", nil)
}

func (c *Client) getJSON(ctx context.Context, path, route string, dest any) error {
	return c.do(ctx, http.MethodGet, path, route, true, nil, "", dest)
}

func (c *Client) sendJSON(ctx context.Context, method, path, route string, payload, dest any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", method, route, err)
	}
	return c.do(ctx, method, path, route, true, bytes.NewReader(data), "application/json", dest)
}

// do sends one request. route is the path template used as a metric label.
func (c *Client) do(ctx context.Context, method, path, route string, authed bool, body io.Reader, contentType string, dest any) error {
	var token string
	if authed {
		if c.tokens == nil {
			return auth.ErrNotLoggedIn
		}
		t, err := c.tokens.Token()
		if err != nil {
			return err
		}
		token = t
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	metrics.APIRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("status", status),
		zap.Duration("took", time.Since(start)),
	)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readErrorResponse(method, route, resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, route, err)
	}
	return nil
}

// readErrorResponse understands {"detail": "..."} and {"error": "..."}
// bodies. FastAPI validation errors put a list under detail.
func readErrorResponse(method, route string, resp *http.Response) error {
	httpErr := &HTTPError{Method: method, Path: route, Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return httpErr
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if json.Unmarshal(data, &payload) != nil {
		httpErr.Detail = strings.TrimSpace(string(data))
		return httpErr
	}
	if payload.Error != "" {
		httpErr.Detail = payload.Error
		return httpErr
	}
	var detail string
	if json.Unmarshal(payload.Detail, &detail) == nil {
		httpErr.Detail = detail
		return httpErr
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(payload.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			msgs = append(msgs, item.Msg)
		}
		httpErr.Detail = strings.Join(msgs, "; ")
	}
	return httpErr
}
