package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskdash/internal/models"
	"taskdash/internal/store"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "TASKDASH_HTTP_TIMEOUT"
	apiTokenEnvKey     = "TASKDASH_API_TOKEN"

	// localBackendPort is where a backend runs next to a local dashboard.
	localBackendPort = "8080"

	listLimit = 1000
)

// Options tunes a Client. Zero values select the defaults.
type Options struct {
	Timeout time.Duration
	Token   string
	Logger  *slog.Logger
}

// Client is the remote RecordStore, speaking the backend's REST contract.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
	logger    *slog.Logger
}

var _ store.RecordStore = (*Client)(nil)

// NewClient creates a new API client.
func NewClient(baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = httpTimeoutFromEnv()
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(apiTokenEnvKey))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		authToken: token,
		logger:    logger.With("component", "api_client"),
	}
}

// BaseURL returns the resolved backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveBaseURL picks the backend base URL: the configured URL when set;
// else port 8080 on a localhost origin; else the origin itself.
func ResolveBaseURL(configured, origin string) (string, error) {
	if configured = strings.TrimSpace(configured); configured != "" {
		return strings.TrimRight(configured, "/"), nil
	}
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return "", fmt.Errorf("backend URL is not configured")
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid origin %q", origin)
	}
	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		return u.Scheme + "://" + host + ":" + localBackendPort, nil
	}
	return u.Scheme + "://" + u.Host, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]models.TaskRecord, error) {
	var resp struct {
		Tasks *[]models.TaskRecord `json:"tasks"`
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(listLimit))
	if err := c.do(ctx, http.MethodGet, "/db/tasks", query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		return nil, &ProtocolError{Status: http.StatusOK, Err: fmt.Errorf("task list response has no tasks")}
	}
	return *resp.Tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, payload models.CreateTaskPayload) (models.TaskRecord, error) {
	if err := payload.Validate(); err != nil {
		return models.TaskRecord{}, err
	}
	body, err := withTaskType(payload, string(models.TypeTask))
	if err != nil {
		return models.TaskRecord{}, err
	}
	var resp models.TaskRecord
	err = c.do(ctx, http.MethodPost, "/db/tasks", nil, body, &resp)
	return resp, err
}

func (c *Client) CreateSubTask(ctx context.Context, payload models.CreateSubTaskPayload) (models.TaskRecord, error) {
	if err := payload.Validate(); err != nil {
		return models.TaskRecord{}, err
	}
	body, err := withTaskType(payload, string(models.TypeSubtask))
	if err != nil {
		return models.TaskRecord{}, err
	}
	var resp models.TaskRecord
	err = c.do(ctx, http.MethodPost, "/db/tasks/sub-task", nil, body, &resp)
	return resp, err
}

// UpdateTask sends only the mutable fields.
func (c *Client) UpdateTask(ctx context.Context, taskID string, payload models.UpdateTaskPayload) (models.TaskRecord, error) {
	var resp models.TaskRecord
	err := c.do(ctx, http.MethodPut, "/db/tasks/"+url.PathEscape(taskID), nil, payload.WithoutIdentity(), &resp)
	return resp, err
}

// UpdateSubTask sends only the mutable fields.
func (c *Client) UpdateSubTask(ctx context.Context, subTaskID string, payload models.UpdateTaskPayload) (models.TaskRecord, error) {
	var resp models.TaskRecord
	err := c.do(ctx, http.MethodPut, "/db/tasks/sub-task/"+url.PathEscape(subTaskID), nil, payload.WithoutIdentity(), &resp)
	return resp, err
}

func (c *Client) ImportFromJira(ctx context.Context, payload models.JiraImportPayload) (models.TaskRecord, error) {
	if err := payload.Validate(); err != nil {
		return models.TaskRecord{}, err
	}
	var resp models.TaskRecord
	err := c.do(ctx, http.MethodPost, "/db/tasks/import-from-jira", nil, payload, &resp)
	return resp, err
}

func (c *Client) Orchestrate(ctx context.Context, payload models.TaskRunPayload) (models.Ack, error) {
	return c.runAction(ctx, "/tasks/orchestrator", payload)
}

func (c *Client) Start(ctx context.Context, payload models.TaskRunPayload) (models.Ack, error) {
	return c.runAction(ctx, "/tasks/start", payload)
}

func (c *Client) Auto(ctx context.Context, payload models.TaskRunPayload) (models.Ack, error) {
	return c.runAction(ctx, "/tasks/auto", payload)
}

func (c *Client) runAction(ctx context.Context, path string, payload models.TaskRunPayload) (models.Ack, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var raw any
	if err := c.do(ctx, http.MethodPost, path, nil, payload, &raw); err != nil {
		return nil, err
	}
	switch typed := raw.(type) {
	case map[string]any:
		return models.Ack(typed), nil
	case nil:
		return models.Ack{}, nil
	default:
		return models.Ack{"result": typed}, nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	c.setAuthHeader(req)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, URL: endpoint, Err: err}
	}

	var decoded any
	if len(bytes.TrimSpace(text)) > 0 {
		if err := json.Unmarshal(text, &decoded); err != nil {
			return &ProtocolError{Status: resp.StatusCode, Body: strings.TrimSpace(string(text)), Err: err}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, text, decoded)
	}

	if out == nil || decoded == nil {
		return nil
	}

	payload := text
	if envelope, ok := decoded.(map[string]any); ok {
		if data, has := envelope["data"]; has {
			if payload, err = json.Marshal(data); err != nil {
				return &ProtocolError{Status: resp.StatusCode, Err: err}
			}
		}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &ProtocolError{Status: resp.StatusCode, Err: err}
	}
	return nil
}

func decodeError(status int, text []byte, decoded any) error {
	if _, ok := decoded.(map[string]any); ok {
		var body errorBody
		if err := json.Unmarshal(text, &body); err == nil {
			if msg := body.text(); msg != "" {
				return &ServerError{Status: status, Message: msg}
			}
		}
	}
	return &ServerError{Status: status}
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
