// internal/todoist/client.go
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/steveyegge/todoq/internal/repository"
	"github.com/steveyegge/todoq/internal/telemetry"
	"github.com/steveyegge/todoq/internal/types"
)

const (
	DefaultBaseURL    = "https://api.todoist.com"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxElapsed = 30 * time.Second

	syncPath = "/sync/v9/sync"
)

// Sync API resource types the client keeps tokens for.
const (
	ResourceProjects = "projects"
	ResourceSections = "sections"
	ResourceLabels   = "labels"
)

const instrumentationName = "github.com/steveyegge/todoq/todoist"

var apiMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

var apiMetricsOnce sync.Once

func initAPIMetrics() {
	m := telemetry.Meter(instrumentationName)
	apiMetrics.requests, _ = m.Int64Counter("todoq.api.requests",
		metric.WithDescription("Todoist API requests, including retries"),
		metric.WithUnit("{request}"),
	)
	apiMetrics.duration, _ = m.Float64Histogram("todoq.api.request.duration",
		metric.WithDescription("Todoist API call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
}

// Client talks to the Todoist REST v2 API for tasks and the Sync v9 API for
// projects, sections and labels. Metadata is fetched incrementally: the
// client remembers one sync token per resource type.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client

	// MaxElapsed bounds the total time spent retrying one call.
	MaxElapsed time.Duration
	// InitialInterval is the first retry delay; zero uses the backoff default.
	InitialInterval time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

// NewClient creates a new Todoist client. An empty baseURL selects the
// public API.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		MaxElapsed: DefaultMaxElapsed,
		tokens:     make(map[string]string),
	}
}

func (c *Client) newBackoff(ctx context.Context) backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.MaxElapsed
	if c.InitialInterval > 0 {
		bo.InitialInterval = c.InitialInterval
	}
	return backoff.WithContext(bo, ctx)
}

// request sends one logical API call, retrying rate limits, server errors
// and transport failures with exponential backoff. Form bodies (url.Values)
// are sent form-encoded, anything else as JSON.
func (c *Client) request(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	apiMetricsOnce.Do(initAPIMetrics)

	ctx, span := telemetry.Tracer(instrumentationName).Start(ctx, "todoist."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)
	start := time.Now()

	var payload []byte
	var contentType string
	switch b := body.(type) {
	case nil:
	case url.Values:
		payload = []byte(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		jsonBody, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = jsonBody
		contentType = "application/json"
	}

	// One id per logical call so the server can drop duplicate retries.
	var requestID string
	if method != http.MethodGet && strings.HasPrefix(path, "/rest/") {
		requestID = uuid.NewString()
	}

	var respBody []byte
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if requestID != "" {
			req.Header.Set("X-Request-Id", requestID)
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("request failed (attempt %d): %w", attempts, err)
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		apiMetrics.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("todoq.api.op", op),
			attribute.Int("http.response.status_code", resp.StatusCode),
		))
		if err != nil {
			return fmt.Errorf("failed to read response (attempt %d): %w", attempts, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Body: string(data)}
			if apiErr.Temporary() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}
		respBody = data
		return nil
	}, c.newBackoff(ctx))

	apiMetrics.duration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(attribute.String("todoq.api.op", op)))
	span.SetAttributes(attribute.Int("todoq.api.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return respBody, nil
}

// GetTasks returns the active tasks matching a Todoist filter expression.
func (c *Client) GetTasks(ctx context.Context, filter string) ([]Task, error) {
	params := url.Values{}
	if filter != "" {
		params.Set("filter", filter)
	}
	path := "/rest/v2/tasks"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.request(ctx, "tasks.list", http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	var tasks []Task
	if err := json.Unmarshal(resp, &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask creates a task and returns it as stored by the server.
func (c *Client) CreateTask(ctx context.Context, content string, params CreateTaskParams) (*Task, error) {
	body := createTaskRequest{Content: content, CreateTaskParams: params}

	resp, err := c.request(ctx, "tasks.create", http.MethodPost, "/rest/v2/tasks", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	var created Task
	if err := json.Unmarshal(resp, &created); err != nil {
		return nil, fmt.Errorf("failed to parse created task: %w", err)
	}
	return &created, nil
}

// CloseTask completes a task.
func (c *Client) CloseTask(ctx context.Context, id string) error {
	path := fmt.Sprintf("/rest/v2/tasks/%s/close", url.PathEscape(id))
	if _, err := c.request(ctx, "tasks.close", http.MethodPost, path, nil); err != nil {
		return fmt.Errorf("failed to close task %s: %w", id, err)
	}
	return nil
}

// syncResource runs one incremental Sync API read for a single resource
// type. The stored token advances only after the response parsed.
func (c *Client) syncResource(ctx context.Context, resource string) (*syncResponse, error) {
	c.mu.Lock()
	token := c.tokens[resource]
	c.mu.Unlock()
	if token == "" {
		token = "*"
	}

	form := url.Values{}
	form.Set("sync_token", token)
	form.Set("resource_types", `["`+resource+`"]`)

	resp, err := c.request(ctx, "sync."+resource, http.MethodPost, syncPath, form)
	if err != nil {
		return nil, err
	}

	var sr syncResponse
	if err := json.Unmarshal(resp, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse %s sync response: %w", resource, err)
	}

	c.mu.Lock()
	if sr.SyncToken != "" {
		c.tokens[resource] = sr.SyncToken
	}
	c.mu.Unlock()
	return &sr, nil
}

// GetProjects returns the projects changed since the previous call.
func (c *Client) GetProjects(ctx context.Context) (repository.Delta[types.Project], error) {
	sr, err := c.syncResource(ctx, ResourceProjects)
	if err != nil {
		return repository.Delta[types.Project]{}, err
	}
	items := make([]types.Project, 0, len(sr.Projects))
	for _, p := range sr.Projects {
		items = append(items, p.toDomain())
	}
	return repository.Delta[types.Project]{Items: items, Full: sr.FullSync}, nil
}

// GetSections returns the sections changed since the previous call.
func (c *Client) GetSections(ctx context.Context) (repository.Delta[types.Section], error) {
	sr, err := c.syncResource(ctx, ResourceSections)
	if err != nil {
		return repository.Delta[types.Section]{}, err
	}
	items := make([]types.Section, 0, len(sr.Sections))
	for _, s := range sr.Sections {
		items = append(items, s.toDomain())
	}
	return repository.Delta[types.Section]{Items: items, Full: sr.FullSync}, nil
}

// GetLabels returns the labels changed since the previous call.
func (c *Client) GetLabels(ctx context.Context) (repository.Delta[types.Label], error) {
	sr, err := c.syncResource(ctx, ResourceLabels)
	if err != nil {
		return repository.Delta[types.Label]{}, err
	}
	items := make([]types.Label, 0, len(sr.Labels))
	for _, l := range sr.Labels {
		items = append(items, l.toDomain())
	}
	return repository.Delta[types.Label]{Items: items, Full: sr.FullSync}, nil
}

// ValidateToken fetches the user the token belongs to. A 401 or 403
// APIError means the token is not usable.
func (c *Client) ValidateToken(ctx context.Context) (*User, error) {
	form := url.Values{}
	form.Set("sync_token", "*")
	form.Set("resource_types", `["user"]`)

	resp, err := c.request(ctx, "sync.user", http.MethodPost, syncPath, form)
	if err != nil {
		return nil, err
	}
	var ur userSyncResponse
	if err := json.Unmarshal(resp, &ur); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	return &ur.User, nil
}

// SyncTokens returns a copy of the per-resource sync tokens.
func (c *Client) SyncTokens() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.tokens)
}

// RestoreSyncTokens seeds the per-resource sync tokens, typically from a
// persisted snapshot whose entities were already loaded.
func (c *Client) RestoreSyncTokens(tokens map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range tokens {
		c.tokens[k] = v
	}
}

// ResetSyncTokens forces the next metadata reads to be full syncs.
func (c *Client) ResetSyncTokens() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.tokens)
}
