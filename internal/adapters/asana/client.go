// Package asana is a minimal client for the board API consumed by the
// fetch binary: token auth, offset pagination, client-side rate limiting,
// and retry with backoff on 429/5xx responses.
package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/okian/flowlens/internal/adapters/source"
	"github.com/okian/flowlens/pkg/logger"
	"github.com/okian/flowlens/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultBaseURL        = "https://app.asana.com/api/1.0"
	defaultRequestsPerSec = 2
	defaultMaxRetries     = 3
	defaultRetryBase      = 500 * time.Millisecond
	defaultTimeout        = 30 * time.Second
	pageLimit             = 100
)

// Client issues authenticated requests against the board API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryBase  time.Duration
	logger     logger.Logger
}

// New creates a client with the given personal access token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSec), 1),
		maxRetries: defaultMaxRetries,
		retryBase:  defaultRetryBase,
		logger:     logger.Get().Named("asana"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// container wraps single-resource API payloads.
type container[T any] struct {
	Data T `json:"data"`
}

// page wraps paginated API payloads.
type page[T any] struct {
	Data     []T       `json:"data"`
	NextPage *nextPage `json:"next_page"`
}

type nextPage struct {
	Offset string `json:"offset"`
}

// do performs one rate-limited GET with retries and decodes the body into out.
func (c *Client) do(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordFetchRetry()
			backoff := c.retryBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("building request for %s: %w", path, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-Id", uuid.NewString())

		start := time.Now()
		metrics.RecordFetchRequest()
		resp, err := c.httpClient.Do(req)
		metrics.RecordFetchLatency(time.Since(start).Seconds())
		if err != nil {
			lastErr = fmt.Errorf("GET %s: %w", path, err)
			c.logger.Warn(ctx, "request failed, will retry", logger.String("path", path), logger.Error(err))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("GET %s: status %d: %w", path, resp.StatusCode, ErrHTTPStatus)
			c.logger.Warn(ctx, "retryable status", logger.String("path", path), logger.Int("status", resp.StatusCode))
			continue
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("GET %s: status %d: %w", path, resp.StatusCode, ErrHTTPStatus)
		}

		if readErr != nil {
			lastErr = fmt.Errorf("GET %s: reading body: %w", path, readErr)
			continue
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("GET %s: decoding body: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("giving up after %d retries: %w", c.maxRetries, lastErr)
}

// getOne fetches a single resource.
func getOne[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var wrapped container[T]
	if err := c.do(ctx, path, query, &wrapped); err != nil {
		var zero T
		return zero, err
	}
	return wrapped.Data, nil
}

// getAll fetches every page of a collection, following offset cursors.
func getAll[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	q.Set("limit", fmt.Sprintf("%d", pageLimit))

	var out []T
	for {
		var p page[T]
		if err := c.do(ctx, path, q, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Data...)
		if p.NextPage == nil || p.NextPage.Offset == "" {
			return out, nil
		}
		q.Set("offset", p.NextPage.Offset)
	}
}

// GetProject fetches one project's identity.
func (c *Client) GetProject(ctx context.Context, gid string) (source.Project, error) {
	q := url.Values{"opt_fields": {"name,created_at"}}
	return getOne[source.Project](ctx, c, "/projects/"+gid, q)
}

// GetProjectSections fetches the stage columns of a project.
func (c *Client) GetProjectSections(ctx context.Context, gid string) (source.ProjectSections, error) {
	q := url.Values{"opt_fields": {"name"}}
	sections, err := getAll[source.Section](ctx, c, "/projects/"+gid+"/sections", q)
	if err != nil {
		return source.ProjectSections{}, err
	}
	return source.ProjectSections{ProjectGID: gid, Sections: sections}, nil
}

// GetProjectTaskGIDs fetches the ids of tasks touched since the horizon.
func (c *Client) GetProjectTaskGIDs(ctx context.Context, gid string, since time.Time) (source.ProjectTaskGIDs, error) {
	q := url.Values{
		"opt_fields":     {"gid"},
		"modified_since": {since.Format(time.RFC3339)},
	}
	refs, err := getAll[source.GIDRef](ctx, c, "/projects/"+gid+"/tasks", q)
	if err != nil {
		return source.ProjectTaskGIDs{}, err
	}
	gids := make([]string, 0, len(refs))
	for _, ref := range refs {
		gids = append(gids, ref.GID)
	}
	return source.ProjectTaskGIDs{ProjectGID: gid, TaskGIDs: gids}, nil
}

// GetTask fetches one task with its memberships.
func (c *Client) GetTask(ctx context.Context, gid string) (source.Task, error) {
	q := url.Values{"opt_fields": {"name,created_at,completed,completed_at,assignee.gid,memberships.section.gid"}}
	return getOne[source.Task](ctx, c, "/tasks/"+gid, q)
}

// GetTaskStories fetches one task's activity stories.
func (c *Client) GetTaskStories(ctx context.Context, gid string) (source.TaskStories, error) {
	q := url.Values{"opt_fields": {"created_at,resource_subtype,text"}}
	stories, err := getAll[source.Story](ctx, c, "/tasks/"+gid+"/stories", q)
	if err != nil {
		return source.TaskStories{}, err
	}
	return source.TaskStories{TaskGID: gid, Stories: stories}, nil
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, gid string) (source.User, error) {
	q := url.Values{"opt_fields": {"name,email"}}
	return getOne[source.User](ctx, c, "/users/"+gid, q)
}
