package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shinji-kodama/release-runner/internal/logging"
	"github.com/shinji-kodama/release-runner/internal/metrics"
	"github.com/shinji-kodama/release-runner/internal/model"
)

// API is the subset of the hosting REST API the release depends on.
type API interface {
	ListWorkflows(ctx context.Context) ([]model.Workflow, error)
	ListWorkflowRuns(ctx context.Context, workflowID int64) ([]model.RemoteRun, error)
	GetRun(ctx context.Context, runID int64) (*model.RemoteRun, error)
	LatestRelease(ctx context.Context) (*model.Release, error)
}

// defaultHTTPTimeout bounds a single request. The overall wait is bounded
// separately by the poller timeout.
const defaultHTTPTimeout = 30 * time.Second

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("GET %s: %d", e.URL, e.StatusCode)
}

// REST implements API over net/http for one repository.
type REST struct {
	BaseURL string
	Owner   string
	Repo    string
	Token   string

	HTTP    *http.Client
	Log     zerolog.Logger
	Metrics *metrics.Metrics
}

// NewREST creates a REST client for owner/repo authenticated with token.
func NewREST(baseURL, owner, repo, token string, log zerolog.Logger, m *metrics.Metrics) *REST {
	return &REST{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Owner:   owner,
		Repo:    repo,
		Token:   token,
		HTTP:    &http.Client{Timeout: defaultHTTPTimeout},
		Log:     logging.Component(log, "api"),
		Metrics: m,
	}
}

// ListWorkflows returns the workflow definitions of the repository.
func (c *REST) ListWorkflows(ctx context.Context) ([]model.Workflow, error) {
	var body struct {
		Workflows []model.Workflow `json:"workflows"`
	}
	if err := c.get(ctx, "workflows", &body, "actions", "workflows"); err != nil {
		return nil, err
	}
	return body.Workflows, nil
}

// ListWorkflowRuns returns the most recent runs of one workflow.
func (c *REST) ListWorkflowRuns(ctx context.Context, workflowID int64) ([]model.RemoteRun, error) {
	var body struct {
		WorkflowRuns []model.RemoteRun `json:"workflow_runs"`
	}
	id := strconv.FormatInt(workflowID, 10)
	if err := c.get(ctx, "workflow_runs", &body, "actions", "workflows", id, "runs?per_page=100"); err != nil {
		return nil, err
	}
	return body.WorkflowRuns, nil
}

// GetRun returns one run by id.
func (c *REST) GetRun(ctx context.Context, runID int64) (*model.RemoteRun, error) {
	var run model.RemoteRun
	if err := c.get(ctx, "run", &run, "actions", "runs", strconv.FormatInt(runID, 10)); err != nil {
		return nil, err
	}
	return &run, nil
}

// LatestRelease returns the most recent published release.
func (c *REST) LatestRelease(ctx context.Context) (*model.Release, error) {
	var rel model.Release
	if err := c.get(ctx, "latest_release", &rel, "releases", "latest"); err != nil {
		return nil, err
	}
	return &rel, nil
}

// get performs GET {base}/repos/{owner}/{repo}/{parts...} and decodes
// the JSON body into out. endpoint is only a metrics label.
func (c *REST) get(ctx context.Context, endpoint string, out interface{}, parts ...string) error {
	url := strings.Join(append([]string{c.BaseURL, "repos", c.Owner, c.Repo}, parts...), "/")
	c.Log.Debug().Str("url", url).Msg("API call")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Metrics.APIRequest(endpoint, "error")
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.Metrics.APIRequest(endpoint, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, URL: url}
		var msg struct {
			Message string `json:"message"`
		}
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); readErr == nil {
			if json.Unmarshal(data, &msg) == nil {
				apiErr.Message = msg.Message
			}
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
