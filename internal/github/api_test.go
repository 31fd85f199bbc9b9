package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/release-runner/internal/metrics"
	"github.com/shinji-kodama/release-runner/internal/model"
)

// newTestServer serves canned GitHub responses for owner/repo and fails
// any request without the expected bearer token.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/scruffystuffs/jfmt.rs/actions/workflows", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_count":2,"workflows":[{"id":7,"name":"CI"},{"id":9,"name":"Publish","path":".github/workflows/publish.yml"}]}`))
	})
	mux.HandleFunc("/repos/scruffystuffs/jfmt.rs/actions/workflows/9/runs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`{"total_count":1,"workflow_runs":[{"id":42,"run_number":3,"status":"in_progress","conclusion":null,"head_sha":"abc","head_branch":"master"}]}`))
	})
	mux.HandleFunc("/repos/scruffystuffs/jfmt.rs/actions/runs/42", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":42,"run_number":3,"status":"completed","conclusion":"success","head_sha":"abc","head_branch":"master"}`))
	})
	mux.HandleFunc("/repos/scruffystuffs/jfmt.rs/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"v1.2.4","name":"v1.2.4"}`))
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestREST_Endpoints verifies decoding of every endpoint the release uses.
func TestREST_Endpoints(t *testing.T) {
	srv := newTestServer(t)
	c := NewREST(srv.URL+"/", "scruffystuffs", "jfmt.rs", "test-token", zerolog.Nop(), nil)
	ctx := context.Background()

	workflows, err := c.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, model.Workflow{ID: 9, Name: "Publish", Path: ".github/workflows/publish.yml"}, workflows[1])

	runs, err := c.ListWorkflowRuns(ctx, 9)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(42), runs[0].ID)
	assert.Equal(t, 3, runs[0].RunNumber)
	assert.Equal(t, "abc", runs[0].HeadSHA)
	assert.Empty(t, runs[0].Conclusion, "null conclusion decodes as empty")

	run, err := c.GetRun(ctx, 42)
	require.NoError(t, err)
	assert.True(t, run.IsCompleted())
	assert.Equal(t, model.ConclusionSuccess, run.Conclusion)

	rel, err := c.LatestRelease(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.4", rel.TagName)
}

// TestREST_ErrorStatus verifies that non-2xx responses become APIErrors
// carrying the API's message.
func TestREST_ErrorStatus(t *testing.T) {
	srv := newTestServer(t)
	m := metrics.New()

	bad := NewREST(srv.URL, "scruffystuffs", "jfmt.rs", "wrong", zerolog.Nop(), m)
	_, err := bad.ListWorkflows(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Bad credentials", apiErr.Message)

	good := NewREST(srv.URL, "scruffystuffs", "jfmt.rs", "test-token", zerolog.Nop(), m)
	_, err = good.GetRun(context.Background(), 1)
	require.Error(t, err)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
