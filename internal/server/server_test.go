package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/antpack/pkg/cache"
	"github.com/matzehuels/antpack/pkg/metrics"
	"github.com/matzehuels/antpack/pkg/pipeline"
)

const testID = "6f1c1a52-3a5e-4b8e-9a0c-5d2f5c1e8b11"

func newTestServer(t *testing.T, cfg Config) (*Server, *metrics.Registry) {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	logger := log.New(io.Discard)
	reg := metrics.NewRegistry()
	s := New(cfg, pipeline.NewRunner(fc, nil, logger), reg, logger)
	s.newID = func() string { return testID }
	return s, reg
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

const perfectSplit = `{
	"name": "perfect",
	"bins": 2,
	"items": [1, 2, 3, 4],
	"optimizer": {"batch_size": 10, "evaluation_budget": 100, "seed": 7}
}`

func TestSolveAndFetch(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s, http.MethodPost, "/v1/solve", perfectSplit)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/v1/results/"+testID, rec.Header().Get("Location"))

	var created SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, testID, created.ID)
	require.NotNil(t, created.Result.Fitness)
	assert.Zero(t, *created.Result.Fitness)
	assert.Equal(t, 100, created.Result.Evaluations)
	assert.Equal(t, []int{5, 5}, created.Result.BinWeights)
	require.Len(t, created.Runs, 1)
	assert.Equal(t, uint64(7), created.Runs[0].Seed)

	rec = do(t, s, http.MethodGet, "/v1/results/"+testID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created, fetched)
}

func TestSolveMultipleRuns(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	body := `{"bins": 3, "generator": {"kind": "sequence", "count": 9},
		"optimizer": {"batch_size": 20, "evaluation_budget": 200, "seed": 1}, "runs": 3}`
	rec := do(t, s, http.MethodPost, "/v1/solve", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 3)
	best := resp.Runs[resp.BestRun].Fitness
	for _, r := range resp.Runs {
		assert.GreaterOrEqual(t, r.Fitness, best)
	}
	assert.Equal(t, best, *resp.Result.Fitness)
}

func TestSolveRejectsBadRequests(t *testing.T) {
	s, _ := newTestServer(t, Config{MaxItems: 5, MaxBins: 4, MaxBudget: 1000})

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"bins":`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown field", `{"bins": 2, "items": [1], "colour": "red"}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"no bins", `{"items": [1, 2]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"no items", `{"bins": 2}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"too many items", `{"bins": 2, "items": [1, 2, 3, 4, 5, 6]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"too many bins", `{"bins": 5, "items": [1, 2]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"budget over limit", `{"bins": 2, "items": [1, 2], "optimizer": {"evaluation_budget": 5000}}`, http.StatusBadRequest, "INVALID_CONFIGURATION"},
		{"runs over limit", `{"bins": 2, "items": [1, 2], "optimizer": {"evaluation_budget": 10}, "runs": 101}`, http.StatusBadRequest, "INVALID_CONFIGURATION"},
		{"budget overflows", `{"bins": 2, "items": [1, 2], "optimizer": {"evaluation_budget": 9223372036854775807}}`, http.StatusBadRequest, "INVALID_CONFIGURATION"},
		{"runs overflow total", `{"bins": 2, "items": [1, 2], "optimizer": {"evaluation_budget": 10}, "runs": 9223372036854775807}`, http.StatusBadRequest, "INVALID_CONFIGURATION"},
		{"bad rate", `{"bins": 2, "items": [1, 2], "optimizer": {"evaporation_rate": 1.5}}`, http.StatusBadRequest, "INVALID_CONFIGURATION"},
		{"bad fitness", `{"bins": 2, "items": [1, 2], "optimizer": {"fitness": "nope"}}`, http.StatusBadRequest, "INVALID_CONFIGURATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/solve", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestSolveBodyLimit(t *testing.T) {
	s, _ := newTestServer(t, Config{MaxBodyBytes: 16})
	rec := do(t, s, http.MethodPost, "/v1/solve", perfectSplit)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestGetResultNotFound(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	for _, id := range []string{testID, "not-a-uuid"} {
		rec := do(t, s, http.MethodGet, "/v1/results/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
	}
}

func TestGraph(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/v1/solve", perfectSplit).Code)

	rec := do(t, s, http.MethodGet, "/v1/results/"+testID+"/graph?format=dot", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "graphviz")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("digraph")))
	assert.Contains(t, rec.Body.String(), "firebrick")

	rec = do(t, s, http.MethodGet, "/v1/results/"+testID+"/graph?format=gif", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/v1/results/"+testID+"/graph?format=dot&path_only=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndVersion(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var h healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, "ok", h.Status)

	rec = do(t, s, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}

func TestMetricsRecordRoutes(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	do(t, s, http.MethodGet, "/healthz", "")
	do(t, s, http.MethodGet, "/v1/results/"+testID, "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `antpack_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, body, `route="/v1/results/{id}",status="404"`)
	assert.NotContains(t, body, testID)
}

func TestStatusFor(t *testing.T) {
	status, code := statusFor(io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", code)
}
