package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/layout"
	"github.com/dd0wney/graphem/pkg/metrics"
	"github.com/dd0wney/graphem/pkg/snapshot"
)

func testEngine(t *testing.T) *layout.Engine {
	t.Helper()
	edges := []graph.Edge{}
	for i := 1; i <= 8; i++ {
		edges = append(edges, graph.Edge{U: 0, V: i})
	}
	p := layout.DefaultParams()
	p.LMin = 1
	p.Dimension = 2
	e, err := layout.New(graph.MustNew(9, edges), p, layout.WithSeed(3))
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func testServer(t *testing.T, store snapshot.Store) (*Server, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	return New(testEngine(t), Options{Metrics: reg, Store: store, MaxIterations: 50}), reg
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, nil)
	rec := do(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	h := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "initialized", h.State)
	assert.Equal(t, 9, h.Vertices)
	assert.Equal(t, 8, h.Edges)
}

func TestRunAndPositions(t *testing.T) {
	s, reg := testServer(t, nil)

	rec := do(t, s, http.MethodPost, "/v1/run?iterations=5")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := decode[RunResponse](t, rec)
	assert.Equal(t, 5, run.Ran)
	assert.Equal(t, 5, run.Iterations)

	pos := decode[PositionsResponse](t, do(t, s, http.MethodGet, "/v1/positions"))
	assert.Equal(t, 5, pos.Iteration)
	assert.Equal(t, 2, pos.Dimension)
	assert.Len(t, pos.Positions, 9)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("POST", "/v1/run", "200")))
}

func TestRun_BadRequests(t *testing.T) {
	s, _ := testServer(t, nil)
	for _, target := range []string{"/v1/run?iterations=-1", "/v1/run?iterations=abc", "/v1/run?iterations=51"} {
		rec := do(t, s, http.MethodPost, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, http.StatusBadRequest, decode[ErrorResponse](t, rec).Code)
	}
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodGet, "/v1/run").Code)
}

func TestRun_Closed(t *testing.T) {
	s, _ := testServer(t, nil)
	require.NoError(t, s.engine.Close())
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/v1/run?iterations=1").Code)
}

func TestRun_Conflict(t *testing.T) {
	s, _ := testServer(t, nil)
	done := make(chan error, 1)
	go func() { done <- s.engine.RunLayout(100000) }()
	require.Eventually(t, func() bool { return s.engine.State() == layout.Running }, 5*time.Second, time.Millisecond)

	rec := do(t, s, http.MethodPost, "/v1/run?iterations=1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, decode[ErrorResponse](t, rec).Code)

	require.NoError(t, <-done)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/v1/run?iterations=1").Code)
}

func TestNew_DefaultMaxIterations(t *testing.T) {
	s := New(testEngine(t), Options{})
	assert.Equal(t, 10000, s.maxIterations)
}

func TestSeeds(t *testing.T) {
	s, _ := testServer(t, nil)
	rec := do(t, s, http.MethodGet, "/v1/seeds?k=3")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SeedsResponse](t, rec)
	assert.Len(t, resp.Seeds, 3)
	assert.Len(t, resp.Radii, 3)
	assert.LessOrEqual(t, resp.Radii[0], resp.Radii[1])

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/v1/seeds?k=x").Code)
}

func TestLayout(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := do(t, s, http.MethodGet, "/v1/layout.json?title=star")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"title":"star"`)

	rec = do(t, s, http.MethodGet, "/v1/layout.dot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "graph G {"))

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/v1/layout.gif").Code)
}

func TestSnapshots(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir(), snapshot.CodecZstd)
	require.NoError(t, err)
	s, _ := testServer(t, store)

	do(t, s, http.MethodPost, "/v1/run?iterations=2")
	rec := do(t, s, http.MethodPost, "/v1/snapshots/")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[map[string]any](t, rec)
	key := saved["key"].(string)

	list := decode[map[string][]string](t, do(t, s, http.MethodGet, "/v1/snapshots/"))
	assert.Equal(t, []string{key}, list["keys"])

	do(t, s, http.MethodPost, "/v1/run?iterations=3")
	rec = do(t, s, http.MethodPost, "/v1/snapshots/restore?key="+key)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, s.engine.Iterations())

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/v1/snapshots/restore?key=nope.gems").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/v1/snapshots/restore").Code)
}

func TestSnapshots_NoStore(t *testing.T) {
	s, _ := testServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/v1/snapshots/").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/v1/snapshots/restore?key=a.gems").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := testServer(t, nil)
	do(t, s, http.MethodGet, "/healthz")
	rec := do(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graphem_http_requests_total")
}
