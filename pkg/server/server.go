// Package server exposes a layout engine over HTTP: read positions and
// seeds, advance the layout, render it, checkpoint it and scrape metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/graphem/pkg/layout"
	"github.com/dd0wney/graphem/pkg/logging"
	"github.com/dd0wney/graphem/pkg/metrics"
	"github.com/dd0wney/graphem/pkg/render"
	"github.com/dd0wney/graphem/pkg/seeds"
	"github.com/dd0wney/graphem/pkg/snapshot"
	"github.com/dd0wney/graphem/pkg/validation"
)

// Options configures a Server.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
	// Store enables the snapshot endpoints when set
	Store snapshot.Store
	// MaxIterations caps one run request; 0 means 10000
	MaxIterations int
	Render        render.Options
}

// Server serves one engine.
type Server struct {
	engine        *layout.Engine
	logger        logging.Logger
	metrics       *metrics.Registry
	store         snapshot.Store
	maxIterations int
	render        render.Options
	startTime     time.Time
	router        chi.Router
}

// New builds the router for e.
func New(e *layout.Engine, opts Options) *Server {
	s := &Server{
		engine:        e,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		store:         opts.Store,
		maxIterations: validation.DefaultOrInt(opts.MaxIterations, 10000),
		render:        opts.Render,
		startTime:     time.Now(),
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.With(logging.Component("http"))
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/positions", s.handlePositions)
		r.Get("/seeds", s.handleSeeds)
		r.Post("/run", s.handleRun)
		r.Get("/layout.{format}", s.handleLayout)
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Post("/", s.handleSaveSnapshot)
			r.Post("/restore", s.handleRestoreSnapshot)
		})
	})
	return r
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// intParam reads a non-negative integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}
	return v, nil
}

// HealthResponse reports engine status.
type HealthResponse struct {
	Status     string `json:"status"`
	State      string `json:"state"`
	RunID      string `json:"run_id"`
	Iterations int    `json:"iterations"`
	Vertices   int    `json:"vertices"`
	Edges      int    `json:"edges"`
	Uptime     string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.UpdateSystemMetrics(s.startTime)
	g := s.engine.Graph()
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		State:      s.engine.State().String(),
		RunID:      s.engine.RunID().String(),
		Iterations: s.engine.Iterations(),
		Vertices:   g.N(),
		Edges:      g.M(),
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
	})
}

// PositionsResponse carries the current embedding.
type PositionsResponse struct {
	RunID     string      `json:"run_id"`
	Iteration int         `json:"iteration"`
	Dimension int         `json:"dimension"`
	Positions [][]float64 `json:"positions"`
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	s.respondJSON(w, http.StatusOK, PositionsResponse{
		RunID:     snap.RunID.String(),
		Iteration: snap.Iteration,
		Dimension: snap.Dimension(),
		Positions: snap.Positions,
	})
}

// SeedsResponse lists the most central vertices with their radii.
type SeedsResponse struct {
	Iteration int       `json:"iteration"`
	Seeds     []int     `json:"seeds"`
	Radii     []float64 `json:"radii"`
}

func (s *Server) handleSeeds(w http.ResponseWriter, r *http.Request) {
	k, err := intParam(r, "k", 10)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.engine.Snapshot()
	radii := seeds.Radii(snap.Positions)
	picked := seeds.Select(snap.Positions, k)
	resp := SeedsResponse{Iteration: snap.Iteration, Seeds: picked, Radii: make([]float64, len(picked))}
	for i, v := range picked {
		resp.Radii[i] = radii[v]
	}
	s.metrics.RecordSeedSelection("graphem")
	s.respondJSON(w, http.StatusOK, resp)
}

// RunResponse reports the outcome of a run request.
type RunResponse struct {
	Ran        int    `json:"ran"`
	Iterations int    `json:"iterations"`
	Duration   string `json:"duration"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "iterations", 1)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if n > s.maxIterations {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("iterations must not exceed %d", s.maxIterations))
		return
	}
	start := time.Now()
	if err := s.engine.TryRunLayout(n); err != nil {
		if errors.Is(err, layout.ErrBusy) {
			s.respondError(w, http.StatusConflict, "a layout run is already in progress")
			return
		}
		status := http.StatusInternalServerError
		if errors.Is(err, layout.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Error("layout run failed", logging.Error(err))
		s.respondError(w, status, "layout run failed")
		return
	}
	s.respondJSON(w, http.StatusOK, RunResponse{
		Ran:        n,
		Iterations: s.engine.Iterations(),
		Duration:   time.Since(start).String(),
	})
}

var contentTypes = map[string]string{
	"svg":      "image/svg+xml",
	"png":      "image/png",
	"json":     "application/json",
	"dot":      "text/vnd.graphviz",
	"terminal": "text/plain; charset=utf-8",
	"text":     "text/plain; charset=utf-8",
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	renderer, err := render.New(format)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	opts := s.render
	if title := r.URL.Query().Get("title"); title != "" {
		opts.Title = title
	}

	w.Header().Set("Content-Type", contentTypes[format])
	if err := s.engine.DisplayLayout(r.Context(), w, renderer, opts); err != nil {
		s.logger.Error("render layout", logging.String("format", format), logging.Error(err))
		// headers may already be out; only report when nothing was written
		if ww, ok := w.(middleware.WrapResponseWriter); !ok || ww.BytesWritten() == 0 {
			s.respondError(w, http.StatusInternalServerError, "render failed")
		}
	}
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.respondError(w, http.StatusNotFound, "no snapshot store configured")
		return false
	}
	return true
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	keys, err := s.store.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		s.logger.Error("list snapshots", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "list snapshots failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	snap := s.engine.Snapshot()
	key := snapshot.Key(snap)
	n, err := s.store.Put(r.Context(), key, snap)
	if err != nil {
		s.logger.Error("save snapshot", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "save snapshot failed")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"key": key, "bytes": n})
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		s.respondError(w, http.StatusBadRequest, "key is required")
		return
	}
	snap, err := s.store.Get(r.Context(), key)
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Error("load snapshot", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "load snapshot failed")
		return
	}
	if err := s.engine.Restore(snap); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"key": key, "iteration": snap.Iteration})
}

// metricsMiddleware records request counts and latency by route pattern.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.HTTPRequestsInFlight.Inc()
		defer s.metrics.HTTPRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(status), time.Since(start))
		s.logger.Debug("http request",
			logging.String("method", r.Method),
			logging.String("route", route),
			logging.Int("status", status),
			logging.Latency(time.Since(start)),
		)
	})
}

// Run serves s on addr until ctx is done or a termination signal arrives.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration, reload ReloadFunc) error {
	gs := NewGracefulServer(addr, s.Handler(), s.logger, shutdownTimeout)
	gs.SetReloadFunc(reload)
	return gs.ListenAndServe(ctx)
}
