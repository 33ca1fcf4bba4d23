// Package inspect serves a read-only HTTP view of a running root: the
// committed unit tree, the host snapshot, runtime counters, Prometheus
// metrics and a live commit stream over WebSocket.
//
// Routes:
//
//	GET /healthz   liveness check
//	GET /tree      committed unit tree (JSON)
//	GET /snapshot  host snapshot and digest (JSON, or text with ?format=text)
//	GET /stats     root counters (JSON)
//	GET /metrics   Prometheus exposition
//	GET /ws        commit stream, one JSON Event per commit
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reconciler/pkg/fiber"
	"github.com/vango-dev/reconciler/pkg/host/memhost"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer sets the registry served on /metrics.
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithAllowedOrigins lists the origins allowed to open the commit stream.
// With none, only same-origin requests are accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = append(s.origins, origins...)
	}
}

// WithClientBuffer sets how many events may queue for a slow stream
// client before events to it are dropped.
func WithClientBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// Server is the inspector HTTP handler.
type Server struct {
	root     *fiber.Root
	host     *memhost.Host
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	origins  []string
	buffer   int
	router   chi.Router
	stream   *stream
}

// New creates an inspector for root rendering into h and subscribes to
// its commits. Call Close to unsubscribe.
func New(root *fiber.Root, h *memhost.Host, opts ...Option) *Server {
	s := &Server{
		root:     root,
		host:     h,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default().With("component", "inspect"),
		buffer:   64,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stream = newStream(s)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/tree", s.handleTree)
	r.Get("/snapshot", s.handleSnapshot)
	r.Get("/stats", s.handleStats)
	r.Get("/ws", s.stream.handle)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close unsubscribes from the root and disconnects stream clients.
func (s *Server) Close() {
	s.stream.close()
}

// ListenAndServe serves the inspector on addr until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// SnapshotResponse is the JSON body of /snapshot.
type SnapshotResponse struct {
	Snapshot string `json:"snapshot"`
	Digest   string `json:"digest"`
	Commits  int    `json:"commits"`
}

// StatsResponse is the JSON body of /stats.
type StatsResponse struct {
	fiber.Stats
	PendingLanes string `json:"pendingLanes"`
	Working      bool   `json:"working"`
	Clients      int    `json:"clients"`
}

func (s *Server) handleTree(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.root.Tree())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.host.Snapshot()
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(snap))
		return
	}
	s.writeJSON(w, SnapshotResponse{
		Snapshot: snap,
		Digest:   digestString(s.host.Digest()),
		Commits:  s.host.Commits(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, StatsResponse{
		Stats:        s.root.Stats(),
		PendingLanes: s.root.PendingLanes().String(),
		Working:      s.root.Working(),
		Clients:      s.stream.count(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func digestString(d uint64) string {
	return strconv.FormatUint(d, 16)
}
