package daemon

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/dayplan/internal/logfields"
	"git.home.luguber.info/inful/dayplan/internal/metrics"
)

// HTTPServer serves /metrics and /healthz for the daemon.
type HTTPServer struct {
	server    *http.Server
	daemon    *Daemon
	registry  *prom.Registry
	startedAt time.Time
}

// NewHTTPServer builds the observability endpoint on addr. A nil
// registry gets a fresh one with runtime collectors.
func NewHTTPServer(addr string, registry *prom.Registry, d *Daemon) *HTTPServer {
	if registry == nil {
		registry = prom.NewRegistry()
	}
	registry.MustRegister(
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
	)

	s := &HTTPServer{
		daemon:   d,
		registry: registry,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(registry))
	mux.HandleFunc("/healthz", s.handleHealth)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Registry exposes the server's Prometheus registry so the planner's
// recorder can register into it.
func (s *HTTPServer) Registry() *prom.Registry { return s.registry }

// Start serves in the background.
func (s *HTTPServer) Start() {
	s.startedAt = time.Now()
	go func() {
		slog.Info("Metrics server listening", slog.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("Failed to write health response", logfields.Error(err))
	}
}
