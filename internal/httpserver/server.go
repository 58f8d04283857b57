// Package httpserver exposes health, readiness, and Prometheus metrics
// endpoints alongside a running rtmpclient session, for operators running
// the publisher as a long-lived process.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rtmpclient/internal/logger"
)

// StatsSource reports a point-in-time snapshot for the /status endpoint,
// satisfied by *rtmpclient.Connection.
type StatsSource interface {
	Stats() map[string]interface{}
}

// Server serves /health, /status, and /metrics over HTTP.
type Server struct {
	addr      string
	log       *logger.Logger
	stats     StatsSource
	server    *http.Server
	startedAt time.Time
}

// New creates an HTTP server reporting on stats.
func New(addr string, log *logger.Logger, stats StatsSource) *Server {
	return &Server{addr: addr, log: log, stats: stats, startedAt: time.Now()}
}

// Run starts the HTTP server and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server starting", "addr", s.addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("http server shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status": "healthy",
		"uptime": time.Since(s.startedAt).String(),
	}); err != nil {
		s.log.Error("failed to encode health response", "err", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.stats == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"error": "not connected"})
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(s.stats.Stats()); err != nil {
		s.log.Error("failed to encode status response", "err", err)
	}
}
