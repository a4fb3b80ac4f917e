// Package diag serves an optional debug HTTP server exposing Prometheus
// metrics and a live progress snapshot while a long probe run is in
// flight. Off by default (-diag-addr unset); pure observability, not one
// of spec.md §1's Non-goals since it never affects playlist output.
// Grounded directly on the teacher's mux.NewRouter()/promhttp.Handler()
// route setup in main.go.
package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"m3uclean/internal/types"
)

// Server is the optional diagnostics endpoint. Progress is updated by
// the engine via SetProgress and read back by the /progress handler;
// both sides only ever touch the guarded snapshot, never the scheduler
// internals directly.
type Server struct {
	httpServer *http.Server

	mu       sync.RWMutex
	progress types.ProgressReport
}

// New builds a Server listening on addr, with routes "/metrics"
// (promhttp.Handler) and "/progress" (JSON snapshot of the most recent
// ProgressReport).
func New(addr string) *Server {
	s := &Server{}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/progress", s.handleProgress).Methods("GET")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s
}

// SetProgress updates the snapshot served at /progress. Safe to call
// from the scheduler's reporting goroutine.
func (s *Server) SetProgress(p types.ProgressReport) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	p := s.progress
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

// Start runs the server in a background goroutine; it never blocks the
// caller. Errors other than http.ErrServerClosed are reported through
// errCh.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
