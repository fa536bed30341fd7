package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"immoweb-scraper/models"
	"immoweb-scraper/utils"
)

// StatusServer exposes the live counters of a run over HTTP.
type StatusServer struct {
	stats  *models.RunStats
	logger *utils.Logger
	srv    *http.Server
}

// NewStatusServer builds a read-only status server listening on addr.
func NewStatusServer(addr string, stats *models.RunStats, logger *utils.Logger) *StatusServer {
	s := &StatusServer{stats: stats, logger: logger}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router returns the status routes.
func (s *StatusServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return r
}

// Start serves in the background. A listener failure is logged and never
// stops the run.
func (s *StatusServer) Start() {
	go func() {
		s.logger.Info("[status] listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("[status] server stopped: %v", err)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *StatusServer) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.stats.Snapshot()); err != nil {
		s.logger.Warn("[status] encode stats: %v", err)
	}
}
