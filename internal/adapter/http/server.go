package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/balneabilidade-etl/internal/adapter/feedstore"
	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// FeedSource loads the currently published records.
type FeedSource interface {
	Load(ctx context.Context) ([]domain.StationRecord, error)
}

// Server exposes the published feed alongside health, readiness and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	feed       FeedSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /points.json, /stations/{code},
// /healthz, /readyz and /metrics routes.
func NewServer(addr string, feed FeedSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		feed:   feed,
		logger: logger,
	}

	mux.HandleFunc("GET /points.json", s.handlePoints)
	mux.HandleFunc("GET /stations/{code}", s.handleStation)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handlePoints returns the feed in the same encoding as the file on disk.
func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	records, err := s.feed.Load(r.Context())
	if err != nil {
		s.logger.Error("feed load failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "feed unavailable"})
		return
	}
	data, err := feedstore.EncodeFeed(records)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func (s *Server) handleStation(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	if !domain.IsStationCode(code) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid station code"})
		return
	}
	records, err := s.feed.Load(r.Context())
	if err != nil {
		s.logger.Error("feed load failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "feed unavailable"})
		return
	}
	rec, ok := domain.FindRecord(records, code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "station not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready once the feed can be loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.feed.Load(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
