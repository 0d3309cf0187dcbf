package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unklstewy/routewatch/pkg/config"
	"github.com/unklstewy/routewatch/pkg/route"
	"github.com/unklstewy/routewatch/pkg/tracking"
)

// Snapshot is what the status endpoint publishes.
type Snapshot struct {
	Statistics tracking.RouteStatistics `json:"statistics"`
	Route      []route.Waypoint         `json:"route"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// Status hands the latest snapshot from the poller to HTTP handlers.
type Status struct {
	current atomic.Pointer[Snapshot]
}

// Publish replaces the current snapshot.
func (s *Status) Publish(snap Snapshot) {
	s.current.Store(&snap)
}

// Current returns the latest snapshot, or nil before the first one.
func (s *Status) Current() *Snapshot {
	return s.current.Load()
}

type server struct {
	router *chi.Mux
	addr   string
	status *Status
	logger *slog.Logger
	now    func() time.Time
}

func newServer(cfg config.ServerConfig, status *Status, logger *slog.Logger) *server {
	s := &server{
		router: chi.NewRouter(),
		addr:   net.JoinHostPort(cfg.Host, cfg.Port),
		status: status,
		logger: logger,
		now:    time.Now,
	}
	s.setupRoutes(cfg.AllowedOrigins)
	return s
}

// setupRoutes configures the read-only API.
func (s *server) setupRoutes(origins []string) {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Compress(5))

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/route", s.handleRoute)
	})
}

func (s *server) serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", slog.String("addr", s.addr))
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.status.Current()
	if snap == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no statistics yet"})
		return
	}
	respondJSON(w, http.StatusOK, snap.Statistics)
}

func (s *server) handleRoute(w http.ResponseWriter, r *http.Request) {
	snap := s.status.Current()
	if snap == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no route yet"})
		return
	}
	respondJSON(w, http.StatusOK, snap.Route)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if snap := s.status.Current(); snap != nil {
		body["updated_at"] = snap.UpdatedAt
		body["age_seconds"] = int(s.now().Sub(snap.UpdatedAt).Seconds())
	}
	respondJSON(w, http.StatusOK, body)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
