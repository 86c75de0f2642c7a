// Package server wires the HTTP surface together: chart CRUD, the
// builder WebSocket, uploads, rendering, export, and the audit trail.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/orgkit/orgchart/internal/audit"
	"github.com/orgkit/orgchart/internal/builder"
	"github.com/orgkit/orgchart/internal/config"
	"github.com/orgkit/orgchart/internal/db"
	"github.com/orgkit/orgchart/internal/export"
	"github.com/orgkit/orgchart/internal/live"
	"github.com/orgkit/orgchart/internal/render"
	"github.com/orgkit/orgchart/internal/store"
	"github.com/orgkit/orgchart/internal/upload"
)

// Server is the orgchart HTTP server.
type Server struct {
	cfg        config.Config
	db         *db.DB
	store      *store.Store
	audit      *audit.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all feature routes mounted.
func New(cfg config.Config, database *db.DB) (*Server, error) {
	s := &Server{
		cfg:   cfg,
		db:    database,
		store: store.NewStore(database),
		audit: audit.NewStore(database),
	}

	router, err := s.buildRouter()
	if err != nil {
		return nil, err
	}
	s.router = router
	return s, nil
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() (chi.Router, error) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))
	r.Use(audit.Middleware(s.audit))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	store.RegisterRoutes(r, s.store)
	audit.RegisterRoutes(r, s.audit)
	export.RegisterRoutes(r, s.store)

	uploader, err := upload.New(s.cfg.Upload.Dir, s.cfg.Upload.MaxBytes)
	if err != nil {
		return nil, err
	}
	upload.RegisterRoutes(r, uploader)

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}
	render.RegisterRoutes(r, s.store, renderer)

	builderCfg := builder.DefaultConfig()
	builderCfg.SnapGrid = s.cfg.Builder.SnapGrid
	builderCfg.CanvasWidth = s.cfg.Builder.CanvasWidth
	builderCfg.CanvasHeight = s.cfg.Builder.CanvasHeight
	builderCfg.AutosaveInterval = time.Duration(s.cfg.Builder.AutosaveInterval) * time.Second
	builderCfg.AutosaveDebounce = time.Duration(s.cfg.Builder.AutosaveDebounce) * time.Millisecond
	live.RegisterRoutes(r, live.NewGateway(s.store, builderCfg))

	return r, nil
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Store returns the chart store.
func (s *Server) Store() *store.Store { return s.store }

// Audit returns the audit store.
func (s *Server) Audit() *audit.Store { return s.audit }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("orgchart server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
