// Package server provides the HTTP API for blogsearch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/blogsearch/internal/config"
	"github.com/hyperjump/blogsearch/internal/search"
	"go.uber.org/zap"
)

// Reloader reloads the site index from its source.
type Reloader interface {
	Sync(ctx context.Context) (int, error)
	Source() string
	// LastSync is the time of the last successful Sync.
	LastSync() time.Time
	// LastError is the error of the most recent Sync, nil if it succeeded.
	LastError() error
}

// Server is the HTTP server for the blogsearch API.
type Server struct {
	engine   *search.Engine
	reloader Reloader
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. reloader may be nil,
// in which case the reload endpoint responds 501.
func NewServer(
	engine *search.Engine,
	reloader Reloader,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:   engine,
		reloader: reloader,
		config:   cfg,
		logger:   logger,
	}
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearchGet)
		r.Post("/search", s.handleSearch)
		r.Post("/teaser", s.handleTeaser)
		r.Get("/pages/{id}", s.handleGetPage)
		r.Post("/reload", s.handleReload)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
