// Package server exposes presets and rendered strikes over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config holds server configuration
type Config struct {
	Port      int
	PresetDir string // optional directory of <name>.json presets

	// Render limits per request.
	MaxStrikes int
	MaxSeconds float64
}

// DefaultConfig listens on 8080 without a preset directory.
func DefaultConfig() Config {
	return Config{Port: 8080, MaxStrikes: 16, MaxSeconds: 30}
}

// Server is the HTTP server
type Server struct {
	config Config
	router *chi.Mux
	logger *slog.Logger
}

// New creates a server with its routes.
func New(cfg Config) *Server {
	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}
	s.setupRoutes()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/presets", s.handleListPresets)
	r.Get("/presets/{name}", s.handlePreset)
	r.Get("/presets/{name}/strike.wav", s.handleStrike)
}

// Run serves until ctx is cancelled, then shuts down gracefully. It
// returns only after the shutdown goroutine has finished.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	s.logger.Info("server starting", slog.Int("port", s.config.Port), slog.String("presets", s.config.PresetDir))
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		err = nil
	}
	cancel()
	<-done
	return err
}
