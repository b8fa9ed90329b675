// Package api provides the HTTP REST API for mythos.
//
// Endpoints:
//
//	GET    /health                  → liveness probe
//	GET    /ready                   → readiness probe (storage ping)
//	GET    /api/login               → current sign-in marker
//	POST   /api/login               → store sign-in marker
//	DELETE /api/login               → remove sign-in marker
//	POST   /api/lessons             → generate a lesson, start a session
//	GET    /api/lessons             → list history, newest first
//	DELETE /api/lessons             → clear history
//	GET    /api/lessons/{id}        → one history item
//	POST   /api/lessons/{id}/chat   → follow-up turn on the lesson
//	POST   /api/lessons/{id}/quiz   → quiz over the lesson content
//	POST   /api/lessons/{id}/media  → regenerate the lesson's media
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: health check endpoints
//   - login.go: sign-in marker endpoints
//   - lesson.go: lesson generation, history and follow-up endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mythosai/mythos/internal/history"
	"github.com/mythosai/mythos/internal/pipeline"
	"github.com/mythosai/mythos/internal/session"
	"github.com/mythosai/mythos/internal/storage"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8780"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response. Video
	// generation can take minutes, so this is generous.
	WriteTimeout = 10 * time.Minute

	// IdleTimeout is the maximum wait for the next keep-alive request.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the mythos REST API.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger

	health *HealthHandler
	login  *LoginHandler
	lesson *LessonHandler
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(manager *session.Manager, hist *history.Store, pipe *pipeline.Pipeline, store *storage.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		logger: logger,
		health: NewHealthHandler(store, logger),
		login:  NewLoginHandler(store, logger),
		lesson: NewLessonHandler(manager, hist, pipe, logger),
	}

	s.health.RegisterRoutes(mux)
	s.login.RegisterRoutes(mux)
	s.lesson.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
