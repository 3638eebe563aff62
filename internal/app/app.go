// Package app wires configuration, storage, services and HTTP handlers.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"run-tracker/internal/handler"
	"run-tracker/internal/sessions"
	"run-tracker/internal/shared/clock"
	"run-tracker/internal/shared/database"
	"run-tracker/internal/shared/health"
	"run-tracker/internal/shared/middleware"
)

// App holds the application dependencies and HTTP server.
type App struct {
	cfg         *Config
	db          *database.DB
	logger      *slog.Logger
	sessions    *sessions.SessionService
	server      *http.Server
	rateLimiter *middleware.RateLimiter
}

// Open connects to the store and builds the session service without any
// HTTP surface. CLI commands use it directly.
func Open(cfg *Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &App{
		cfg:    cfg,
		db:     db,
		logger: logger,
		sessions: sessions.New(db, sessions.Options{
			Location: loc,
			Clock:    clock.SystemClock{},
			Logger:   logger,
		}),
	}, nil
}

// New creates and wires all application dependencies, including the HTTP server.
func New(cfg *Config, logger *slog.Logger) (*App, error) {
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}

	a, err := Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	sessionsHandler := handler.NewSessionsHandler(a.sessions, logger)
	healthHandler := health.NewHealthHandler(a.db)

	a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit)
	mux := NewRouter(cfg, sessionsHandler, healthHandler)

	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupMiddlewareChain(mux, a.rateLimiter, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// setupMiddlewareChain creates the middleware chain in the correct order.
// Request logging is outermost so rejected requests are logged too.
func setupMiddlewareChain(mux http.Handler, rateLimiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	var finalHandler http.Handler = mux

	finalHandler = middleware.RateLimitMiddleware(rateLimiter)(finalHandler)
	finalHandler = middleware.SecurityHeadersMiddleware(finalHandler)
	finalHandler = middleware.RequestLogMiddleware(logger)(finalHandler)

	return finalHandler
}

// Sessions returns the session service.
func (a *App) Sessions() *sessions.SessionService {
	return a.sessions
}

// Handler returns the HTTP handler with the full middleware chain.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("server listening", "addr", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, then releases the store.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var shutdownErr error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server forced to shutdown: %w", err)
		}
		a.rateLimiter.Stop()
	}

	if err := a.db.Close(); err != nil && shutdownErr == nil {
		shutdownErr = fmt.Errorf("failed to close database: %w", err)
	}
	return shutdownErr
}
