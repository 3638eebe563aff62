package app

import (
	"net/http"

	"run-tracker/internal/handler"
	"run-tracker/internal/shared/auth"
	"run-tracker/internal/shared/health"
)

// NewRouter creates and configures the HTTP router with all routes.
func NewRouter(
	cfg *Config,
	sessionsHandler *handler.SessionsHandler,
	healthHandler *health.HealthHandler,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoint (no authentication required)
	mux.Handle("/healthz", healthHandler)

	// API endpoints (API key and X-User-ID required)
	mux.Handle("/api/", auth.APIKeyMiddleware(cfg.APIKey)(sessionsHandler))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return mux
}
