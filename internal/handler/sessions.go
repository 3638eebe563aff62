// Package handler exposes the session service as a JSON API.
package handler

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"run-tracker/internal/sessions"
	"run-tracker/internal/sessions/models"
	"run-tracker/internal/shared/auth"
	"run-tracker/internal/shared/config"
	"run-tracker/internal/shared/errors"
	"run-tracker/internal/shared/middleware"
	"run-tracker/internal/shared/utils"
	"run-tracker/internal/shared/validation"
)

const maxBodyBytes = 1 << 20

// SessionsHandler handles HTTP requests for the unified session list and its mutations.
type SessionsHandler struct {
	service *sessions.SessionService
	logger  *slog.Logger
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(svc *sessions.SessionService, logger *slog.Logger) *SessionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionsHandler{service: svc, logger: logger}
}

// SortToggleResponse is returned by the sort-toggle endpoint.
type SortToggleResponse struct {
	Sort string `json:"sort"`
}

// RenumberResponse is returned by the renumber endpoint.
type RenumberResponse struct {
	Changed int `json:"changed"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func userFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		errors.WriteError(w, errors.UnauthorizedError("Missing user"))
	}
	return userID, ok
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		errors.WriteError(w, errors.ValidationError("Invalid JSON body"))
		return false
	}
	return true
}

func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), sessions.ErrValidation.Error()+": ")
}

// writeReadError maps listing failures. Store errors become a generic retryable 500.
func (h *SessionsHandler) writeReadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case stderrors.Is(err, sessions.ErrValidation):
		errors.WriteError(w, errors.ValidationError(validationMessage(err)))
	case stderrors.Is(err, sessions.ErrSessionNotFound):
		errors.WriteError(w, errors.NotFoundError("Session not found"))
	default:
		h.logger.ErrorContext(r.Context(), "session read failed",
			"request_id", middleware.RequestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
		errors.WriteError(w, errors.InternalError())
	}
}

// writeMutationError maps mutation failures. Store and numbering errors become SAVE_FAILED.
func (h *SessionsHandler) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case stderrors.Is(err, sessions.ErrValidation):
		errors.WriteError(w, errors.ValidationError(validationMessage(err)))
	case stderrors.Is(err, sessions.ErrSessionNotFound):
		errors.WriteError(w, errors.NotFoundError("Session not found"))
	default:
		h.logger.ErrorContext(r.Context(), "session mutation failed",
			"request_id", middleware.RequestIDFromContext(r.Context()), "method", r.Method, "path", r.URL.Path, "error", err)
		errors.WriteError(w, errors.SaveError())
	}
}

// parseFilter reads the listing filters. An absent or zero limit returns the
// whole filtered set; a positive limit is capped at MaxPageSize.
func parseFilter(r *http.Request) models.ListFilter {
	query := r.URL.Query()

	filter := models.ListFilter{
		Type:   validation.SanitizeQueryParam(query.Get("type")),
		Search: validation.SanitizeQueryParam(query.Get("search")),
		Sort:   validation.SanitizeQueryParam(query.Get("sort")),
	}
	filter.Limit, filter.Offset = utils.ParsePaginationParams(query, 0, config.MaxPageSize)
	if from := validation.SanitizeQueryParam(query.Get("dateFrom")); from != "" {
		filter.DateFrom = &from
	}
	return filter
}

// List handles GET /api/v1/sessions - retrieves one page of the unified list.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListSessions(r.Context(), userID, parseFilter(r))
	if err != nil {
		h.writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// All handles GET /api/v1/sessions/all - the whole filtered set sorted in memory.
func (h *SessionsHandler) All(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	items, err := h.service.LoadAll(r.Context(), userID, parseFilter(r))
	if err != nil {
		h.writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PaginatedResponse[models.UnifiedSession]{
		Items: items,
		Total: int64(len(items)),
	})
}

// Get handles GET /api/v1/sessions/{kind}/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request, ref models.SessionRef) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	session, err := h.service.GetSession(r.Context(), userID, ref)
	if err != nil {
		h.writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ExportCSV handles GET /api/v1/sessions.csv - exports sessions as CSV.
func (h *SessionsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	filter := parseFilter(r)
	filter.Limit, filter.Offset = 0, 0
	csvData, err := h.service.ExportCSV(r.Context(), userID, filter)
	if err != nil {
		h.writeReadError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sessions_%s.csv"`, time.Now().UTC().Format("20060102")))
	w.Write(csvData)
}

// SortToggle handles GET /api/v1/sessions/sort-toggle - returns the sort
// directive after toggling one column.
func (h *SessionsHandler) SortToggle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	column := validation.SanitizeQueryParam(query.Get("column"))
	if column == "" {
		errors.WriteError(w, errors.ValidationError("column is required"))
		return
	}

	spec := sessions.ToggleSort(query.Get("sort"), column, validation.ParseBoolParam(query.Get("multi"), false))
	writeJSON(w, http.StatusOK, SortToggleResponse{Sort: spec.String()})
}

// Renumber handles POST /api/v1/sessions/renumber.
func (h *SessionsHandler) Renumber(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	changed, err := h.service.Renumber(r.Context(), userID)
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RenumberResponse{Changed: changed})
}
