package handler

import (
	"net/http"
	"strings"

	"run-tracker/internal/sessions/models"
	"run-tracker/internal/shared/errors"
	"run-tracker/internal/shared/validation"
)

const apiPrefix = "/api/v1/"

// ServeHTTP implements http.Handler for routing session requests.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if !strings.HasPrefix(path, apiPrefix) {
		errors.WriteError(w, errors.NotFoundError("Endpoint not found"))
		return
	}
	parts := strings.Split(strings.TrimPrefix(path, apiPrefix), "/")

	switch parts[0] {
	case "sessions":
		h.routeSessions(w, r, parts[1:])
	case "sessions.csv":
		if len(parts) != 1 {
			errors.WriteError(w, errors.NotFoundError("Endpoint not found"))
			return
		}
		if h.allow(w, r, http.MethodGet) {
			h.ExportCSV(w, r)
		}
	case "workouts":
		h.routeWorkouts(w, r, parts[1:])
	case "planned":
		h.routePlanned(w, r, parts[1:])
	default:
		errors.WriteError(w, errors.NotFoundError("Endpoint not found"))
	}
}

// allow writes 405 and returns false unless r uses one of methods.
func (h *SessionsHandler) allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	errors.WriteError(w, errors.MethodNotAllowedError())
	return false
}

func (h *SessionsHandler) routeSessions(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0:
		if h.allow(w, r, http.MethodGet) {
			h.List(w, r)
		}
	case len(rest) == 1 && rest[0] == "all":
		if h.allow(w, r, http.MethodGet) {
			h.All(w, r)
		}
	case len(rest) == 1 && rest[0] == "sort-toggle":
		if h.allow(w, r, http.MethodGet) {
			h.SortToggle(w, r)
		}
	case len(rest) == 1 && rest[0] == "renumber":
		if h.allow(w, r, http.MethodPost) {
			h.Renumber(w, r)
		}
	case len(rest) == 2:
		kind, okKind := models.ParseKind(rest[0])
		id, okID := validation.ParseID(rest[1])
		if !okKind || !okID {
			errors.WriteError(w, errors.NotFoundError("Session not found"))
			return
		}
		if h.allow(w, r, http.MethodGet) {
			h.Get(w, r, models.SessionRef{ID: id, Kind: kind})
		}
	default:
		errors.WriteError(w, errors.NotFoundError("Endpoint not found"))
	}
}

func (h *SessionsHandler) routeWorkouts(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		if h.allow(w, r, http.MethodPost) {
			h.CreateWorkout(w, r)
		}
		return
	}
	id, ok := validation.ParseID(rest[0])
	if !ok || len(rest) != 1 {
		errors.WriteError(w, errors.NotFoundError("Endpoint not found"))
		return
	}
	if !h.allow(w, r, http.MethodPatch, http.MethodDelete) {
		return
	}
	if r.Method == http.MethodPatch {
		h.UpdateWorkout(w, r, id)
	} else {
		h.DeleteWorkout(w, r, id)
	}
}

func (h *SessionsHandler) routePlanned(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		if h.allow(w, r, http.MethodPost) {
			h.CreatePlanned(w, r)
		}
		return
	}
	id, ok := validation.ParseID(rest[0])
	if !ok || len(rest) > 2 || (len(rest) == 2 && rest[1] != "complete") {
		errors.WriteError(w, errors.NotFoundError("Endpoint not found"))
		return
	}
	if len(rest) == 2 {
		if h.allow(w, r, http.MethodPost) {
			h.CompletePlanned(w, r, id)
		}
		return
	}
	if !h.allow(w, r, http.MethodPatch, http.MethodDelete) {
		return
	}
	if r.Method == http.MethodPatch {
		h.UpdatePlanned(w, r, id)
	} else {
		h.DeletePlanned(w, r, id)
	}
}
