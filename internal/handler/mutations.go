package handler

import (
	"net/http"

	"run-tracker/internal/sessions/models"
)

// CreateWorkout handles POST /api/v1/workouts.
func (h *SessionsHandler) CreateWorkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}
	var input models.WorkoutCreate
	if !decodeBody(w, r, &input) {
		return
	}

	session, err := h.service.CreateWorkout(r.Context(), userID, &input)
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// UpdateWorkout handles PATCH /api/v1/workouts/{id}.
func (h *SessionsHandler) UpdateWorkout(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}
	var input models.WorkoutUpdate
	if !decodeBody(w, r, &input) {
		return
	}

	session, err := h.service.UpdateWorkout(r.Context(), userID, id, &input)
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// DeleteWorkout handles DELETE /api/v1/workouts/{id}.
func (h *SessionsHandler) DeleteWorkout(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteWorkout(r.Context(), userID, id); err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreatePlanned handles POST /api/v1/planned.
func (h *SessionsHandler) CreatePlanned(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}
	var input models.PlannedCreate
	if !decodeBody(w, r, &input) {
		return
	}

	session, err := h.service.CreatePlanned(r.Context(), userID, &input)
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// UpdatePlanned handles PATCH /api/v1/planned/{id}.
func (h *SessionsHandler) UpdatePlanned(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}
	var input models.PlannedUpdate
	if !decodeBody(w, r, &input) {
		return
	}

	session, err := h.service.UpdatePlanned(r.Context(), userID, id, &input)
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// DeletePlanned handles DELETE /api/v1/planned/{id}.
func (h *SessionsHandler) DeletePlanned(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePlanned(r.Context(), userID, id); err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompletePlanned handles POST /api/v1/planned/{id}/complete. The body is optional.
func (h *SessionsHandler) CompletePlanned(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}
	input := &models.PlannedComplete{}
	if r.ContentLength != 0 && !decodeBody(w, r, input) {
		return
	}

	session, err := h.service.CompletePlanned(r.Context(), userID, id, input)
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}
