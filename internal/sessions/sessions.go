// Package sessions wires the unified session list: repositories, the query
// planner, the hydrator, the numbering service and the session service.
package sessions

import (
	"log/slog"
	"time"

	"run-tracker/internal/sessions/numbering"
	"run-tracker/internal/sessions/ordering"
	"run-tracker/internal/sessions/repository"
	"run-tracker/internal/sessions/service"
	"run-tracker/internal/shared/clock"
	"run-tracker/internal/shared/database"
)

// Options configures New. Zero values fall back to UTC, the system clock
// and the default logger.
type Options struct {
	Location *time.Location
	Clock    clock.Clock
	Logger   *slog.Logger
}

// New builds a SessionService backed by db.
func New(db *database.DB, opts Options) *service.SessionService {
	workouts := repository.NewWorkoutRepository(db)
	planned := repository.NewPlannedRepository(db)

	return service.NewSessionService(service.Deps{
		DB:        db,
		Workouts:  workouts,
		Planned:   planned,
		Planner:   repository.NewQueryPlanner(db),
		Hydrator:  repository.NewHydrator(workouts, planned),
		Numbering: numbering.NewService(repository.NewNumberingRepository(db), db, opts.Location, opts.Logger),
		Clock:     opts.Clock,
		Location:  opts.Location,
		Logger:    opts.Logger,
	})
}

// ToggleSort returns the sort directive after toggling column.
func ToggleSort(raw, column string, multi bool) ordering.SortSpec {
	return service.ToggleSort(raw, column, multi)
}

// Re-export types commonly referenced by handlers.
type SessionService = service.SessionService

// Re-export errors commonly referenced by handlers.
var (
	ErrSessionNotFound = service.ErrSessionNotFound
	ErrValidation      = service.ErrValidation
)
