// Package service composes the query planner, hydrator and numbering service
// into the session operations used by handlers and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"run-tracker/internal/sessions/models"
	"run-tracker/internal/sessions/numbering"
	"run-tracker/internal/sessions/ordering"
	"run-tracker/internal/sessions/repository"
	"run-tracker/internal/shared/clock"
	"run-tracker/internal/shared/database"
)

// Session service errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrValidation      = errors.New("invalid input")
)

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// SessionService handles business logic for the unified session list.
type SessionService struct {
	db        *database.DB
	workouts  *repository.WorkoutRepository
	planned   *repository.PlannedRepository
	planner   *repository.QueryPlanner
	hydrator  *repository.Hydrator
	numbering *numbering.Service
	clock     clock.Clock
	loc       *time.Location
	logger    *slog.Logger
}

// Deps groups the collaborators of a SessionService.
type Deps struct {
	DB        *database.DB
	Workouts  *repository.WorkoutRepository
	Planned   *repository.PlannedRepository
	Planner   *repository.QueryPlanner
	Hydrator  *repository.Hydrator
	Numbering *numbering.Service
	Clock     clock.Clock
	Location  *time.Location
	Logger    *slog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(d Deps) *SessionService {
	if d.Clock == nil {
		d.Clock = clock.SystemClock{}
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &SessionService{
		db:        d.DB,
		workouts:  d.Workouts,
		planned:   d.Planned,
		planner:   d.Planner,
		hydrator:  d.Hydrator,
		numbering: d.Numbering,
		clock:     d.Clock,
		loc:       d.Location,
		logger:    d.Logger,
	}
}

// normalizeFilter sanitizes paging values and converts DateFrom to the stored
// layout. A bare DateFrom means midnight in loc.
func normalizeFilter(filter models.ListFilter, loc *time.Location) (models.ListFilter, error) {
	if filter.Limit < 0 {
		filter.Limit = 0
	}
	if filter.Offset < 0 || filter.Limit == 0 {
		filter.Offset = 0
	}
	if filter.DateFrom != nil {
		normalized, err := models.NormalizeDate(*filter.DateFrom, loc)
		if err != nil {
			return filter, validationError(err)
		}
		filter.DateFrom = &normalized
	}
	return filter, nil
}

// ListSessions returns one page of the unified list. Limit 0 returns the
// whole filtered set and ignores Offset.
func (s *SessionService) ListSessions(ctx context.Context, userID string, filter models.ListFilter) (*models.PaginatedResponse[models.UnifiedSession], error) {
	filter, err := normalizeFilter(filter, s.loc)
	if err != nil {
		return nil, err
	}
	spec := ordering.Parse(filter.Sort)

	fetch := filter.Limit
	if fetch > 0 {
		fetch++
	}
	refs, err := s.planner.Plan(ctx, userID, &filter, spec, fetch, filter.Offset)
	if err != nil {
		return nil, err
	}

	var nextOffset *int
	if filter.Limit > 0 && len(refs) > filter.Limit {
		refs = refs[:filter.Limit]
		next := filter.Offset + filter.Limit
		nextOffset = &next
	}

	items, err := s.hydrator.Hydrate(ctx, userID, refs)
	if err != nil {
		return nil, err
	}

	total, err := s.planner.Count(ctx, userID, &filter)
	if err != nil {
		return nil, err
	}

	return &models.PaginatedResponse[models.UnifiedSession]{
		Items:      items,
		Total:      total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
		NextOffset: nextOffset,
	}, nil
}

// LoadAll materializes the whole filtered set in the default order and sorts
// it in memory. The result matches ListSessions with limit 0 for the same sort.
func (s *SessionService) LoadAll(ctx context.Context, userID string, filter models.ListFilter) ([]models.UnifiedSession, error) {
	filter, err := normalizeFilter(filter, s.loc)
	if err != nil {
		return nil, err
	}

	refs, err := s.planner.Plan(ctx, userID, &filter, nil, 0, 0)
	if err != nil {
		return nil, err
	}
	sessions, err := s.hydrator.Hydrate(ctx, userID, refs)
	if err != nil {
		return nil, err
	}

	ordering.Sort(sessions, ordering.Parse(filter.Sort))
	return sessions, nil
}

// GetSession returns one session of the unified list. Completed plans are
// not part of the list and are reported as not found.
func (s *SessionService) GetSession(ctx context.Context, userID string, ref models.SessionRef) (*models.UnifiedSession, error) {
	sessions, err := s.hydrator.Hydrate(ctx, userID, []models.SessionRef{ref})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrSessionNotFound
	}
	return &sessions[0], nil
}

// OnSessionMutated renumbers the user's history after an external change.
func (s *SessionService) OnSessionMutated(ctx context.Context, userID string) error {
	_, err := s.Renumber(ctx, userID)
	return err
}

// Renumber runs the numbering pass and returns how many sessions changed.
func (s *SessionService) Renumber(ctx context.Context, userID string) (int, error) {
	return s.numbering.Recalculate(ctx, userID)
}

// ToggleSort returns the sort directive after toggling column.
func ToggleSort(raw, column string, multi bool) ordering.SortSpec {
	return ordering.Toggle(ordering.Parse(raw), column, multi)
}
