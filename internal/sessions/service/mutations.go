package service

import (
	"context"

	"run-tracker/internal/sessions/models"
)

func (s *SessionService) createdAt() string {
	return models.FormatCreatedAt(s.clock.Now())
}

// mutate runs fn in a transaction. When ordering may change, the numbering
// pass runs in the same transaction so a failed renumbering undoes fn.
func (s *SessionService) mutate(ctx context.Context, userID string, touchesOrdering bool, fn func(ctx context.Context) error) error {
	if touchesOrdering {
		return s.numbering.Mutate(ctx, userID, fn)
	}
	return s.db.Within(ctx, fn)
}

// CreateWorkout records a realized session.
func (s *SessionService) CreateWorkout(ctx context.Context, userID string, data *models.WorkoutCreate) (*models.UnifiedSession, error) {
	if err := data.Validate(s.loc); err != nil {
		return nil, validationError(err)
	}

	var id int64
	err := s.mutate(ctx, userID, true, func(ctx context.Context) error {
		var err error
		id, err = s.workouts.Create(ctx, userID, data, s.createdAt())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("workout created", "user_id", userID, "id", id)
	return s.GetSession(ctx, userID, models.SessionRef{ID: id, Kind: models.KindRealized})
}

// UpdateWorkout applies a partial update to a realized session.
func (s *SessionService) UpdateWorkout(ctx context.Context, userID string, id int64, data *models.WorkoutUpdate) (*models.UnifiedSession, error) {
	if err := data.Validate(s.loc); err != nil {
		return nil, validationError(err)
	}

	err := s.mutate(ctx, userID, data.TouchesOrdering(), func(ctx context.Context) error {
		return s.workouts.Update(ctx, userID, id, data)
	})
	if err != nil {
		return nil, notFound(err)
	}
	return s.GetSession(ctx, userID, models.SessionRef{ID: id, Kind: models.KindRealized})
}

// DeleteWorkout removes a realized session. A plan it completed returns to the list.
func (s *SessionService) DeleteWorkout(ctx context.Context, userID string, id int64) error {
	err := s.mutate(ctx, userID, true, func(ctx context.Context) error {
		return s.workouts.Delete(ctx, userID, id)
	})
	return notFound(err)
}

// CreatePlanned records a planned session. Undated plans are numbered after
// every dated session.
func (s *SessionService) CreatePlanned(ctx context.Context, userID string, data *models.PlannedCreate) (*models.UnifiedSession, error) {
	if err := data.Validate(s.loc); err != nil {
		return nil, validationError(err)
	}

	var id int64
	err := s.mutate(ctx, userID, true, func(ctx context.Context) error {
		var err error
		id, err = s.planned.Create(ctx, userID, data, s.createdAt())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("planned session created", "user_id", userID, "id", id)
	return s.GetSession(ctx, userID, models.SessionRef{ID: id, Kind: models.KindPlanned})
}

// UpdatePlanned applies a partial update to a planned session. A plan that
// was already completed is no longer listed and reports not found.
func (s *SessionService) UpdatePlanned(ctx context.Context, userID string, id int64, data *models.PlannedUpdate) (*models.UnifiedSession, error) {
	if err := data.Validate(s.loc); err != nil {
		return nil, validationError(err)
	}

	err := s.mutate(ctx, userID, data.TouchesOrdering(), func(ctx context.Context) error {
		superseded, err := s.planned.IsSuperseded(ctx, userID, id)
		if err != nil {
			return err
		}
		if superseded {
			return ErrSessionNotFound
		}
		return s.planned.Update(ctx, userID, id, data)
	})
	if err != nil {
		return nil, notFound(err)
	}
	return s.GetSession(ctx, userID, models.SessionRef{ID: id, Kind: models.KindPlanned})
}

// DeletePlanned removes a planned session. A workout that completed it keeps
// its data and loses the back-reference.
func (s *SessionService) DeletePlanned(ctx context.Context, userID string, id int64) error {
	err := s.mutate(ctx, userID, true, func(ctx context.Context) error {
		return s.planned.Delete(ctx, userID, id)
	})
	return notFound(err)
}

// CompletePlanned records the realized session for plan id. The plan stays
// stored but leaves the unified list. Completing a plan twice reports not found.
func (s *SessionService) CompletePlanned(ctx context.Context, userID string, id int64, data *models.PlannedComplete) (*models.UnifiedSession, error) {
	var workoutID int64
	err := s.mutate(ctx, userID, true, func(ctx context.Context) error {
		plan, err := s.planned.Get(ctx, userID, id)
		if err != nil {
			return notFound(err)
		}
		superseded, err := s.planned.IsSuperseded(ctx, userID, id)
		if err != nil {
			return notFound(err)
		}
		if superseded {
			return ErrSessionNotFound
		}

		workout := data.ToWorkout(plan, models.FormatTimestamp(s.clock.Now()))
		if err := workout.Validate(s.loc); err != nil {
			return validationError(err)
		}
		workoutID, err = s.workouts.Create(ctx, userID, workout, s.createdAt())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("planned session completed", "user_id", userID, "planned_id", id, "workout_id", workoutID)
	return s.GetSession(ctx, userID, models.SessionRef{ID: workoutID, Kind: models.KindRealized})
}
