package repository

import (
	"context"

	"golang.org/x/sync/errgroup"

	"run-tracker/internal/sessions/models"
)

// Hydrator resolves ordered refs into full unified sessions.
type Hydrator struct {
	workouts *WorkoutRepository
	planned  *PlannedRepository
}

// NewHydrator creates a new Hydrator.
func NewHydrator(workouts *WorkoutRepository, planned *PlannedRepository) *Hydrator {
	return &Hydrator{workouts: workouts, planned: planned}
}

// Hydrate fetches both kinds in one batch each and returns the sessions in
// the order of refs. Refs that no longer resolve are dropped.
// The fetches share an errgroup, so the first failure cancels the other.
// The store has a single connection: the fetches queue for it rather than
// overlap, and Hydrate must not be called inside a transaction holding it.
func (h *Hydrator) Hydrate(ctx context.Context, userID string, refs []models.SessionRef) ([]models.UnifiedSession, error) {
	var realizedIDs, plannedIDs []int64
	for _, ref := range refs {
		switch ref.Kind {
		case models.KindRealized:
			realizedIDs = append(realizedIDs, ref.ID)
		case models.KindPlanned:
			plannedIDs = append(plannedIDs, ref.ID)
		}
	}

	var realized, planned map[int64]models.UnifiedSession
	g, gctx := errgroup.WithContext(ctx)
	if len(realizedIDs) > 0 {
		g.Go(func() error {
			var err error
			realized, err = h.workouts.GetByIDs(gctx, userID, realizedIDs)
			return err
		})
	}
	if len(plannedIDs) > 0 {
		g.Go(func() error {
			var err error
			planned, err = h.planned.GetByIDs(gctx, userID, plannedIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.UnifiedSession, 0, len(refs))
	for _, ref := range refs {
		var (
			session models.UnifiedSession
			ok      bool
		)
		switch ref.Kind {
		case models.KindRealized:
			session, ok = realized[ref.ID]
		case models.KindPlanned:
			session, ok = planned[ref.ID]
		}
		if ok {
			out = append(out, session)
		}
	}
	return out, nil
}
