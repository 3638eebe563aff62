package numbering

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Store loads and persists numbering state for one user.
type Store interface {
	LoadNumbering(ctx context.Context, userID string) ([]Row, error)
	// ApplyNumbering writes all changes atomically.
	ApplyNumbering(ctx context.Context, userID string, changes []Assignment) error
}

// Transactor runs fn inside a store transaction carried by the context.
type Transactor interface {
	Within(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service recomputes session numbers and weeks. Calls for the same user are
// serialized and run in one transaction; different users never wait on each other.
type Service struct {
	store  Store
	tx     Transactor
	loc    *time.Location
	locks  *userLocks
	logger *slog.Logger
}

// NewService creates a numbering Service. Weeks are aligned to Mondays in loc.
func NewService(store Store, tx Transactor, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		tx:     tx,
		loc:    loc,
		locks:  newUserLocks(),
		logger: logger,
	}
}

// Recalculate renumbers the user's whole history and returns how many
// sessions changed. A second call with no intervening mutation changes nothing.
func (s *Service) Recalculate(ctx context.Context, userID string) (int, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var changed int
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		var err error
		changed, err = s.recalculate(ctx, userID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// Mutate runs mutate and the renumbering it triggers as one unit: if either
// fails, neither is applied.
func (s *Service) Mutate(ctx context.Context, userID string, mutate func(ctx context.Context) error) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.tx.Within(ctx, func(ctx context.Context) error {
		if err := mutate(ctx); err != nil {
			return err
		}
		_, err := s.recalculate(ctx, userID)
		return err
	})
}

// recalculate must run with the user lock held and inside a transaction.
func (s *Service) recalculate(ctx context.Context, userID string) (int, error) {
	rows, err := s.store.LoadNumbering(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load numbering: %w", err)
	}

	next := Assign(rows, s.loc)
	if err := Verify(next); err != nil {
		s.logger.Error("numbering invariant violated", "user_id", userID, "error", err)
		return 0, err
	}

	changes := Diff(rows, next)
	if len(changes) == 0 {
		return 0, nil
	}

	if err := s.store.ApplyNumbering(ctx, userID, changes); err != nil {
		return 0, fmt.Errorf("failed to apply numbering: %w", err)
	}

	s.logger.Debug("sessions renumbered", "user_id", userID, "sessions", len(rows), "changed", len(changes))
	return len(changes), nil
}
