package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"run-tracker/internal/sessions/models"
	"run-tracker/internal/shared/database"
	"run-tracker/internal/shared/utils"
)

const plannedColumns = `id, planned_date, session_type, target_duration_min, target_distance_km,
	target_pace, target_hr, target_rpe, comments, session_number, week, created_at`

// supersededPredicate is true when a realized session completes planned row p.
const supersededPredicate = `EXISTS (SELECT 1 FROM workouts s WHERE s.planned_session_id = p.id AND s.user_id = p.user_id)`

// PlannedRepository handles database operations for planned sessions.
type PlannedRepository struct {
	db *database.DB
}

// NewPlannedRepository creates a new PlannedRepository.
func NewPlannedRepository(db *database.DB) *PlannedRepository {
	return &PlannedRepository{db: db}
}

// Create inserts a planned session and returns its id.
func (r *PlannedRepository) Create(ctx context.Context, userID string, p *models.PlannedCreate, createdAt string) (int64, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`INSERT INTO planned_sessions (user_id, planned_date, session_type, target_duration_min,
			target_distance_km, target_pace, target_hr, target_rpe, comments, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, p.PlannedDate, p.SessionType, p.TargetDurationMin, p.TargetDistanceKm,
		p.TargetPace, p.TargetHR, p.TargetRPE, p.Comments, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert planned session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of data to a planned session.
// An empty planned date clears it.
func (r *PlannedRepository) Update(ctx context.Context, userID string, id int64, data *models.PlannedUpdate) error {
	fieldToCol := map[string]string{
		"PlannedDate":       models.FieldPlannedDate,
		"SessionType":       models.FieldSessionType,
		"TargetDurationMin": models.FieldTargetDurationMin,
		"TargetDistanceKm":  models.FieldTargetDistanceKm,
		"TargetPace":        models.FieldTargetPace,
		"TargetHR":          models.FieldTargetHR,
		"TargetRPE":         models.FieldTargetRPE,
		"Comments":          models.FieldComments,
	}

	updates, args := utils.BuildUpdateQueryFromStruct(data, fieldToCol)
	if len(updates) == 0 {
		_, err := r.Get(ctx, userID, id)
		return err
	}

	query := "UPDATE planned_sessions SET " + strings.Join(updates, ", ") + " WHERE id = ? AND user_id = ?"
	args = append(args, id, userID)

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update planned session: %w", err)
	}
	return rowsAffectedOrNotFound(result)
}

// Delete removes a planned session. A realized session that completed it
// keeps its data and loses the back-reference.
func (r *PlannedRepository) Delete(ctx context.Context, userID string, id int64) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		"DELETE FROM planned_sessions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete planned session: %w", err)
	}
	return rowsAffectedOrNotFound(result)
}

// Get loads a single planned session regardless of whether it was completed.
func (r *PlannedRepository) Get(ctx context.Context, userID string, id int64) (*models.UnifiedSession, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		"SELECT "+plannedColumns+" FROM planned_sessions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query planned session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating planned rows: %w", err)
		}
		return nil, ErrNotFound
	}
	session, err := scanPlanned(rows)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// IsSuperseded reports whether a realized session already completes plan id.
func (r *PlannedRepository) IsSuperseded(ctx context.Context, userID string, id int64) (bool, error) {
	var superseded bool
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		"SELECT "+supersededPredicate+" FROM planned_sessions p WHERE p.id = ? AND p.user_id = ?",
		id, userID).Scan(&superseded)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to check planned session: %w", err)
	}
	return superseded, nil
}

// GetByIDs loads the planned sessions with the given ids, scoped to userID.
// Superseded plans are excluded so they never surface next to their realization.
func (r *PlannedRepository) GetByIDs(ctx context.Context, userID string, ids []int64) (map[int64]models.UnifiedSession, error) {
	out := make(map[int64]models.UnifiedSession, len(ids))

	for _, chunk := range chunkIDs(ids, maxBatchIDs) {
		args := make([]any, 0, len(chunk)+1)
		args = append(args, userID)
		for _, id := range chunk {
			args = append(args, id)
		}

		rows, err := r.db.Executor(ctx).QueryContext(ctx,
			"SELECT "+plannedColumns+" FROM planned_sessions p WHERE p.user_id = ? AND p.id IN ("+
				placeholders(len(chunk))+") AND NOT "+supersededPredicate,
			args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query planned sessions: %w", err)
		}

		for rows.Next() {
			session, err := scanPlanned(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out[session.ID] = session
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating planned rows: %w", err)
		}
	}

	return out, nil
}

// scanPlanned maps a planned_sessions row into the unified shape.
func scanPlanned(rows *sql.Rows) (models.UnifiedSession, error) {
	var (
		s                        models.UnifiedSession
		date, pace, hr, comments sql.NullString
		duration, rpe, num, week sql.NullInt64
		distance                 sql.NullFloat64
	)

	if err := rows.Scan(&s.ID, &date, &s.SessionType, &duration, &distance, &pace, &hr,
		&rpe, &comments, &num, &week, &s.CreatedAt); err != nil {
		return s, fmt.Errorf("failed to scan planned row: %w", err)
	}

	s.Kind = models.KindPlanned
	s.Status = models.StatusPlanned
	s.PlannedDate = nullStringPtr(date)
	s.TargetDurationMin = nullInt64Ptr(duration)
	s.TargetDistanceKm = nullFloat64Ptr(distance)
	s.TargetPace = nullStringPtr(pace)
	s.TargetHR = nullStringPtr(hr)
	s.TargetRPE = nullInt64Ptr(rpe)
	s.Comments = nullStringPtr(comments)
	s.SessionNumber = nullInt64Ptr(num)
	s.Week = nullInt64Ptr(week)
	return s, nil
}
