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

const workoutColumns = `id, date, session_type, duration_sec, distance_m, avg_pace, avg_heart_rate,
	perceived_exertion, comments, planned_session_id, session_number, week, created_at`

// WorkoutRepository handles database operations for realized sessions.
// It never writes session_number or week; see NumberingRepository.
type WorkoutRepository struct {
	db *database.DB
}

// NewWorkoutRepository creates a new WorkoutRepository.
func NewWorkoutRepository(db *database.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// Create inserts a realized session and returns its id.
func (r *WorkoutRepository) Create(ctx context.Context, userID string, w *models.WorkoutCreate, createdAt string) (int64, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`INSERT INTO workouts (user_id, date, session_type, duration_sec, distance_m, avg_pace,
			avg_heart_rate, perceived_exertion, comments, planned_session_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, w.Date, w.SessionType, w.DurationSec, w.DistanceM, w.AvgPace,
		w.AvgHeartRate, w.PerceivedExertion, w.Comments, w.PlannedSessionID, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert workout: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of data to a realized session.
func (r *WorkoutRepository) Update(ctx context.Context, userID string, id int64, data *models.WorkoutUpdate) error {
	fieldToCol := map[string]string{
		"Date":              models.FieldDate,
		"SessionType":       models.FieldSessionType,
		"DurationSec":       models.FieldDurationSec,
		"DistanceM":         models.FieldDistanceM,
		"AvgPace":           models.FieldAvgPace,
		"AvgHeartRate":      models.FieldAvgHeartRate,
		"PerceivedExertion": models.FieldPerceivedExertion,
		"Comments":          models.FieldComments,
	}

	updates, args := utils.BuildUpdateQueryFromStruct(data, fieldToCol)
	if len(updates) == 0 {
		return r.exists(ctx, userID, id)
	}

	query := "UPDATE workouts SET " + strings.Join(updates, ", ") + " WHERE id = ? AND user_id = ?"
	args = append(args, id, userID)

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update workout: %w", err)
	}
	return rowsAffectedOrNotFound(result)
}

// Delete removes a realized session.
func (r *WorkoutRepository) Delete(ctx context.Context, userID string, id int64) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		"DELETE FROM workouts WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}
	return rowsAffectedOrNotFound(result)
}

func (r *WorkoutRepository) exists(ctx context.Context, userID string, id int64) error {
	var one int
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		"SELECT 1 FROM workouts WHERE id = ? AND user_id = ?", id, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query workout: %w", err)
	}
	return nil
}

// GetByIDs loads the realized sessions with the given ids, scoped to userID.
// The result is keyed by id; missing ids are simply absent.
func (r *WorkoutRepository) GetByIDs(ctx context.Context, userID string, ids []int64) (map[int64]models.UnifiedSession, error) {
	out := make(map[int64]models.UnifiedSession, len(ids))

	for _, chunk := range chunkIDs(ids, maxBatchIDs) {
		args := make([]any, 0, len(chunk)+1)
		args = append(args, userID)
		for _, id := range chunk {
			args = append(args, id)
		}

		rows, err := r.db.Executor(ctx).QueryContext(ctx,
			"SELECT "+workoutColumns+" FROM workouts WHERE user_id = ? AND id IN ("+placeholders(len(chunk))+")",
			args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query workouts: %w", err)
		}

		for rows.Next() {
			session, err := scanWorkout(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out[session.ID] = session
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating workout rows: %w", err)
		}
	}

	return out, nil
}

// scanWorkout maps a workouts row into the unified shape.
func scanWorkout(rows *sql.Rows) (models.UnifiedSession, error) {
	var (
		s                                       models.UnifiedSession
		date, avgPace, comments                 sql.NullString
		duration, hr, rpe, plannedID, num, week sql.NullInt64
		distance                                sql.NullFloat64
	)

	if err := rows.Scan(&s.ID, &date, &s.SessionType, &duration, &distance, &avgPace, &hr,
		&rpe, &comments, &plannedID, &num, &week, &s.CreatedAt); err != nil {
		return s, fmt.Errorf("failed to scan workout row: %w", err)
	}

	s.Kind = models.KindRealized
	s.Status = models.StatusCompleted
	s.Date = nullStringPtr(date)
	s.DurationSec = nullInt64Ptr(duration)
	s.DistanceM = nullFloat64Ptr(distance)
	s.AvgPace = nullStringPtr(avgPace)
	s.AvgHeartRate = nullInt64Ptr(hr)
	s.PerceivedExertion = nullInt64Ptr(rpe)
	s.Comments = nullStringPtr(comments)
	s.PlannedSessionID = nullInt64Ptr(plannedID)
	s.SessionNumber = nullInt64Ptr(num)
	s.Week = nullInt64Ptr(week)
	return s, nil
}
