package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"run-tracker/internal/sessions/models"
	"run-tracker/internal/sessions/numbering"
	"run-tracker/internal/shared/database"
)

// numberingBatchSize bounds the rows in one CASE update (five parameters per row).
const numberingBatchSize = 150

// NumberingRepository is the only writer of session_number and week.
type NumberingRepository struct {
	db *database.DB
}

// NewNumberingRepository creates a new NumberingRepository.
func NewNumberingRepository(db *database.DB) *NumberingRepository {
	return &NumberingRepository{db: db}
}

// LoadNumbering reads the minimal numbering view of every session the user
// owns, flagging planned sessions that a realized session completed.
func (r *NumberingRepository) LoadNumbering(ctx context.Context, userID string) ([]numbering.Row, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		`SELECT 'realized', w.id, w.date, w.created_at, w.session_number, w.week, 0
		   FROM workouts w WHERE w.user_id = ?
		 UNION ALL
		 SELECT 'planned', p.id, p.planned_date, p.created_at, p.session_number, p.week, `+supersededPredicate+`
		   FROM planned_sessions p WHERE p.user_id = ?`,
		userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query numbering rows: %w", err)
	}
	defer rows.Close()

	var out []numbering.Row
	for rows.Next() {
		var (
			row       numbering.Row
			kind      string
			date      sql.NullString
			num, week sql.NullInt64
		)
		if err := rows.Scan(&kind, &row.Ref.ID, &date, &row.CreatedAt, &num, &week, &row.Superseded); err != nil {
			return nil, fmt.Errorf("failed to scan numbering row: %w", err)
		}
		row.Ref.Kind = models.Kind(kind)
		row.Date = nullStringPtr(date)
		row.SessionNumber = nullInt64Ptr(num)
		row.Week = nullInt64Ptr(week)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating numbering rows: %w", err)
	}
	return out, nil
}

// ApplyNumbering writes changes with batched CASE updates, one table at a
// time. Callers run it inside a transaction so the whole set lands or none does.
func (r *NumberingRepository) ApplyNumbering(ctx context.Context, userID string, changes []numbering.Assignment) error {
	byTable := map[string][]numbering.Assignment{}
	for _, c := range changes {
		switch c.Ref.Kind {
		case models.KindRealized:
			byTable["workouts"] = append(byTable["workouts"], c)
		case models.KindPlanned:
			byTable["planned_sessions"] = append(byTable["planned_sessions"], c)
		default:
			return fmt.Errorf("unknown session kind %q", c.Ref.Kind)
		}
	}

	for _, table := range []string{"workouts", "planned_sessions"} {
		pending := byTable[table]
		for len(pending) > 0 {
			n := len(pending)
			if n > numberingBatchSize {
				n = numberingBatchSize
			}
			if err := r.applyBatch(ctx, table, userID, pending[:n]); err != nil {
				return err
			}
			pending = pending[n:]
		}
	}
	return nil
}

func (r *NumberingRepository) applyBatch(ctx context.Context, table, userID string, batch []numbering.Assignment) error {
	var numberCase, weekCase strings.Builder
	args := make([]any, 0, 5*len(batch)+1)

	numberCase.WriteString("CASE id")
	for _, c := range batch {
		numberCase.WriteString(" WHEN ? THEN ?")
		args = append(args, c.Ref.ID, c.SessionNumber)
	}
	numberCase.WriteString(" END")

	weekCase.WriteString("CASE id")
	for _, c := range batch {
		weekCase.WriteString(" WHEN ? THEN ?")
		args = append(args, c.Ref.ID, c.Week)
	}
	weekCase.WriteString(" END")

	args = append(args, userID)
	for _, c := range batch {
		args = append(args, c.Ref.ID)
	}

	query := "UPDATE " + table + " SET session_number = " + numberCase.String() +
		", week = " + weekCase.String() +
		" WHERE user_id = ? AND id IN (" + placeholders(len(batch)) + ")"

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to write numbering to %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read numbering result: %w", err)
	}
	if affected != int64(len(batch)) {
		return fmt.Errorf("numbering write to %s touched %d of %d rows", table, affected, len(batch))
	}
	return nil
}
