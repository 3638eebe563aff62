package repository

import (
	"context"
	"fmt"
	"strings"

	"run-tracker/internal/sessions/models"
	"run-tracker/internal/sessions/ordering"
	"run-tracker/internal/shared/database"
	"run-tracker/internal/shared/utils"
)

// QueryPlanner pushes filtering, sorting and pagination of the unified
// session list down into a single UNION ALL query and returns only refs.
type QueryPlanner struct {
	db *database.DB
}

// NewQueryPlanner creates a new QueryPlanner.
func NewQueryPlanner(db *database.DB) *QueryPlanner {
	return &QueryPlanner{db: db}
}

// branch describes one side of the union.
type branch struct {
	kind      models.Kind
	table     string
	alias     string
	dateField string
	extra     []string
}

var (
	realizedBranch = branch{
		kind:      models.KindRealized,
		table:     "workouts",
		alias:     "w",
		dateField: models.FieldDate,
	}
	plannedBranch = branch{
		kind:      models.KindPlanned,
		table:     "planned_sessions",
		alias:     "p",
		dateField: models.FieldPlannedDate,
		extra:     []string{"NOT " + supersededPredicate},
	}
)

// fieldExpr returns the SQL expression reading field on branch b.
func (b branch) fieldExpr(field string) string {
	if field == models.FieldStatus {
		if b.kind == models.KindPlanned {
			return "'" + string(models.StatusPlanned) + "'"
		}
		return "'" + string(models.StatusCompleted) + "'"
	}
	return b.alias + "." + field
}

// sortExpr renders the normalized value of column for branch b, or NULL
// when the column has no value for that kind.
func (b branch) sortExpr(column ordering.Column) string {
	src := column.SourceFor(b.kind)
	if src == nil {
		return "NULL"
	}
	return src.Transform.SQL(b.fieldExpr(src.Field))
}

// filterConditions renders the filter predicates for branch b. Both
// branches receive the same predicates in the same argument order.
func (b branch) filterConditions(userID string, filter *models.ListFilter) ([]string, []any) {
	conditions := []string{b.alias + ".user_id = ?"}
	args := []any{userID}
	conditions = append(conditions, b.extra...)

	if filter == nil {
		return conditions, args
	}
	if filter.Type != "" {
		conditions = append(conditions, "lower("+b.alias+".session_type) = lower(?)")
		args = append(args, filter.Type)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		conditions = append(conditions,
			"("+b.alias+".session_type LIKE ? ESCAPE '\\' OR "+b.alias+".comments LIKE ? ESCAPE '\\')")
		args = append(args, pattern, pattern)
	}
	if filter.DateFrom != nil && *filter.DateFrom != "" {
		// The bound applies to dated records only; undated ones pass through.
		col := b.alias + "." + b.dateField
		conditions = append(conditions, "("+col+" IS NULL OR "+col+" >= ?)")
		args = append(args, *filter.DateFrom)
	}
	return conditions, args
}

// selectBranch renders one side of the union projecting id, kind and the sort values.
func (b branch) selectBranch(userID string, filter *models.ListFilter, keys []ordering.ResolvedKey) (string, []any) {
	cols := []string{b.alias + ".id AS id", "'" + string(b.kind) + "' AS kind"}
	for i, k := range keys {
		cols = append(cols, fmt.Sprintf("%s AS sort_%d", b.sortExpr(k.Column), i))
	}
	conditions, args := b.filterConditions(userID, filter)
	query := "SELECT " + strings.Join(cols, ", ") + " FROM " + b.table + " " + b.alias +
		utils.BuildWhereClause(conditions)
	return query, args
}

// buildUnion renders both branches joined with UNION ALL.
func buildUnion(userID string, filter *models.ListFilter, keys []ordering.ResolvedKey) (string, []any) {
	realizedSQL, realizedArgs := realizedBranch.selectBranch(userID, filter, keys)
	plannedSQL, plannedArgs := plannedBranch.selectBranch(userID, filter, keys)
	return realizedSQL + " UNION ALL " + plannedSQL, append(realizedArgs, plannedArgs...)
}

// buildPlan renders the complete ordered, paginated query.
// Nulls sort last in both directions, and kind then id make the order total.
func buildPlan(userID string, filter *models.ListFilter, spec ordering.SortSpec, limit, offset int) (string, []any) {
	keys := ordering.Resolve(spec)
	union, args := buildUnion(userID, filter, keys)

	orderBy := make([]string, 0, 2*len(keys)+2)
	for i, k := range keys {
		dir := "ASC"
		if k.Column.EffectiveDirection(k.Direction) == ordering.Desc {
			dir = "DESC"
		}
		orderBy = append(orderBy,
			fmt.Sprintf("(u.sort_%d IS NULL)", i),
			fmt.Sprintf("u.sort_%d %s", i, dir))
	}
	orderBy = append(orderBy, "u.kind ASC", "u.id ASC")

	query := "SELECT u.id, u.kind FROM (" + union + ") AS u ORDER BY " + strings.Join(orderBy, ", ")
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	return query, args
}

// Plan returns the ordered refs of the filtered unified list for userID.
// limit 0 returns the full set; otherwise at most limit refs starting at offset.
func (q *QueryPlanner) Plan(ctx context.Context, userID string, filter *models.ListFilter, spec ordering.SortSpec, limit, offset int) ([]models.SessionRef, error) {
	query, args := buildPlan(userID, filter, spec, limit, offset)

	rows, err := q.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to plan session query: %w", err)
	}
	defer rows.Close()

	refs := []models.SessionRef{}
	for rows.Next() {
		var ref models.SessionRef
		var kind string
		if err := rows.Scan(&ref.ID, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan session ref: %w", err)
		}
		ref.Kind = models.Kind(kind)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session refs: %w", err)
	}
	return refs, nil
}

// Count returns the size of the filtered unified list for userID.
func (q *QueryPlanner) Count(ctx context.Context, userID string, filter *models.ListFilter) (int64, error) {
	union, args := buildUnion(userID, filter, nil)

	var total int64
	if err := q.db.Executor(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ("+union+")", args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return total, nil
}
