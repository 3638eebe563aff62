package ordering

import (
	"fmt"

	"run-tracker/internal/sessions/models"
)

// Sortable column names accepted in sort directives.
const (
	ColumnSessionNumber = "sessionNumber"
	ColumnWeek          = "week"
	ColumnDate          = "date"
	ColumnStatus        = "status"
	ColumnType          = "type"
	ColumnDuration      = "duration"
	ColumnDistance      = "distance"
	ColumnPace          = "pace"
	ColumnHeartRate     = "heartRate"
	ColumnRPE           = "rpe"
	ColumnComments      = "comments"
)

// Transform normalizes a stored value before comparison.
type Transform int

const (
	Identity Transform = iota
	MinutesToSeconds
	KilometersToMeters
	PaceToSeconds
	Lower
)

// Source names the stored field a column reads and how to normalize it.
type Source struct {
	Field     string
	Transform Transform
}

// Column describes how one sortable column is evaluated on each kind.
// A nil Planned source means the value is unknown for planned sessions.
// Invert marks lower-is-better columns: a desc request sorts ascending.
type Column struct {
	Name     string
	Realized Source
	Planned  *Source
	Invert   bool
}

var columns = []Column{
	{
		Name:     ColumnSessionNumber,
		Realized: Source{Field: models.FieldSessionNumber},
		Planned:  &Source{Field: models.FieldSessionNumber},
	},
	{
		Name:     ColumnWeek,
		Realized: Source{Field: models.FieldWeek},
		Planned:  &Source{Field: models.FieldWeek},
	},
	{
		Name:     ColumnDate,
		Realized: Source{Field: models.FieldDate},
		Planned:  &Source{Field: models.FieldPlannedDate},
	},
	{
		Name:     ColumnStatus,
		Realized: Source{Field: models.FieldStatus},
		Planned:  &Source{Field: models.FieldStatus},
	},
	{
		Name:     ColumnType,
		Realized: Source{Field: models.FieldSessionType, Transform: Lower},
		Planned:  &Source{Field: models.FieldSessionType, Transform: Lower},
	},
	{
		Name:     ColumnDuration,
		Realized: Source{Field: models.FieldDurationSec},
		Planned:  &Source{Field: models.FieldTargetDurationMin, Transform: MinutesToSeconds},
	},
	{
		Name:     ColumnDistance,
		Realized: Source{Field: models.FieldDistanceM},
		Planned:  &Source{Field: models.FieldTargetDistanceKm, Transform: KilometersToMeters},
	},
	{
		Name:     ColumnPace,
		Realized: Source{Field: models.FieldAvgPace, Transform: PaceToSeconds},
		Planned:  &Source{Field: models.FieldTargetPace, Transform: PaceToSeconds},
		Invert:   true,
	},
	{
		// Target heart rate is free text ("Z2", "140-150"), so planned sessions have no value.
		Name:     ColumnHeartRate,
		Realized: Source{Field: models.FieldAvgHeartRate},
	},
	{
		Name:     ColumnRPE,
		Realized: Source{Field: models.FieldPerceivedExertion},
		Planned:  &Source{Field: models.FieldTargetRPE},
	},
	{
		Name:     ColumnComments,
		Realized: Source{Field: models.FieldComments},
		Planned:  &Source{Field: models.FieldComments},
	},
}

var columnIndex = func() map[string]Column {
	idx := make(map[string]Column, len(columns))
	for _, c := range columns {
		idx[c.Name] = c
	}
	return idx
}()

// Lookup returns the column definition for name.
func Lookup(name string) (Column, bool) {
	c, ok := columnIndex[name]
	return c, ok
}

// Columns returns every sortable column in declaration order.
func Columns() []Column {
	return append([]Column(nil), columns...)
}

// SourceFor returns the source read for kind, or nil when the column has no
// value for that kind.
func (c Column) SourceFor(kind models.Kind) *Source {
	if kind == models.KindPlanned {
		return c.Planned
	}
	src := c.Realized
	return &src
}

// EffectiveDirection is the direction actually applied to the stored values.
func (c Column) EffectiveDirection(requested Direction) Direction {
	if c.Invert {
		return requested.Flip()
	}
	return requested
}

// Apply normalizes an in-memory value. nil stays nil.
func (t Transform) Apply(v any) any {
	if v == nil {
		return nil
	}
	switch t {
	case MinutesToSeconds:
		if n, ok := v.(int64); ok {
			return n * 60
		}
	case KilometersToMeters:
		if f, ok := v.(float64); ok {
			return f * 1000
		}
	case PaceToSeconds:
		if s, ok := v.(string); ok {
			if secs, ok := models.PaceSeconds(s); ok {
				return secs
			}
		}
		return nil
	case Lower:
		if s, ok := v.(string); ok {
			return asciiLower(s)
		}
	}
	return v
}

// SQL renders the same normalization as a SQLite expression over expr.
func (t Transform) SQL(expr string) string {
	switch t {
	case MinutesToSeconds:
		return fmt.Sprintf("(%s * 60)", expr)
	case KilometersToMeters:
		return fmt.Sprintf("(%s * 1000)", expr)
	case PaceToSeconds:
		return fmt.Sprintf(
			"(CASE WHEN instr(%[1]s, ':') > 0 THEN CAST(substr(%[1]s, 1, instr(%[1]s, ':') - 1) AS INTEGER) * 60 + CAST(substr(%[1]s, instr(%[1]s, ':') + 1) AS INTEGER) END)",
			expr)
	case Lower:
		return fmt.Sprintf("lower(%s)", expr)
	}
	return expr
}

// asciiLower matches SQLite's built-in lower(), which only folds ASCII.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
