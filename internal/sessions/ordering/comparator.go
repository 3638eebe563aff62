package ordering

import (
	"sort"
	"strings"

	"run-tracker/internal/sessions/models"
)

// Value returns the normalized value of column for rec, or nil when unknown.
// Planned sessions read the planned source, everything else the realized one.
func Value(rec *models.UnifiedSession, column Column) any {
	kind := models.KindRealized
	if rec.Status == models.StatusPlanned {
		kind = models.KindPlanned
	}
	src := column.SourceFor(kind)
	if src == nil {
		return nil
	}
	return src.Transform.Apply(rec.Field(src.Field))
}

// CompareValues orders two column values. nil sorts after any value in both
// directions; invert flips the direction before comparing.
func CompareValues(a, b any, dir Direction, invert bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	if invert {
		dir = dir.Flip()
	}
	c := compareNatural(a, b)
	if dir == Desc {
		return -c
	}
	return c
}

// compareNatural compares numbers numerically and strings bytewise, the way
// SQLite's BINARY collation does.
func compareNatural(a, b any) int {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
		// SQLite sorts numbers before text.
		return 1
	}
	if _, ok := b.(string); ok {
		return -1
	}

	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return cmpOrdered(ai, bi)
		}
	}
	return cmpOrdered(toFloat(a), toFloat(b))
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Compare orders a and b by Resolve(spec); the first non-zero key decides.
// Sessions equal on every key are ordered by kind, then id.
func Compare(a, b *models.UnifiedSession, spec SortSpec) int {
	return compareKeys(a, b, Resolve(spec))
}

func compareKeys(a, b *models.UnifiedSession, keys []ResolvedKey) int {
	for _, key := range keys {
		if c := CompareValues(Value(a, key.Column), Value(b, key.Column), key.Direction, key.Column.Invert); c != 0 {
			return c
		}
	}
	if c := strings.Compare(string(a.Kind), string(b.Kind)); c != 0 {
		return c
	}
	return cmpOrdered(a.ID, b.ID)
}

// Sort orders sessions in place. The result does not depend on input order.
func Sort(sessions []models.UnifiedSession, spec SortSpec) {
	keys := Resolve(spec)
	sort.SliceStable(sessions, func(i, j int) bool {
		return compareKeys(&sessions[i], &sessions[j], keys) < 0
	})
}
