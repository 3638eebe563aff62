// Package ordering holds the sort semantics shared by the SQL query planner
// and the in-memory comparator: the sort directive grammar, the per-column
// table and the comparator itself.
package ordering

import "strings"

// Direction is a sort direction as requested by the caller.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// SortKey is one (column, direction) entry of a sort directive.
type SortKey struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// SortSpec is an ordered list of sort keys, highest priority first.
type SortSpec []SortKey

// DefaultSpec is applied when no sort is requested: upcoming work above
// history, newest session numbers first.
var DefaultSpec = SortSpec{
	{Column: ColumnStatus, Direction: Desc},
	{Column: ColumnSessionNumber, Direction: Desc},
}

// ResolvedKey is a sort key bound to its column semantics.
type ResolvedKey struct {
	Column    Column
	Direction Direction
}

// Resolve expands spec into the full key list shared by the pushdown and
// in-memory paths: the requested keys, then DefaultSpec for ties. Unknown
// and repeated columns are skipped.
func Resolve(spec SortSpec) []ResolvedKey {
	keys := make([]ResolvedKey, 0, len(spec)+len(DefaultSpec))
	seen := make(map[string]bool)
	add := func(k SortKey) {
		if seen[k.Column] {
			return
		}
		column, ok := Lookup(k.Column)
		if !ok {
			return
		}
		seen[k.Column] = true
		keys = append(keys, ResolvedKey{Column: column, Direction: k.Direction})
	}
	for _, k := range spec {
		add(k)
	}
	for _, k := range DefaultSpec {
		add(k)
	}
	return keys
}

// Parse reads a directive of the form "col[:dir][,col[:dir]]*".
// Unknown columns, invalid directions and repeated columns are dropped.
// Blank input yields an empty spec.
func Parse(raw string) SortSpec {
	spec := SortSpec{}
	seen := make(map[string]bool)

	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		column, dir := token, ""
		if i := strings.IndexByte(token, ':'); i >= 0 {
			column, dir = token[:i], token[i+1:]
		}
		column = strings.TrimSpace(column)
		dir = strings.TrimSpace(dir)

		if _, ok := Lookup(column); !ok {
			continue
		}
		direction := Desc
		switch dir {
		case "", string(Desc):
		case string(Asc):
			direction = Asc
		default:
			continue
		}
		if seen[column] {
			continue
		}
		seen[column] = true
		spec = append(spec, SortKey{Column: column, Direction: direction})
	}

	return spec
}

// String serializes the spec as "col:dir,col:dir".
func (s SortSpec) String() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = k.Column + ":" + string(k.Direction)
	}
	return strings.Join(parts, ",")
}

// IsEmpty reports whether the spec has no keys.
func (s SortSpec) IsEmpty() bool {
	return len(s) == 0
}

// Toggle advances column through desc -> asc -> removed. In multi mode the
// other keys keep their order; otherwise the result holds at most this column.
// Unknown columns leave the spec unchanged.
func Toggle(spec SortSpec, column string, multi bool) SortSpec {
	if _, ok := Lookup(column); !ok {
		return append(SortSpec{}, spec...)
	}

	idx := -1
	for i, k := range spec {
		if k.Column == column {
			idx = i
			break
		}
	}

	if !multi {
		switch {
		case idx < 0:
			return SortSpec{{Column: column, Direction: Desc}}
		case spec[idx].Direction == Desc:
			return SortSpec{{Column: column, Direction: Asc}}
		default:
			return SortSpec{}
		}
	}

	out := append(SortSpec{}, spec...)
	switch {
	case idx < 0:
		out = append(out, SortKey{Column: column, Direction: Desc})
	case out[idx].Direction == Desc:
		out[idx].Direction = Asc
	default:
		out = append(out[:idx], out[idx+1:]...)
	}
	return out
}
