// Package numbering assigns the dense per-user session numbers and relative
// training weeks. It is the only writer of session_number and week.
package numbering

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"run-tracker/internal/sessions/models"
)

// ErrInvariant is returned when a computed assignment is not a dense 1..N
// sequence. It indicates a bug, never bad input.
var ErrInvariant = errors.New("numbering invariant violated")

// Row is the minimal view of a stored session needed for numbering.
type Row struct {
	Ref           models.SessionRef
	Date          *string
	CreatedAt     string
	SessionNumber *int64
	Week          *int64
	// Superseded plans are hidden from listings and lose their number.
	Superseded bool
}

// Assignment is the computed number and week for one session.
type Assignment struct {
	Ref           models.SessionRef
	SessionNumber *int64
	Week          *int64
}

type datedRow struct {
	Row
	at time.Time
}

// Assign computes the next numbering state for every row. Dated sessions are
// grouped by Monday-aligned week in loc; weeks are numbered 1..W in
// chronological order among weeks that hold a dated session. Numbers run
// across weeks by date, then creation order. Undated sessions follow in their
// existing relative order with no week.
func Assign(rows []Row, loc *time.Location) []Assignment {
	if loc == nil {
		loc = time.UTC
	}

	var dated []datedRow
	var undated []Row
	out := make([]Assignment, 0, len(rows))

	for _, r := range rows {
		if r.Superseded {
			out = append(out, Assignment{Ref: r.Ref})
			continue
		}
		if r.Date != nil {
			if at, err := time.Parse(models.TimestampLayout, *r.Date); err == nil {
				dated = append(dated, datedRow{Row: r, at: at})
				continue
			}
		}
		undated = append(undated, r)
	}

	sort.SliceStable(dated, func(i, j int) bool {
		a, b := dated[i], dated[j]
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return creationLess(a.Row, b.Row)
	})

	sort.SliceStable(undated, func(i, j int) bool {
		a, b := undated[i], undated[j]
		switch {
		case a.SessionNumber != nil && b.SessionNumber != nil:
			if *a.SessionNumber != *b.SessionNumber {
				return *a.SessionNumber < *b.SessionNumber
			}
		case a.SessionNumber != nil:
			return true
		case b.SessionNumber != nil:
			return false
		}
		return creationLess(a, b)
	})

	var number, week int64
	lastWeek := ""
	for _, d := range dated {
		key := weekStart(d.at, loc)
		if key != lastWeek {
			week++
			lastWeek = key
		}
		number++
		out = append(out, Assignment{Ref: d.Ref, SessionNumber: int64Ptr(number), Week: int64Ptr(week)})
	}
	for _, u := range undated {
		number++
		out = append(out, Assignment{Ref: u.Ref, SessionNumber: int64Ptr(number)})
	}
	return out
}

// creationLess orders by creation time, then kind and id for a total order.
func creationLess(a, b Row) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	if a.Ref.Kind != b.Ref.Kind {
		return a.Ref.Kind < b.Ref.Kind
	}
	return a.Ref.ID < b.Ref.ID
}

// weekStart returns the Monday of t's week in loc as YYYY-MM-DD.
func weekStart(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	monday := time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
	return monday.Format("2006-01-02")
}

// Diff returns the assignments that differ from the stored rows.
func Diff(rows []Row, next []Assignment) []Assignment {
	current := make(map[models.SessionRef]Row, len(rows))
	for _, r := range rows {
		current[r.Ref] = r
	}

	var changed []Assignment
	for _, a := range next {
		r, ok := current[a.Ref]
		if !ok || !equalPtr(r.SessionNumber, a.SessionNumber) || !equalPtr(r.Week, a.Week) {
			changed = append(changed, a)
		}
	}
	return changed
}

// Verify checks that numbered sessions hold exactly 1..N and that weeks are
// contiguous from 1.
func Verify(next []Assignment) error {
	var numbers, weeks []int64
	for _, a := range next {
		if a.SessionNumber != nil {
			numbers = append(numbers, *a.SessionNumber)
		}
		if a.Week != nil {
			weeks = append(weeks, *a.Week)
		}
	}

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for i, n := range numbers {
		if n != int64(i+1) {
			return fmt.Errorf("%w: session numbers are not 1..%d", ErrInvariant, len(numbers))
		}
	}

	sort.Slice(weeks, func(i, j int) bool { return weeks[i] < weeks[j] })
	var prev int64
	for _, w := range weeks {
		if w != prev && w != prev+1 {
			return fmt.Errorf("%w: week %d follows week %d", ErrInvariant, w, prev)
		}
		prev = w
	}
	if len(weeks) > 0 && weeks[0] != 1 {
		return fmt.Errorf("%w: first week is %d", ErrInvariant, weeks[0])
	}
	return nil
}

func int64Ptr(v int64) *int64 {
	return &v
}

func equalPtr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
