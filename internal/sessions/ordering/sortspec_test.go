package ordering

import (
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want SortSpec
	}{
		{"empty", "", SortSpec{}},
		{"whitespace", "   ", SortSpec{}},
		{"default direction", "date", SortSpec{{ColumnDate, Desc}}},
		{"explicit asc", "date:asc", SortSpec{{ColumnDate, Asc}}},
		{"trimmed segments", " date : asc , week ", SortSpec{{ColumnDate, Asc}, {ColumnWeek, Desc}}},
		{"unknown column dropped", "bogus:asc,pace:asc", SortSpec{{ColumnPace, Asc}}},
		{"bad direction dropped", "date:up", SortSpec{}},
		{"empty tokens skipped", "date,,week", SortSpec{{ColumnDate, Desc}, {ColumnWeek, Desc}}},
		{
			"mixed malformed and duplicates",
			"date:asc,unknown:asc,week:down,date:desc,week:desc",
			SortSpec{{ColumnDate, Asc}, {ColumnWeek, Desc}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSortSpec_String(t *testing.T) {
	spec := SortSpec{{ColumnDate, Asc}, {ColumnPace, Desc}}
	if got := spec.String(); got != "date:asc,pace:desc" {
		t.Errorf("String() = %q", got)
	}
	if got := (SortSpec{}).String(); got != "" {
		t.Errorf("empty String() = %q", got)
	}
}

func columnNames() []string {
	names := []string{}
	for _, c := range Columns() {
		names = append(names, c.Name)
	}
	return names
}

func tokenGen() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		column := rapid.OneOf(
			rapid.SampledFrom(columnNames()),
			rapid.StringMatching(`[a-zA-Z]{0,8}`),
		).Draw(t, "column")
		switch rapid.IntRange(0, 3).Draw(t, "form") {
		case 0:
			return column
		case 1:
			return column + ":" + rapid.SampledFrom([]string{"asc", "desc"}).Draw(t, "dir")
		case 2:
			return column + ":" + rapid.StringMatching(`[a-z]{0,5}`).Draw(t, "junk")
		default:
			return "  " + column + " : desc "
		}
	})
}

// Feature: run-tracker, Property 1: sort directive round trip
// For any raw directive, serializing the parsed spec and parsing it again is a fixed point.
func TestSortSpec_Property1_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tokens := rapid.SliceOfN(tokenGen(), 0, 8).Draw(t, "tokens")
		raw := strings.Join(tokens, ",")

		once := Parse(raw).String()
		twice := Parse(once).String()
		if once != twice {
			t.Fatalf("serialize(parse) not idempotent for %q: %q vs %q", raw, once, twice)
		}

		seen := map[string]bool{}
		for _, k := range Parse(raw) {
			if seen[k.Column] {
				t.Fatalf("duplicate column %s in %q", k.Column, raw)
			}
			seen[k.Column] = true
			if _, ok := Lookup(k.Column); !ok {
				t.Fatalf("unknown column %s kept", k.Column)
			}
		}
	})
}

// Feature: run-tracker, Property 2: toggle cycle
// In multi mode a column cycles absent -> desc -> asc -> absent and other keys are untouched.
func TestToggle_Property2_MultiCycle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := columnNames()
		perm := rapid.Permutation(names).Draw(t, "perm")
		n := rapid.IntRange(0, len(perm)-1).Draw(t, "n")
		others := SortSpec{}
		for _, c := range perm[:n] {
			others = append(others, SortKey{c, rapid.SampledFrom([]Direction{Asc, Desc}).Draw(t, "dir")})
		}
		target := perm[n]

		step1 := Toggle(others, target, true)
		if !reflect.DeepEqual(step1, append(append(SortSpec{}, others...), SortKey{target, Desc})) {
			t.Fatalf("first toggle: %v", step1)
		}
		step2 := Toggle(step1, target, true)
		if !reflect.DeepEqual(step2, append(append(SortSpec{}, others...), SortKey{target, Asc})) {
			t.Fatalf("second toggle: %v", step2)
		}
		step3 := Toggle(step2, target, true)
		if !reflect.DeepEqual(step3, others) {
			t.Fatalf("third toggle: %v, want %v", step3, others)
		}
	})
}

func TestToggle_SingleMode(t *testing.T) {
	spec := SortSpec{{ColumnDate, Asc}, {ColumnWeek, Desc}}

	got := Toggle(spec, ColumnPace, false)
	if !reflect.DeepEqual(got, SortSpec{{ColumnPace, Desc}}) {
		t.Fatalf("absent column: %v", got)
	}
	got = Toggle(got, ColumnPace, false)
	if !reflect.DeepEqual(got, SortSpec{{ColumnPace, Asc}}) {
		t.Fatalf("desc column: %v", got)
	}
	got = Toggle(got, ColumnPace, false)
	if !reflect.DeepEqual(got, SortSpec{}) {
		t.Fatalf("asc column: %v", got)
	}

	got = Toggle(spec, ColumnWeek, false)
	if !reflect.DeepEqual(got, SortSpec{{ColumnWeek, Asc}}) {
		t.Fatalf("existing desc column in single mode: %v", got)
	}
}

func TestToggle_UnknownColumnAndNoAliasing(t *testing.T) {
	spec := SortSpec{{ColumnDate, Desc}}
	got := Toggle(spec, "nope", true)
	if !reflect.DeepEqual(got, spec) {
		t.Fatalf("unknown column changed spec: %v", got)
	}

	_ = Toggle(spec, ColumnDate, true)
	if spec[0].Direction != Desc {
		t.Fatal("Toggle mutated its input")
	}
}
