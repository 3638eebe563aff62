package utils

import (
	"net/url"
	"reflect"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   *int64
		want string
	}{
		{nil, ""},
		{ptr(int64(0)), "0:00:00"},
		{ptr(int64(59)), "0:00:59"},
		{ptr(int64(3725)), "1:02:05"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration() = %q, want %q", got, tt.want)
		}
	}
}

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		def, max   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 20, 100, 20, 0},
		{"explicit", "limit=5&offset=10", 20, 100, 5, 10},
		{"clamped", "limit=500", 20, 100, 100, 0},
		{"negative", "limit=-3&offset=-1", 20, 100, 0, 0},
		{"garbage", "limit=abc&offset=xyz", 20, 100, 20, 0},
		{"unbounded", "limit=500", 0, 0, 500, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			limit, offset := ParsePaginationParams(q, tt.def, tt.max)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got (%d, %d), want (%d, %d)", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestBuildWhereClause(t *testing.T) {
	if got := BuildWhereClause(nil); got != "" {
		t.Errorf("empty conditions = %q", got)
	}
	if got := BuildWhereClause([]string{"a = ?", "b = ?"}); got != " WHERE a = ? AND b = ?" {
		t.Errorf("got %q", got)
	}
}

func TestBuildUpdateQueryFromStruct(t *testing.T) {
	type update struct {
		Name    *string
		Count   *int64
		Ignored *string
		Plain   string
	}
	name := ""
	count := int64(3)
	parts, args := BuildUpdateQueryFromStruct(&update{Name: &name, Count: &count, Plain: "x"},
		map[string]string{"Name": "name", "Count": "count", "Plain": "plain"})

	if !reflect.DeepEqual(parts, []string{"name = ?", "count = ?"}) {
		t.Fatalf("parts = %v", parts)
	}
	if args[0] != nil || args[1] != int64(3) {
		t.Fatalf("args = %v", args)
	}
}

func ptr[T any](v T) *T { return &v }
