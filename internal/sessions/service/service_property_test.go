package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"regexp"
	"testing"

	"pgregory.net/rapid"

	"run-tracker/internal/sessions/models"
	"run-tracker/internal/shared/config"
)

var sortDirectives = []string{
	"",
	"date:asc",
	"date:desc,type:asc",
	"pace",
	"pace:asc,distance:desc",
	"duration:asc",
	"heartRate:desc,rpe:asc",
	"week:asc,comments:desc",
	"status:asc,sessionNumber:asc",
	"type,date:asc",
}

func drawPace(t *rapid.T, label string) *string {
	if !rapid.Bool().Draw(t, label+"Set") {
		return nil
	}
	p := fmt.Sprintf("%d:%02d", rapid.IntRange(3, 9).Draw(t, label+"Min"), rapid.IntRange(0, 59).Draw(t, label+"Sec"))
	return &p
}

func drawOptionalInt(t *rapid.T, label string, lo, hi int64) *int64 {
	if !rapid.Bool().Draw(t, label+"Set") {
		return nil
	}
	v := rapid.Int64Range(lo, hi).Draw(t, label)
	return &v
}

func drawDate(t *rapid.T, label string) string {
	return fmt.Sprintf("2024-0%d-%02d", rapid.IntRange(1, 3).Draw(t, label+"Month"), rapid.IntRange(1, 28).Draw(t, label+"Day"))
}

// populate creates a random mix of workouts, dated and undated plans, and
// completed plans for userID.
func populate(t *rapid.T, svc *SessionService, userID string) int {
	ctx := context.Background()
	types := []string{"easy", "Tempo", "long", "intervals"}
	n := rapid.IntRange(0, 7).Draw(t, "n")
	listed := 0

	for i := 0; i < n; i++ {
		label := fmt.Sprintf("s%d", i)
		sessionType := rapid.SampledFrom(types).Draw(t, label+"Type")
		switch rapid.IntRange(0, 2).Draw(t, label+"Kind") {
		case 0:
			_, err := svc.CreateWorkout(ctx, userID, &models.WorkoutCreate{
				Date:              drawDate(t, label),
				SessionType:       sessionType,
				DurationSec:       drawOptionalInt(t, label+"Dur", 600, 7200),
				AvgPace:           drawPace(t, label+"Pace"),
				AvgHeartRate:      drawOptionalInt(t, label+"HR", 100, 190),
				PerceivedExertion: drawOptionalInt(t, label+"RPE", 1, 10),
			})
			if err != nil {
				t.Fatalf("create workout: %v", err)
			}
		default:
			var date *string
			if rapid.Bool().Draw(t, label+"Dated") {
				d := drawDate(t, label)
				date = &d
			}
			plan, err := svc.CreatePlanned(ctx, userID, &models.PlannedCreate{
				PlannedDate:       date,
				SessionType:       sessionType,
				TargetDurationMin: drawOptionalInt(t, label+"Dur", 10, 120),
				TargetPace:        drawPace(t, label+"Pace"),
				TargetRPE:         drawOptionalInt(t, label+"RPE", 1, 10),
			})
			if err != nil {
				t.Fatalf("create planned: %v", err)
			}
			if rapid.Bool().Draw(t, label+"Complete") {
				if _, err := svc.CompletePlanned(ctx, userID, plan.ID, &models.PlannedComplete{}); err != nil {
					t.Fatalf("complete planned: %v", err)
				}
			}
		}
		listed++
	}
	return listed
}

// Feature: run-tracker, Property 3: pushdown and in-memory ordering agree
// *For any* history and any sort directive, LoadAll (default pushdown order,
// then the in-memory comparator) returns exactly the order of ListSessions
// with no limit.
func TestSessionService_Property3_LoadAllMatchesPushdown(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	iteration := 0
	rapid.Check(t, func(t *rapid.T) {
		iteration++
		userID := fmt.Sprintf("user-%d", iteration)
		listed := populate(t, svc, userID)
		sort := rapid.SampledFrom(sortDirectives).Draw(t, "sort")

		pushed, err := svc.ListSessions(context.Background(), userID, models.ListFilter{Sort: sort})
		if err != nil {
			t.Fatalf("ListSessions: %v", err)
		}
		loaded, err := svc.LoadAll(context.Background(), userID, models.ListFilter{Sort: sort})
		if err != nil {
			t.Fatalf("LoadAll: %v", err)
		}

		if len(pushed.Items) != listed || len(loaded) != listed {
			t.Fatalf("listed %d, pushdown returned %d, load all returned %d", listed, len(pushed.Items), len(loaded))
		}
		for i := range loaded {
			if pushed.Items[i].Ref() != loaded[i].Ref() {
				t.Fatalf("sort %q position %d: pushdown %v, in-memory %v", sort, i, refs(pushed.Items), refs(loaded))
			}
		}
	})
}

// Feature: run-tracker, Property 5: numbering is dense after any mutation
// *For any* history built through the service, the listed session numbers
// are exactly 1..N.
func TestSessionService_Property5_DenseAfterMutations(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	iteration := 0
	rapid.Check(t, func(t *rapid.T) {
		iteration++
		userID := fmt.Sprintf("user-%d", iteration)
		populate(t, svc, userID)

		page, err := svc.ListSessions(context.Background(), userID, models.ListFilter{Sort: "sessionNumber:asc"})
		if err != nil {
			t.Fatalf("ListSessions: %v", err)
		}
		for i, item := range page.Items {
			if item.SessionNumber == nil || *item.SessionNumber != int64(i+1) {
				t.Fatalf("position %d has number %v in %v", i, item.SessionNumber, refs(page.Items))
			}
		}
	})
}

// Feature: run-tracker, Property 8: CSV export format
// *For any* export:
// - content starts with the UTF-8 BOM (0xEF 0xBB 0xBF)
// - the first record is the header, followed by one record per listed session
// - durations are formatted as H:MM:SS
func TestCSVExport_Property8_FormatCorrectness(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	durationRegex := regexp.MustCompile(`^\d+:\d{2}:\d{2}$`)
	header := len(config.CSVColumns)

	iteration := 0
	rapid.Check(t, func(t *rapid.T) {
		iteration++
		userID := fmt.Sprintf("user-%d", iteration)
		listed := populate(t, svc, userID)

		data, err := svc.ExportCSV(context.Background(), userID, models.ListFilter{})
		if err != nil {
			t.Fatalf("ExportCSV: %v", err)
		}
		if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
			t.Fatal("CSV should start with UTF-8 BOM")
		}

		records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
		if err != nil {
			t.Fatalf("parse CSV: %v", err)
		}
		if len(records) != listed+1 {
			t.Fatalf("got %d records, want header plus %d", len(records), listed)
		}
		for i, record := range records {
			if len(record) != header {
				t.Fatalf("record %d has %d fields, want %d", i, len(record), header)
			}
			if i > 0 && record[5] != "" && !durationRegex.MatchString(record[5]) {
				t.Fatalf("record %d duration %q is not H:MM:SS", i, record[5])
			}
		}
	})
}

func TestExportCSV_PlannedTargets(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.CreatePlanned(ctx, "alice", &models.PlannedCreate{
		PlannedDate:       str("2024-02-01"),
		SessionType:       "long",
		TargetDurationMin: i64(45),
		TargetDistanceKm:  f64(10),
		TargetHR:          str("Z2"),
		Comments:          str("hills, then flat"),
	})
	if err != nil {
		t.Fatalf("CreatePlanned failed: %v", err)
	}

	data, err := svc.ExportCSV(ctx, "alice", models.ListFilter{})
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	want := []string{"1", "1", "planned", "2024-02-01T00:00:00Z", "long", "0:45:00", "10000", "", "Z2", "", "hills, then flat"}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for i := range want {
		if records[1][i] != want[i] {
			t.Errorf("field %d = %q, want %q", i, records[1][i], want[i])
		}
	}
}
