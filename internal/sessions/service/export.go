package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"run-tracker/internal/sessions/models"
	"run-tracker/internal/sessions/ordering"
	"run-tracker/internal/shared/config"
	"run-tracker/internal/shared/utils"
)

// ExportCSV exports the filtered, sorted unified list as CSV with a UTF-8 BOM
// for Excel compatibility. Planned sessions report their targets in the
// realized columns: duration as H:MM:SS, distance in meters.
func (s *SessionService) ExportCSV(ctx context.Context, userID string, filter models.ListFilter) ([]byte, error) {
	filter, err := normalizeFilter(filter, s.loc)
	if err != nil {
		return nil, err
	}

	refs, err := s.planner.Plan(ctx, userID, &filter, ordering.Parse(filter.Sort), config.MaxExportLimit, 0)
	if err != nil {
		return nil, err
	}
	sessions, err := s.hydrator.Hydrate(ctx, userID, refs)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(&buf)
	if err := writer.Write(config.CSVColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range sessions {
		if err := writer.Write(csvRow(&sessions[i])); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func csvRow(s *models.UnifiedSession) []string {
	var (
		date     = s.Date
		duration = s.DurationSec
		distance = s.DistanceM
		pace     = s.AvgPace
		hr       = int64String(s.AvgHeartRate)
		rpe      = s.PerceivedExertion
	)
	if s.Kind == models.KindPlanned {
		date, pace, rpe = s.PlannedDate, s.TargetPace, s.TargetRPE
		hr = utils.PtrToString(s.TargetHR)
		if s.TargetDurationMin != nil {
			sec := *s.TargetDurationMin * 60
			duration = &sec
		}
		if s.TargetDistanceKm != nil {
			m := *s.TargetDistanceKm * 1000
			distance = &m
		}
	}

	return []string{
		int64String(s.SessionNumber),
		int64String(s.Week),
		string(s.Status),
		utils.PtrToString(date),
		s.SessionType,
		utils.FormatDuration(duration),
		float64String(distance),
		utils.PtrToString(pace),
		hr,
		int64String(rpe),
		utils.PtrToString(s.Comments),
	}
}

func int64String(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func float64String(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
