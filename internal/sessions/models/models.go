// Package models defines data structures and validation for training sessions.
package models

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"run-tracker/internal/shared/validation"
)

// Field length and range constraints
const (
	SessionTypeMaxLen = 50
	CommentsMaxLen    = 1000
	TargetHRMaxLen    = 40
	RPEMin            = 1
	RPEMax            = 10
	HeartRateMax      = 250
)

// Validation errors
var (
	ErrSessionTypeRequired = errors.New("session_type is required")
	ErrSessionTypeTooLong  = errors.New("session_type must be at most 50 characters")
	ErrCommentsTooLong     = errors.New("comments must be at most 1000 characters")
	ErrTargetHRTooLong     = errors.New("target_hr must be at most 40 characters")
	ErrDateRequired        = errors.New("date is required")
	ErrInvalidDate         = errors.New("date must be RFC3339 or YYYY-MM-DD")
	ErrInvalidPace         = errors.New("pace must be formatted as m:ss")
	ErrInvalidRPE          = errors.New("rpe must be between 1 and 10")
	ErrInvalidHeartRate    = errors.New("heart rate must be between 1 and 250")
	ErrNegativeValue       = errors.New("duration and distance must not be negative")
)

// TimestampLayout is the storage format for session dates. Every stored date
// uses it so that text comparison in the store equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05Z"

// CreatedAtLayout keeps a fixed nanosecond width for the same reason.
const CreatedAtLayout = "2006-01-02T15:04:05.000000000Z"

var paceRe = regexp.MustCompile(`^\d{1,2}:[0-5]\d$`)

// Kind tags which underlying collection a session comes from.
type Kind string

const (
	KindRealized Kind = "realized"
	KindPlanned  Kind = "planned"
)

// ParseKind converts a path segment into a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindRealized, KindPlanned:
		return Kind(s), true
	}
	return "", false
}

// SessionStatus represents the status of a unified session.
type SessionStatus string

const (
	StatusCompleted SessionStatus = "completed"
	StatusPlanned   SessionStatus = "planned"
)

// Stored field names, shared by the SQL layer and UnifiedSession.Field.
const (
	FieldSessionNumber     = "session_number"
	FieldWeek              = "week"
	FieldStatus            = "status"
	FieldDate              = "date"
	FieldPlannedDate       = "planned_date"
	FieldSessionType       = "session_type"
	FieldDurationSec       = "duration_sec"
	FieldDistanceM         = "distance_m"
	FieldAvgPace           = "avg_pace"
	FieldAvgHeartRate      = "avg_heart_rate"
	FieldPerceivedExertion = "perceived_exertion"
	FieldTargetDurationMin = "target_duration_min"
	FieldTargetDistanceKm  = "target_distance_km"
	FieldTargetPace        = "target_pace"
	FieldTargetHR          = "target_hr"
	FieldTargetRPE         = "target_rpe"
	FieldComments          = "comments"
)

// SessionRef is the lightweight (id, kind) pair produced by the query planner.
type SessionRef struct {
	ID   int64 `json:"id"`
	Kind Kind  `json:"kind"`
}

// UnifiedSession is the single shape exposed for both realized and planned sessions.
// Fields belonging to the other kind are always nil.
type UnifiedSession struct {
	ID            int64         `json:"id"`
	Kind          Kind          `json:"kind"`
	Status        SessionStatus `json:"status"`
	SessionNumber *int64        `json:"session_number,omitempty"`
	Week          *int64        `json:"week,omitempty"`
	Date          *string       `json:"date,omitempty"`
	PlannedDate   *string       `json:"planned_date,omitempty"`
	SessionType   string        `json:"session_type"`
	Comments      *string       `json:"comments,omitempty"`
	CreatedAt     string        `json:"created_at"`

	// Realized only
	DurationSec       *int64   `json:"duration_sec,omitempty"`
	DistanceM         *float64 `json:"distance_m,omitempty"`
	AvgPace           *string  `json:"avg_pace,omitempty"`
	AvgHeartRate      *int64   `json:"avg_heart_rate,omitempty"`
	PerceivedExertion *int64   `json:"perceived_exertion,omitempty"`
	PlannedSessionID  *int64   `json:"planned_session_id,omitempty"`

	// Planned only
	TargetDurationMin *int64   `json:"target_duration_min,omitempty"`
	TargetDistanceKm  *float64 `json:"target_distance_km,omitempty"`
	TargetPace        *string  `json:"target_pace,omitempty"`
	TargetHR          *string  `json:"target_hr,omitempty"`
	TargetRPE         *int64   `json:"target_rpe,omitempty"`
}

// Ref returns the (id, kind) pair identifying s.
func (s *UnifiedSession) Ref() SessionRef {
	return SessionRef{ID: s.ID, Kind: s.Kind}
}

// Field returns the raw stored value of a field, or nil when absent.
// Numbers are returned as int64 or float64, text as string.
func (s *UnifiedSession) Field(name string) any {
	switch name {
	case FieldSessionNumber:
		return int64Value(s.SessionNumber)
	case FieldWeek:
		return int64Value(s.Week)
	case FieldStatus:
		return string(s.Status)
	case FieldDate:
		return stringValue(s.Date)
	case FieldPlannedDate:
		return stringValue(s.PlannedDate)
	case FieldSessionType:
		return s.SessionType
	case FieldDurationSec:
		return int64Value(s.DurationSec)
	case FieldDistanceM:
		return float64Value(s.DistanceM)
	case FieldAvgPace:
		return stringValue(s.AvgPace)
	case FieldAvgHeartRate:
		return int64Value(s.AvgHeartRate)
	case FieldPerceivedExertion:
		return int64Value(s.PerceivedExertion)
	case FieldTargetDurationMin:
		return int64Value(s.TargetDurationMin)
	case FieldTargetDistanceKm:
		return float64Value(s.TargetDistanceKm)
	case FieldTargetPace:
		return stringValue(s.TargetPace)
	case FieldTargetHR:
		return stringValue(s.TargetHR)
	case FieldTargetRPE:
		return int64Value(s.TargetRPE)
	case FieldComments:
		return stringValue(s.Comments)
	}
	return nil
}

func int64Value(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func float64Value(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// ListFilter holds the listing filters and paging options.
// Limit 0 means the full filtered set.
type ListFilter struct {
	Type     string
	Search   string
	DateFrom *string
	Sort     string
	Limit    int
	Offset   int
}

// WorkoutCreate represents the input for recording a realized session.
type WorkoutCreate struct {
	Date              string   `json:"date"`
	SessionType       string   `json:"session_type"`
	DurationSec       *int64   `json:"duration_sec,omitempty"`
	DistanceM         *float64 `json:"distance_m,omitempty"`
	AvgPace           *string  `json:"avg_pace,omitempty"`
	AvgHeartRate      *int64   `json:"avg_heart_rate,omitempty"`
	PerceivedExertion *int64   `json:"perceived_exertion,omitempty"`
	Comments          *string  `json:"comments,omitempty"`
	PlannedSessionID  *int64   `json:"-"`
}

// Validate checks the WorkoutCreate fields and normalizes date and text inputs.
// Bare dates are read as midnight in loc.
func (w *WorkoutCreate) Validate(loc *time.Location) error {
	w.SessionType = validation.SanitizeString(w.SessionType)
	w.Comments = validation.SanitizeStringPtr(w.Comments)
	w.AvgPace = validation.SanitizeStringPtr(w.AvgPace)

	if err := validateSessionType(w.SessionType); err != nil {
		return err
	}
	date := validation.SanitizeString(w.Date)
	if date == "" {
		return ErrDateRequired
	}
	normalized, err := NormalizeDate(date, loc)
	if err != nil {
		return err
	}
	w.Date = normalized

	return validateActuals(w.DurationSec, w.DistanceM, w.AvgPace, w.AvgHeartRate, w.PerceivedExertion, w.Comments)
}

// WorkoutUpdate represents a partial update of a realized session.
type WorkoutUpdate struct {
	Date              *string  `json:"date,omitempty"`
	SessionType       *string  `json:"session_type,omitempty"`
	DurationSec       *int64   `json:"duration_sec,omitempty"`
	DistanceM         *float64 `json:"distance_m,omitempty"`
	AvgPace           *string  `json:"avg_pace,omitempty"`
	AvgHeartRate      *int64   `json:"avg_heart_rate,omitempty"`
	PerceivedExertion *int64   `json:"perceived_exertion,omitempty"`
	Comments          *string  `json:"comments,omitempty"`
}

// Validate checks the WorkoutUpdate fields. A realized session keeps its date,
// so an empty date is rejected rather than cleared.
func (w *WorkoutUpdate) Validate(loc *time.Location) error {
	w.SessionType = validation.SanitizeStringPtr(w.SessionType)
	w.Comments = validation.SanitizeStringPtr(w.Comments)
	w.AvgPace = validation.SanitizeStringPtr(w.AvgPace)

	if w.SessionType != nil {
		if err := validateSessionType(*w.SessionType); err != nil {
			return err
		}
	}
	if w.Date != nil {
		date := validation.SanitizeString(*w.Date)
		if date == "" {
			return ErrDateRequired
		}
		normalized, err := NormalizeDate(date, loc)
		if err != nil {
			return err
		}
		w.Date = &normalized
	}

	return validateActuals(w.DurationSec, w.DistanceM, w.AvgPace, w.AvgHeartRate, w.PerceivedExertion, w.Comments)
}

// TouchesOrdering reports whether the update can change the dated-session order.
func (w *WorkoutUpdate) TouchesOrdering() bool {
	return w.Date != nil
}

// PlannedCreate represents the input for planning a session.
type PlannedCreate struct {
	PlannedDate       *string  `json:"planned_date,omitempty"`
	SessionType       string   `json:"session_type"`
	TargetDurationMin *int64   `json:"target_duration_min,omitempty"`
	TargetDistanceKm  *float64 `json:"target_distance_km,omitempty"`
	TargetPace        *string  `json:"target_pace,omitempty"`
	TargetHR          *string  `json:"target_hr,omitempty"`
	TargetRPE         *int64   `json:"target_rpe,omitempty"`
	Comments          *string  `json:"comments,omitempty"`
}

// Validate checks the PlannedCreate fields. The planned date is optional.
func (p *PlannedCreate) Validate(loc *time.Location) error {
	p.SessionType = validation.SanitizeString(p.SessionType)
	p.Comments = validation.SanitizeStringPtr(p.Comments)
	p.TargetPace = validation.SanitizeStringPtr(p.TargetPace)
	p.TargetHR = validation.SanitizeStringPtr(p.TargetHR)
	p.PlannedDate = validation.SanitizeStringPtr(p.PlannedDate)

	if err := validateSessionType(p.SessionType); err != nil {
		return err
	}
	if p.PlannedDate != nil {
		normalized, err := NormalizeDate(*p.PlannedDate, loc)
		if err != nil {
			return err
		}
		p.PlannedDate = &normalized
	}
	return validateTargets(p.TargetDurationMin, p.TargetDistanceKm, p.TargetPace, p.TargetHR, p.TargetRPE, p.Comments)
}

// PlannedUpdate represents a partial update of a planned session.
// An empty planned_date clears the date.
type PlannedUpdate struct {
	PlannedDate       *string  `json:"planned_date,omitempty"`
	SessionType       *string  `json:"session_type,omitempty"`
	TargetDurationMin *int64   `json:"target_duration_min,omitempty"`
	TargetDistanceKm  *float64 `json:"target_distance_km,omitempty"`
	TargetPace        *string  `json:"target_pace,omitempty"`
	TargetHR          *string  `json:"target_hr,omitempty"`
	TargetRPE         *int64   `json:"target_rpe,omitempty"`
	Comments          *string  `json:"comments,omitempty"`
}

// Validate checks the PlannedUpdate fields.
func (p *PlannedUpdate) Validate(loc *time.Location) error {
	p.SessionType = validation.SanitizeStringPtr(p.SessionType)
	p.Comments = validation.SanitizeStringPtr(p.Comments)
	p.TargetPace = validation.SanitizeStringPtr(p.TargetPace)
	p.TargetHR = validation.SanitizeStringPtr(p.TargetHR)

	if p.SessionType != nil {
		if err := validateSessionType(*p.SessionType); err != nil {
			return err
		}
	}
	if p.PlannedDate != nil {
		date := validation.SanitizeString(*p.PlannedDate)
		if date != "" {
			normalized, err := NormalizeDate(date, loc)
			if err != nil {
				return err
			}
			date = normalized
		}
		p.PlannedDate = &date
	}
	return validateTargets(p.TargetDurationMin, p.TargetDistanceKm, p.TargetPace, p.TargetHR, p.TargetRPE, p.Comments)
}

// TouchesOrdering reports whether the update can change the dated-session order.
func (p *PlannedUpdate) TouchesOrdering() bool {
	return p.PlannedDate != nil
}

// PlannedComplete carries the actual metrics recorded when a planned session is done.
// Date defaults to the planned date, or to now when the plan had none.
type PlannedComplete struct {
	Date              *string  `json:"date,omitempty"`
	DurationSec       *int64   `json:"duration_sec,omitempty"`
	DistanceM         *float64 `json:"distance_m,omitempty"`
	AvgPace           *string  `json:"avg_pace,omitempty"`
	AvgHeartRate      *int64   `json:"avg_heart_rate,omitempty"`
	PerceivedExertion *int64   `json:"perceived_exertion,omitempty"`
	Comments          *string  `json:"comments,omitempty"`
}

// ToWorkout builds the realized record for plan, falling back to fallbackDate.
func (c *PlannedComplete) ToWorkout(plan *UnifiedSession, fallbackDate string) *WorkoutCreate {
	date := fallbackDate
	if plan.PlannedDate != nil {
		date = *plan.PlannedDate
	}
	if c.Date != nil && strings.TrimSpace(*c.Date) != "" {
		date = *c.Date
	}
	comments := c.Comments
	if comments == nil {
		comments = plan.Comments
	}
	id := plan.ID
	return &WorkoutCreate{
		Date:              date,
		SessionType:       plan.SessionType,
		DurationSec:       c.DurationSec,
		DistanceM:         c.DistanceM,
		AvgPace:           c.AvgPace,
		AvgHeartRate:      c.AvgHeartRate,
		PerceivedExertion: c.PerceivedExertion,
		Comments:          comments,
		PlannedSessionID:  &id,
	}
}

// PaginatedResponse wraps a list of items with pagination metadata.
type PaginatedResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	NextOffset *int  `json:"next_offset,omitempty"`
}

// NormalizeDate parses an RFC3339 timestamp or a bare YYYY-MM-DD date and
// formats it in TimestampLayout (UTC). A bare date means midnight in loc;
// nil loc is UTC.
func NormalizeDate(s string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FormatTimestamp(t), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return FormatTimestamp(t), nil
	}
	return "", ErrInvalidDate
}

// FormatTimestamp formats t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatCreatedAt formats t in CreatedAtLayout.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

// PaceSeconds converts an m:ss pace into seconds per km.
func PaceSeconds(pace string) (int64, bool) {
	i := strings.IndexByte(pace, ':')
	if i < 0 {
		return 0, false
	}
	minutes, err := strconv.ParseInt(pace[:i], 10, 64)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseInt(pace[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return minutes*60 + seconds, true
}

// FormatPace renders seconds per km as m:ss.
func FormatPace(seconds int64) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func validateSessionType(t string) error {
	if t == "" {
		return ErrSessionTypeRequired
	}
	if len(t) > SessionTypeMaxLen {
		return ErrSessionTypeTooLong
	}
	return nil
}

func validatePace(p *string) error {
	if p != nil && !paceRe.MatchString(*p) {
		return fmt.Errorf("%w: %q", ErrInvalidPace, *p)
	}
	return nil
}

func validateRPE(v *int64) error {
	if v != nil && (*v < RPEMin || *v > RPEMax) {
		return ErrInvalidRPE
	}
	return nil
}

func validateComments(c *string) error {
	if c != nil && len(*c) > CommentsMaxLen {
		return ErrCommentsTooLong
	}
	return nil
}

func validateActuals(duration *int64, distance *float64, pace *string, hr *int64, rpe *int64, comments *string) error {
	if (duration != nil && *duration < 0) || (distance != nil && *distance < 0) {
		return ErrNegativeValue
	}
	if err := validatePace(pace); err != nil {
		return err
	}
	if hr != nil && (*hr < 1 || *hr > HeartRateMax) {
		return ErrInvalidHeartRate
	}
	if err := validateRPE(rpe); err != nil {
		return err
	}
	return validateComments(comments)
}

func validateTargets(duration *int64, distance *float64, pace *string, hr *string, rpe *int64, comments *string) error {
	if (duration != nil && *duration < 0) || (distance != nil && *distance < 0) {
		return ErrNegativeValue
	}
	if err := validatePace(pace); err != nil {
		return err
	}
	if hr != nil && len(*hr) > TargetHRMaxLen {
		return ErrTargetHRTooLong
	}
	if err := validateRPE(rpe); err != nil {
		return err
	}
	return validateComments(comments)
}
