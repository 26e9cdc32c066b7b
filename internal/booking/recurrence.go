package booking

import (
	"fmt"
	"time"

	"github.com/desk-reserve/backend/internal/storage/models"
)

// Date and time layouts used on the wire and in storage.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Recurrence describes how a booking request repeats.
type Recurrence struct {
	Type        models.RecurrenceType `json:"type"`
	EndDate     string                `json:"endDate,omitempty"`
	CustomDates []string              `json:"customDates,omitempty"`
}

// kind returns the recurrence type, treating a missing recurrence as NONE.
func (r *Recurrence) kind() models.RecurrenceType {
	if r == nil || r.Type == "" {
		return models.RecurrenceNone
	}
	return r.Type
}

// ExpandDates returns the occurrence dates of a request starting on start.
//
//	NONE    start only
//	DAILY   start..endDate inclusive, every day
//	WEEKLY  start..endDate inclusive, every 7 days
//	CUSTOM  exactly the supplied dates, in the given order
func ExpandDates(start string, rec *Recurrence) ([]string, error) {
	startDate, err := ParseDate(start)
	if err != nil {
		return nil, validationErrorf("invalid date %q", start)
	}

	switch kind := rec.kind(); kind {
	case models.RecurrenceNone:
		return []string{startDate.Format(DateLayout)}, nil

	case models.RecurrenceDaily, models.RecurrenceWeekly:
		if rec.EndDate == "" {
			return nil, validationErrorf("endDate is required for recurrence type %s", kind)
		}
		endDate, err := ParseDate(rec.EndDate)
		if err != nil {
			return nil, validationErrorf("invalid endDate %q", rec.EndDate)
		}
		if endDate.Before(startDate) {
			return nil, validationErrorf("endDate must not be before start date")
		}

		step := 1
		if kind == models.RecurrenceWeekly {
			step = 7
		}

		var dates []string
		for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, step) {
			dates = append(dates, d.Format(DateLayout))
		}
		return dates, nil

	case models.RecurrenceCustom:
		if len(rec.CustomDates) == 0 {
			return nil, validationErrorf("customDates are required for recurrence type %s", kind)
		}
		dates := make([]string, 0, len(rec.CustomDates))
		for _, s := range rec.CustomDates {
			d, err := ParseDate(s)
			if err != nil {
				return nil, validationErrorf("invalid custom date %q", s)
			}
			dates = append(dates, d.Format(DateLayout))
		}
		return dates, nil

	default:
		return nil, validationErrorf("unknown recurrence type %q", kind)
	}
}

// ParseDate parses a yyyy-MM-dd calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ParseTime parses an HH:mm (or HH:mm:ss) wall clock time. Hours and
// minutes must have two digits.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if len(s) != len(layout) {
			continue
		}
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, err
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("time %q is not in HH:mm form", s)
}
