package main

import (
	"errors"
	"fmt"
	"time"
)

// granularity selects the calendar unit a window covers.
type granularity string

const (
	granularityDay    granularity = "day"
	granularityWeek   granularity = "week"
	granularityMonth  granularity = "month"
	granularityCustom granularity = "custom"
)

var errUnknownGranularity = errors.New("granularity must be one of: day, week, month")

// parseGranularity validates a query-string granularity. Custom windows are
// built with customWindow instead.
func parseGranularity(s string) (granularity, error) {
	switch g := granularity(s); g {
	case granularityDay, granularityWeek, granularityMonth:
		return g, nil
	}
	return "", errUnknownGranularity
}

// periodWindow is a half-open [Start, End) interval. End is always after Start.
type periodWindow struct {
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Granularity granularity `json:"granularity"`
}

// multiDay reports whether the window gets per-day buckets. Week and month
// windows always do; a custom window only when it spans more than one day.
func (w periodWindow) multiDay() bool {
	switch w.Granularity {
	case granularityDay:
		return false
	case granularityCustom:
		return w.days() > 1
	}
	return true
}

// days returns the number of calendar days the window touches.
func (w periodWindow) days() int {
	n := 0
	for d := startOfDay(w.Start); d.Before(w.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// invalidRangeError rejects a window whose end is not after its start.
type invalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *invalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s must be after start %s",
		e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// resolveWindow returns the day, week, or month containing reference, using
// reference's location as the calendar. All arithmetic goes through AddDate so
// DST transitions keep midnight boundaries.
func resolveWindow(reference time.Time, g granularity) (periodWindow, error) {
	day := startOfDay(reference)
	switch g {
	case granularityDay:
		return periodWindow{Start: day, End: day.AddDate(0, 0, 1), Granularity: g}, nil
	case granularityWeek:
		start := isoWeekStart(reference)
		return periodWindow{Start: start, End: start.AddDate(0, 0, 7), Granularity: g}, nil
	case granularityMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return periodWindow{Start: start, End: start.AddDate(0, 1, 0), Granularity: g}, nil
	}
	return periodWindow{}, errUnknownGranularity
}

// customWindow builds an ad-hoc report window from caller-supplied bounds.
func customWindow(start, end time.Time) (periodWindow, error) {
	if !end.After(start) {
		return periodWindow{}, &invalidRangeError{Start: start, End: end}
	}
	return periodWindow{Start: start, End: end, Granularity: granularityCustom}, nil
}

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// isoWeekStart returns the Monday that opens t's ISO week. It works from the
// ISO week-of-year number rather than weekday distance: week 1 is the week
// holding January 4th, so its Monday is found first and the week offset added.
func isoWeekStart(t time.Time) time.Time {
	year, week := t.ISOWeek()
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, t.Location())
	sinceMonday := (int(jan4.Weekday()) + 6) % 7 // Mon=0 .. Sun=6
	week1 := jan4.AddDate(0, 0, -sinceMonday)
	return week1.AddDate(0, 0, (week-1)*7)
}
