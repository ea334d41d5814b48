package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from a start time and a duration.
func NewWindow(start time.Time, duration time.Duration) Window {
	return Window{Start: start, End: start.Add(duration)}
}

// Expand returns the window grown by buf on both sides.
func (w Window) Expand(buf time.Duration) Window {
	return Window{Start: w.Start.Add(-buf), End: w.End.Add(buf)}
}

// Overlaps reports whether two half-open intervals intersect.
// [a0,a1) and [b0,b1) overlap iff a0 < b1 && b0 < a1.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// ParseClock parses a wall-clock string like "18:30" into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q; expected HH:MM", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}

	return hour, minute, nil
}

// ClockOnDate places a wall-clock string like "18:30" on the given date,
// keeping the date's location.
func ClockOnDate(date time.Time, clock string) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// MinutesOfDay converts a wall-clock string to minutes since midnight.
func MinutesOfDay(clock string) (int, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return 0, err
	}
	return hour*60 + minute, nil
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
