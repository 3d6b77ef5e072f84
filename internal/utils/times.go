package utils

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day, e.g. the routine's target end.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the clock time on the given day, in the day's location.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the Monday of t's ISO week.
func WeekStart(t time.Time) time.Time {
	d := StartOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// FirstDayOfISOWeek returns the Monday of the given ISO year and week.
func FirstDayOfISOWeek(year, week int, loc *time.Location) time.Time {
	date := time.Date(year, 1, 1, 0, 0, 0, 0, loc)
	isoYear, isoWeek := date.ISOWeek()

	for date.Weekday() != time.Monday {
		date = date.AddDate(0, 0, -1)
		isoYear, isoWeek = date.ISOWeek()
	}

	for isoYear < year {
		date = date.AddDate(0, 0, 7)
		isoYear, isoWeek = date.ISOWeek()
	}

	for isoWeek < week {
		date = date.AddDate(0, 0, 7)
		_, isoWeek = date.ISOWeek()
	}

	return date
}

// ParseDay parses "YYYY-MM-DD" as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// ParseMoment accepts an RFC3339 timestamp or an "HH:MM" time on day.
func ParseMoment(s string, day time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(day.Location()), nil
	}
	c, err := ParseClock(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected RFC3339 or HH:MM", s)
	}
	return c.On(day), nil
}

// MinutesOfDay is the number of minutes since midnight in t's location.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatMinutesOfDay renders minutes since midnight as "HH:MM".
func FormatMinutesOfDay(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// FormatDuration renders minutes as "1h 5m" or "12m".
func FormatDuration(minutes int) string {
	if h := minutes / 60; h > 0 {
		return fmt.Sprintf("%dh %dm", h, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// MinutesBetween is the whole minutes from a to b, truncated toward zero.
func MinutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}
