package domain

import (
	"fmt"
	"time"
)

// DateOf formats t as a calendar date in t's own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a calendar date in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidValue, date)
	}
	return t, nil
}

// AddDays shifts a calendar date by n days. Malformed input is returned unchanged.
func AddDays(date string, n int) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// Weekday returns the day of week of a calendar date.
func Weekday(date string) (time.Weekday, bool) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, false
	}
	return t.Weekday(), true
}
