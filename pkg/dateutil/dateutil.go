package dateutil

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar date format used in files, flags and JSON
const DateLayout = "2006-01-02"

// Date returns midnight UTC of the given calendar date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns the calendar date of t as midnight UTC.
// The wall-clock date in t's own location is kept.
func StartOfDay(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// StartOfYear returns January 1st of the year
func StartOfYear(year int) time.Time {
	return Date(year, time.January, 1)
}

// EndOfYear returns December 31st of the year
func EndOfYear(year int) time.Time {
	return Date(year, time.December, 31)
}

// AddDays shifts a calendar date by n days
func AddDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b (negative if b is before a)
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// IsWeekday returns true if the date is Monday-Friday
func IsWeekday(date time.Time) bool {
	weekday := date.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// Before reports whether a is on an earlier calendar day than b
func Before(a, b time.Time) bool {
	return StartOfDay(a).Before(StartOfDay(b))
}

// MaxDate returns the later of two calendar dates
func MaxDate(a, b time.Time) time.Time {
	if Before(a, b) {
		return StartOfDay(b)
	}
	return StartOfDay(a)
}

// Format formats a date as YYYY-MM-DD
func Format(date time.Time) string {
	return date.Format(DateLayout)
}

// ParseDate parses date string in various formats and returns the calendar date
func ParseDate(dateStr string) (time.Time, error) {
	formats := []string{
		DateLayout,
		"02.01.2006",
		"02/01/2006",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return StartOfDay(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q (expected YYYY-MM-DD)", dateStr)
}

// Today returns today's date (start of day)
func Today() time.Time {
	return StartOfDay(time.Now())
}
