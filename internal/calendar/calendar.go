package calendar

import (
	"fmt"
	"time"

	"github.com/username/leave-planner/pkg/dateutil"
)

// DayType represents the type of day
type DayType int

const (
	DayTypeWorkday DayType = iota + 1
	DayTypeWeekend
	DayTypeHoliday
)

func (t DayType) String() string {
	switch t {
	case DayTypeWorkday:
		return "workday"
	case DayTypeWeekend:
		return "weekend"
	case DayTypeHoliday:
		return "holiday"
	default:
		return fmt.Sprintf("DayType(%d)", int(t))
	}
}

// DayInfo represents one calendar day and what taking it off costs.
// Cost is 0 for weekends and holidays and 1 for workdays.
type DayInfo struct {
	Date        time.Time
	Cost        int
	IsHoliday   bool
	IsWeekend   bool
	HolidayName string
}

// Type classifies the day. A holiday on a weekend is reported as a holiday.
func (d DayInfo) Type() DayType {
	switch {
	case d.IsHoliday:
		return DayTypeHoliday
	case d.IsWeekend:
		return DayTypeWeekend
	default:
		return DayTypeWorkday
	}
}

// IsWorkday reports whether taking the day off consumes a leave day
func (d DayInfo) IsWorkday() bool {
	return d.Cost == 1
}

// MonthSummary represents calendar statistics for a month
type MonthSummary struct {
	Year     int
	Month    time.Month
	WorkDays int
	Weekends int
	Holidays int
	Days     []DayInfo
}

// DateRange is an inclusive range of calendar dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range of calendar dates, failing with ErrInvalidRange
// when end is before start
func NewDateRange(start, end time.Time) (DateRange, error) {
	start, end = dateutil.StartOfDay(start), dateutil.StartOfDay(end)
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange, dateutil.Format(end), dateutil.Format(start))
	}
	return DateRange{Start: start, End: end}, nil
}

// CheckSpan returns ErrInvalidRange when r is longer than MaxRangeDays
func CheckSpan(r DateRange) error {
	if days := r.Days(); days > MaxRangeDays {
		return fmt.Errorf("%w: %s spans %d days (at most %d)", ErrInvalidRange, r, days, MaxRangeDays)
	}
	return nil
}

// YearRange covers January 1 to December 31
func YearRange(year int) DateRange {
	return DateRange{Start: dateutil.StartOfYear(year), End: dateutil.EndOfYear(year)}
}

// Overlaps reports whether the two inclusive ranges share at least one day
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Contains reports whether date falls within the range
func (r DateRange) Contains(date time.Time) bool {
	d := dateutil.StartOfDay(date)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of days in the range, counting both ends
func (r DateRange) Days() int {
	return dateutil.DaysBetween(r.Start, r.End) + 1
}

// Equal reports whether both ranges cover the same days
func (r DateRange) Equal(other DateRange) bool {
	return dateutil.IsSameDay(r.Start, other.Start) && dateutil.IsSameDay(r.End, other.End)
}

func (r DateRange) String() string {
	return dateutil.Format(r.Start) + " .. " + dateutil.Format(r.End)
}

// GenerateCalendar returns one DayInfo per day of the range, in order.
// HolidayName is the localized name of the first holiday on that date.
func GenerateCalendar(r DateRange, holidays []Holiday) ([]DayInfo, error) {
	if r.End.Before(r.Start) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}

	byDate := HolidaysByDate(holidays)
	days := make([]DayInfo, 0, r.Days())

	for date := dateutil.StartOfDay(r.Start); !date.After(r.End); date = dateutil.AddDays(date, 1) {
		day := DayInfo{
			Date:      date,
			IsWeekend: dateutil.IsWeekend(date),
		}
		if h, ok := byDate[date]; ok {
			day.IsHoliday = true
			day.HolidayName = h.LocalizedName
		}
		if !day.IsWeekend && !day.IsHoliday {
			day.Cost = 1
		}
		days = append(days, day)
	}

	return days, nil
}

// SummarizeMonths groups a day sequence into per-month statistics
func SummarizeMonths(days []DayInfo) []MonthSummary {
	var months []MonthSummary
	var current *MonthSummary

	for _, day := range days {
		if current == nil || current.Year != day.Date.Year() || current.Month != day.Date.Month() {
			months = append(months, MonthSummary{
				Year:  day.Date.Year(),
				Month: day.Date.Month(),
			})
			current = &months[len(months)-1]
		}

		current.Days = append(current.Days, day)
		switch day.Type() {
		case DayTypeWorkday:
			current.WorkDays++
		case DayTypeWeekend:
			current.Weekends++
		case DayTypeHoliday:
			current.Holidays++
		}
	}

	return months
}
