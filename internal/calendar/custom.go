package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/username/leave-planner/pkg/dateutil"
)

// CustomHolidayKind selects how a custom holiday is placed in a year
type CustomHolidayKind string

const (
	// KindOneTime is a single exact date, present only in its own year
	KindOneTime CustomHolidayKind = "one-time"
	// KindRecurring repeats on the same month/day every year
	KindRecurring CustomHolidayKind = "recurring"
	// KindMovable is a fixed offset from Orthodox Easter
	KindMovable CustomHolidayKind = "movable"
	// KindConditional is a month/day that moves to Bright Monday when it
	// falls on or before Easter (e.g. Saint George, April 23)
	KindConditional CustomHolidayKind = "conditional"
)

// CustomHolidaySpec is the stored form of a user-defined holiday.
//
// Date is "YYYY-MM-DD" for one-time holidays and "MM-DD" (or a full date whose
// year is ignored) for recurring and conditional ones. Offset is the signed
// number of days from Easter for movable holidays.
type CustomHolidaySpec struct {
	Name          string            `json:"name" mapstructure:"name"`
	LocalizedName string            `json:"localized_name,omitempty" mapstructure:"localized_name"`
	Kind          CustomHolidayKind `json:"kind" mapstructure:"kind"`
	Date          string            `json:"date,omitempty" mapstructure:"date"`
	Offset        string            `json:"offset,omitempty" mapstructure:"offset"`
}

// CustomHoliday is a parsed custom holiday. It is one of OneTimeHoliday,
// RecurringHoliday, MovableHoliday or ConditionalHoliday.
type CustomHoliday interface {
	holidayNames() Names
}

// Names carries the display names shared by every custom holiday variant
type Names struct {
	Name          string
	LocalizedName string
}

func (n Names) holidayNames() Names { return n }

// OneTimeHoliday happens once, on Date
type OneTimeHoliday struct {
	Names
	Date time.Time
}

// RecurringHoliday happens every year on Month/Day
type RecurringHoliday struct {
	Names
	Month time.Month
	Day   int
}

// MovableHoliday happens every year Offset days after Easter Sunday
type MovableHoliday struct {
	Names
	Offset int
}

// ConditionalHoliday happens on Month/Day unless that date is on or before
// Easter Sunday, in which case it moves to Bright Monday
type ConditionalHoliday struct {
	Names
	Month time.Month
	Day   int
}

// ParseCustomHoliday validates a spec and converts it to its variant
func ParseCustomHoliday(spec CustomHolidaySpec) (CustomHoliday, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, &ParseError{Field: "name", Value: spec.Name, Err: errors.New("name is required")}
	}
	names := Names{Name: name, LocalizedName: strings.TrimSpace(spec.LocalizedName)}
	if names.LocalizedName == "" {
		names.LocalizedName = name
	}

	switch spec.Kind {
	case KindOneTime:
		date, err := time.Parse(dateutil.DateLayout, strings.TrimSpace(spec.Date))
		if err != nil {
			return nil, &ParseError{Field: "date", Value: spec.Date, Err: err}
		}
		return OneTimeHoliday{Names: names, Date: date}, nil

	case KindRecurring:
		month, day, err := parseMonthDay(spec.Date)
		if err != nil {
			return nil, err
		}
		return RecurringHoliday{Names: names, Month: month, Day: day}, nil

	case KindMovable:
		offset, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(spec.Offset), "+"))
		if err != nil {
			return nil, &ParseError{Field: "offset", Value: spec.Offset, Err: err}
		}
		return MovableHoliday{Names: names, Offset: offset}, nil

	case KindConditional:
		month, day, err := parseMonthDay(spec.Date)
		if err != nil {
			return nil, err
		}
		return ConditionalHoliday{Names: names, Month: month, Day: day}, nil

	default:
		return nil, &ParseError{
			Field: "kind",
			Value: string(spec.Kind),
			Err:   fmt.Errorf("expected one of %s, %s, %s, %s", KindOneTime, KindRecurring, KindMovable, KindConditional),
		}
	}
}

// ParseCustomHolidays parses every spec, failing on the first malformed one
func ParseCustomHolidays(specs []CustomHolidaySpec) ([]CustomHoliday, error) {
	parsed := make([]CustomHoliday, 0, len(specs))
	for i, spec := range specs {
		h, err := ParseCustomHoliday(spec)
		if err != nil {
			return nil, fmt.Errorf("custom holiday #%d: %w", i+1, err)
		}
		parsed = append(parsed, h)
	}
	return parsed, nil
}

// parseMonthDay accepts "MM-DD" or "YYYY-MM-DD"
func parseMonthDay(value string) (time.Month, int, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) == 3 {
		parts = parts[1:]
	}
	if len(parts) != 2 {
		return 0, 0, &ParseError{Field: "date", Value: value, Err: errors.New("expected MM-DD or YYYY-MM-DD")}
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, &ParseError{Field: "date", Value: value, Err: err}
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, &ParseError{Field: "date", Value: value, Err: err}
	}

	// 2000 is a leap year, so February 29 is accepted here
	if month < 1 || month > 12 || day < 1 || day > daysIn(2000, time.Month(month)) {
		return 0, 0, &ParseError{Field: "date", Value: value, Err: errors.New("month/day out of range")}
	}

	return time.Month(month), day, nil
}

// ResolveCustomHoliday returns the date a custom holiday is observed in year.
// ok is false when the holiday does not occur that year.
func ResolveCustomHoliday(h CustomHoliday, year int) (date time.Time, ok bool) {
	return resolveCustom(h, year, OrthodoxEaster(year))
}

func resolveCustom(h CustomHoliday, year int, easter time.Time) (date time.Time, ok bool) {
	switch v := h.(type) {
	case OneTimeHoliday:
		return v.Date, v.Date.Year() == year

	case RecurringHoliday:
		return dateIn(year, v.Month, v.Day)

	case MovableHoliday:
		date = dateutil.AddDays(easter, v.Offset)
		return date, date.Year() == year

	case ConditionalHoliday:
		fixed, ok := dateIn(year, v.Month, v.Day)
		if !ok {
			return time.Time{}, false
		}
		if !fixed.After(easter) {
			return BrightMonday(year), true
		}
		return fixed, true

	default:
		panic(fmt.Sprintf("calendar: unknown custom holiday variant %T", h))
	}
}

// dateIn returns month/day in year, or false if it doesn't exist (Feb 29)
func dateIn(year int, month time.Month, day int) (time.Time, bool) {
	if day > daysIn(year, month) {
		return time.Time{}, false
	}
	return dateutil.Date(year, month, day), true
}

func daysIn(year int, month time.Month) int {
	return dateutil.Date(year, month+1, 0).Day()
}
