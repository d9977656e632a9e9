package calendar

import (
	"sort"
	"time"

	"github.com/username/leave-planner/pkg/dateutil"
)

// Holiday is a non-working day recognized in a specific year
type Holiday struct {
	Date          time.Time
	Name          string
	LocalizedName string
	IsMovable     bool
	IsCustom      bool
}

type fixedHoliday struct {
	month         time.Month
	day           int
	name          string
	localizedName string
}

// Greek public holidays on a fixed date
var fixedHolidays = []fixedHoliday{
	{time.January, 1, "New Year's Day", "Πρωτοχρονιά"},
	{time.January, 6, "Epiphany", "Θεοφάνεια"},
	{time.March, 25, "Independence Day", "Ευαγγελισμός της Θεοτόκου"},
	{time.May, 1, "Labour Day", "Πρωτομαγιά"},
	{time.August, 15, "Assumption of Mary", "Κοίμηση της Θεοτόκου"},
	{time.October, 28, "Ochi Day", "Επέτειος του Όχι"},
	{time.December, 25, "Christmas Day", "Χριστούγεννα"},
	{time.December, 26, "Boxing Day", "Σύναξη της Θεοτόκου"},
}

type movableHoliday struct {
	offset        int // days from Easter Sunday
	name          string
	localizedName string
	optional      bool // Holy Spirit Monday, included on request
}

var movableHolidays = []movableHoliday{
	{-48, "Clean Monday", "Καθαρά Δευτέρα", false},
	{-2, "Good Friday", "Μεγάλη Παρασκευή", false},
	{1, "Easter Monday", "Δευτέρα του Πάσχα", false},
	{50, "Holy Spirit Monday", "Αγίου Πνεύματος", true},
}

// BuildHolidays returns every holiday of the year sorted by date.
//
// Custom specs are parsed before anything is produced, so a malformed spec
// fails the whole call with a *ParseError. When two holidays land on the same
// date only one is kept: official holidays win over custom ones, and among
// custom holidays the first spec wins.
func BuildHolidays(year int, includeHolySpirit bool, custom []CustomHolidaySpec) ([]Holiday, error) {
	if err := ValidateYear(year); err != nil {
		return nil, err
	}

	parsed, err := ParseCustomHolidays(custom)
	if err != nil {
		return nil, err
	}

	easter := OrthodoxEaster(year)
	holidays := make([]Holiday, 0, len(fixedHolidays)+len(movableHolidays)+len(parsed))
	taken := make(map[time.Time]bool)

	add := func(h Holiday) {
		if taken[h.Date] {
			return
		}
		taken[h.Date] = true
		holidays = append(holidays, h)
	}

	for _, f := range fixedHolidays {
		add(Holiday{
			Date:          dateutil.Date(year, f.month, f.day),
			Name:          f.name,
			LocalizedName: f.localizedName,
		})
	}

	for _, m := range movableHolidays {
		if m.optional && !includeHolySpirit {
			continue
		}
		add(Holiday{
			Date:          dateutil.AddDays(easter, m.offset),
			Name:          m.name,
			LocalizedName: m.localizedName,
			IsMovable:     true,
		})
	}

	for _, c := range parsed {
		date, ok := resolveCustom(c, year, easter)
		if !ok {
			continue
		}
		names := c.holidayNames()
		_, fixed := c.(OneTimeHoliday)
		_, recurring := c.(RecurringHoliday)
		add(Holiday{
			Date:          date,
			Name:          names.Name,
			LocalizedName: names.LocalizedName,
			IsMovable:     !fixed && !recurring,
			IsCustom:      true,
		})
	}

	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})

	return holidays, nil
}

// HolidaysByDate indexes holidays by calendar date, keeping the first one
// for each date
func HolidaysByDate(holidays []Holiday) map[time.Time]Holiday {
	byDate := make(map[time.Time]Holiday, len(holidays))
	for _, h := range holidays {
		key := dateutil.StartOfDay(h.Date)
		if _, exists := byDate[key]; !exists {
			byDate[key] = h
		}
	}
	return byDate
}
