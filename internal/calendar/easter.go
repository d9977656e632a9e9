package calendar

import (
	"time"

	"github.com/username/leave-planner/pkg/dateutil"
)

// OrthodoxEaster returns the Gregorian date of Orthodox Easter Sunday.
//
// The Julian date is computed with the Meeus/Jones/Butcher algorithm and then
// shifted by JulianGregorianOffset for the year.
func OrthodoxEaster(year int) time.Time {
	a := year % 4
	b := year % 7
	c := year % 19
	d := (19*c + 15) % 30
	e := (2*a + 4*b - d + 34) % 7
	month := (d + e + 114) / 31
	day := (d+e+114)%31 + 1

	julian := dateutil.Date(year, time.Month(month), day)
	return dateutil.AddDays(julian, JulianGregorianOffset(year))
}

// JulianGregorianOffset returns the number of days the Julian calendar lags
// behind the Gregorian one in the given year (13 for 1900-2099).
//
// The drift grows by one day in every century year not divisible by 400.
// The boundary is taken at January 1 rather than at the Julian leap day,
// which is exact for every possible Easter date.
func JulianGregorianOffset(year int) int {
	return year/100 - year/400 - 2
}

// CleanMonday returns the first day of Great Lent (Easter - 48)
func CleanMonday(year int) time.Time {
	return dateutil.AddDays(OrthodoxEaster(year), -48)
}

// GoodFriday returns Easter - 2
func GoodFriday(year int) time.Time {
	return dateutil.AddDays(OrthodoxEaster(year), -2)
}

// EasterMonday returns Easter + 1
func EasterMonday(year int) time.Time {
	return dateutil.AddDays(OrthodoxEaster(year), 1)
}

// BrightMonday is the day a conditional feast moves to when it falls on or
// before Easter. It is the same day as EasterMonday.
func BrightMonday(year int) time.Time {
	return EasterMonday(year)
}

// HolySpiritMonday returns Easter + 50 (Whit Monday)
func HolySpiritMonday(year int) time.Time {
	return dateutil.AddDays(OrthodoxEaster(year), 50)
}
