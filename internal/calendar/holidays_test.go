package calendar

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/username/leave-planner/pkg/dateutil"
)

func holidayDates(holidays []Holiday) []string {
	dates := make([]string, len(holidays))
	for i, h := range holidays {
		dates[i] = dateutil.Format(h.Date)
	}
	return dates
}

func findHoliday(holidays []Holiday, date time.Time) (Holiday, bool) {
	for _, h := range holidays {
		if h.Date.Equal(date) {
			return h, true
		}
	}
	return Holiday{}, false
}

func TestBuildHolidays_Official(t *testing.T) {
	tests := []struct {
		name              string
		includeHolySpirit bool
		want              []string
	}{
		{
			name: "Without Holy Spirit Monday",
			want: []string{
				"2026-01-01", "2026-01-06", "2026-02-23", "2026-03-25", "2026-04-10", "2026-04-13",
				"2026-05-01", "2026-08-15", "2026-10-28", "2026-12-25", "2026-12-26",
			},
		},
		{
			name:              "With Holy Spirit Monday",
			includeHolySpirit: true,
			want: []string{
				"2026-01-01", "2026-01-06", "2026-02-23", "2026-03-25", "2026-04-10", "2026-04-13",
				"2026-05-01", "2026-06-01", "2026-08-15", "2026-10-28", "2026-12-25", "2026-12-26",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			holidays, err := BuildHolidays(2026, tt.includeHolySpirit, nil)
			if err != nil {
				t.Fatalf("BuildHolidays() error = %v", err)
			}

			if got := holidayDates(holidays); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildHolidays() dates = %v, want %v", got, tt.want)
			}

			for _, h := range holidays {
				if h.IsCustom {
					t.Errorf("%s should not be custom", h.Name)
				}
				if h.Name == "" || h.LocalizedName == "" {
					t.Errorf("holiday on %s has no name", dateutil.Format(h.Date))
				}
			}
		})
	}
}

func TestBuildHolidays_MovableFlag(t *testing.T) {
	holidays, err := BuildHolidays(2026, false, nil)
	if err != nil {
		t.Fatalf("BuildHolidays() error = %v", err)
	}

	goodFriday, ok := findHoliday(holidays, dateutil.Date(2026, time.April, 10))
	if !ok || !goodFriday.IsMovable || goodFriday.LocalizedName != "Μεγάλη Παρασκευή" {
		t.Errorf("Good Friday = %+v, want movable Μεγάλη Παρασκευή", goodFriday)
	}

	christmas, ok := findHoliday(holidays, dateutil.Date(2026, time.December, 25))
	if !ok || christmas.IsMovable {
		t.Errorf("Christmas = %+v, want fixed", christmas)
	}
}

func TestBuildHolidays_Custom(t *testing.T) {
	custom := []CustomHolidaySpec{
		{Name: "Saint George", LocalizedName: "Αγίου Γεωργίου", Kind: KindConditional, Date: "04-23"},
		{Name: "Saint Andrew", Kind: KindRecurring, Date: "11-30"},
		{Name: "Lazarus Saturday", Kind: KindMovable, Offset: "-7"},
		{Name: "Office move", Kind: KindOneTime, Date: "2026-06-12"},
		{Name: "Last year's move", Kind: KindOneTime, Date: "2025-06-13"},
	}

	holidays, err := BuildHolidays(2026, false, custom)
	if err != nil {
		t.Fatalf("BuildHolidays() error = %v", err)
	}

	tests := []struct {
		name        string
		date        time.Time
		wantName    string
		wantLocal   string
		wantMovable bool
	}{
		{"Conditional after Easter stays", dateutil.Date(2026, time.April, 23), "Saint George", "Αγίου Γεωργίου", true},
		{"Recurring", dateutil.Date(2026, time.November, 30), "Saint Andrew", "Saint Andrew", false},
		{"Movable", dateutil.Date(2026, time.April, 5), "Lazarus Saturday", "Lazarus Saturday", true},
		{"One-time in its year", dateutil.Date(2026, time.June, 12), "Office move", "Office move", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := findHoliday(holidays, tt.date)
			if !ok {
				t.Fatalf("no holiday on %s", dateutil.Format(tt.date))
			}
			if h.Name != tt.wantName || h.LocalizedName != tt.wantLocal {
				t.Errorf("holiday = %q/%q, want %q/%q", h.Name, h.LocalizedName, tt.wantName, tt.wantLocal)
			}
			if !h.IsCustom {
				t.Errorf("%s should be custom", h.Name)
			}
			if h.IsMovable != tt.wantMovable {
				t.Errorf("%s IsMovable = %v, want %v", h.Name, h.IsMovable, tt.wantMovable)
			}
		})
	}

	if _, ok := findHoliday(holidays, dateutil.Date(2025, time.June, 13)); ok {
		t.Error("one-time holiday from another year should be skipped")
	}

	if len(holidays) != 11+4 {
		t.Errorf("len(holidays) = %d, want 15", len(holidays))
	}

	for i := 1; i < len(holidays); i++ {
		if !holidays[i-1].Date.Before(holidays[i].Date) {
			t.Errorf("holidays not strictly sorted at %d: %v", i, holidayDates(holidays))
			break
		}
	}
}

func TestBuildHolidays_SameDateCollisions(t *testing.T) {
	custom := []CustomHolidaySpec{
		{Name: "Custom New Year", Kind: KindRecurring, Date: "01-01"},
		{Name: "First local feast", Kind: KindRecurring, Date: "07-20"},
		{Name: "Second local feast", Kind: KindOneTime, Date: "2026-07-20"},
	}

	holidays, err := BuildHolidays(2026, false, custom)
	if err != nil {
		t.Fatalf("BuildHolidays() error = %v", err)
	}

	newYear, _ := findHoliday(holidays, dateutil.Date(2026, time.January, 1))
	if newYear.Name != "New Year's Day" || newYear.IsCustom {
		t.Errorf("Jan 1 = %q, official holiday should win", newYear.Name)
	}

	feast, _ := findHoliday(holidays, dateutil.Date(2026, time.July, 20))
	if feast.Name != "First local feast" {
		t.Errorf("Jul 20 = %q, first custom spec should win", feast.Name)
	}

	seen := make(map[string]bool)
	for _, d := range holidayDates(holidays) {
		if seen[d] {
			t.Errorf("duplicate holiday date %s", d)
		}
		seen[d] = true
	}
}

func TestBuildHolidays_Pure(t *testing.T) {
	custom := []CustomHolidaySpec{
		{Name: "Saint George", Kind: KindConditional, Date: "04-23"},
		{Name: "Lazarus Saturday", Kind: KindMovable, Offset: "-7"},
	}

	for _, year := range []int{1992, 2021, 2026, 2099} {
		first, err := BuildHolidays(year, true, custom)
		if err != nil {
			t.Fatalf("BuildHolidays(%d) error = %v", year, err)
		}
		second, err := BuildHolidays(year, true, custom)
		if err != nil {
			t.Fatalf("BuildHolidays(%d) error = %v", year, err)
		}

		if !reflect.DeepEqual(first, second) {
			t.Errorf("BuildHolidays(%d) returned different results on repeated calls", year)
		}
	}
}

func TestBuildHolidays_InvalidYear(t *testing.T) {
	for _, year := range []int{0, -5, 10000} {
		_, err := BuildHolidays(year, false, nil)
		if !errors.Is(err, ErrInvalidYear) {
			t.Errorf("BuildHolidays(%d) error = %v, want ErrInvalidYear", year, err)
		}
	}
}

func TestBuildHolidays_ParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		spec      CustomHolidaySpec
		wantField string
	}{
		{"Month out of range", CustomHolidaySpec{Name: "x", Kind: KindRecurring, Date: "13-01"}, "date"},
		{"Non-numeric month", CustomHolidaySpec{Name: "x", Kind: KindConditional, Date: "ab-01"}, "date"},
		{"Day out of range", CustomHolidaySpec{Name: "x", Kind: KindRecurring, Date: "04-31"}, "date"},
		{"Missing separator", CustomHolidaySpec{Name: "x", Kind: KindRecurring, Date: "0423"}, "date"},
		{"Impossible one-time date", CustomHolidaySpec{Name: "x", Kind: KindOneTime, Date: "2026-02-30"}, "date"},
		{"Bad offset", CustomHolidaySpec{Name: "x", Kind: KindMovable, Offset: "seven"}, "offset"},
		{"Unknown kind", CustomHolidaySpec{Name: "x", Kind: "weekly", Date: "04-23"}, "kind"},
		{"Blank name", CustomHolidaySpec{Name: "  ", Kind: KindRecurring, Date: "04-23"}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			holidays, err := BuildHolidays(2026, false, []CustomHolidaySpec{tt.spec})
			if err == nil {
				t.Fatalf("BuildHolidays() returned %d holidays, want error", len(holidays))
			}
			if holidays != nil {
				t.Errorf("BuildHolidays() should not return holidays on error")
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if pe.Field != tt.wantField {
				t.Errorf("ParseError.Field = %q, want %q", pe.Field, tt.wantField)
			}
		})
	}
}

func TestResolveCustomHoliday_Conditional(t *testing.T) {
	saintGeorge := ConditionalHoliday{
		Names: Names{Name: "Saint George", LocalizedName: "Αγίου Γεωργίου"},
		Month: time.April,
		Day:   23,
	}

	tests := []struct {
		name string
		year int
		want time.Time
	}{
		{"Easter on April 26 moves it to April 27", 1992, dateutil.Date(1992, time.April, 27)},
		{"Easter on April 24 moves it to April 25", 2022, dateutil.Date(2022, time.April, 25)},
		{"Easter in May moves it to Bright Monday", 2021, dateutil.Date(2021, time.May, 3)},
		{"Easter before April 23 keeps the fixed date", 2023, dateutil.Date(2023, time.April, 23)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveCustomHoliday(saintGeorge, tt.year)
			if !ok {
				t.Fatalf("ResolveCustomHoliday() ok = false")
			}
			if !got.Equal(tt.want) {
				t.Errorf("ResolveCustomHoliday(%d) = %s, want %s", tt.year, dateutil.Format(got), dateutil.Format(tt.want))
			}
		})
	}
}

func TestResolveCustomHoliday_ConditionalOnEaster(t *testing.T) {
	// Easter 2026 is April 12
	h := ConditionalHoliday{Names: Names{Name: "Feast"}, Month: time.April, Day: 12}

	got, _ := ResolveCustomHoliday(h, 2026)
	if want := dateutil.Date(2026, time.April, 13); !got.Equal(want) {
		t.Errorf("ResolveCustomHoliday() = %s, want %s", dateutil.Format(got), dateutil.Format(want))
	}
}

func TestResolveCustomHoliday_LeapDay(t *testing.T) {
	h := RecurringHoliday{Names: Names{Name: "Leap"}, Month: time.February, Day: 29}

	if _, ok := ResolveCustomHoliday(h, 2026); ok {
		t.Error("February 29 should not occur in 2026")
	}
	if got, ok := ResolveCustomHoliday(h, 2028); !ok || !got.Equal(dateutil.Date(2028, time.February, 29)) {
		t.Errorf("ResolveCustomHoliday(2028) = %s, %v", dateutil.Format(got), ok)
	}
}

func TestBuildHolidays_ConditionalMovesToBrightMonday(t *testing.T) {
	custom := []CustomHolidaySpec{{Name: "Saint George", Kind: KindConditional, Date: "04-23"}}

	holidays, err := BuildHolidays(1992, false, custom)
	if err != nil {
		t.Fatalf("BuildHolidays() error = %v", err)
	}

	if _, ok := findHoliday(holidays, dateutil.Date(1992, time.April, 23)); ok {
		t.Error("April 23, 1992 falls before Easter and should not be a holiday")
	}
	if _, ok := findHoliday(holidays, dateutil.Date(1992, time.April, 27)); !ok {
		t.Error("April 27, 1992 should be a holiday")
	}
}

func TestHolidaysByDate(t *testing.T) {
	athens := time.FixedZone("EET", 2*60*60)
	holidays := []Holiday{
		{Date: time.Date(2026, 3, 25, 0, 0, 0, 0, athens), Name: "first"},
		{Date: dateutil.Date(2026, 3, 25), Name: "second"},
	}

	byDate := HolidaysByDate(holidays)
	if len(byDate) != 1 {
		t.Fatalf("len(byDate) = %d, want 1", len(byDate))
	}
	if h := byDate[dateutil.Date(2026, 3, 25)]; h.Name != "first" {
		t.Errorf("byDate[2026-03-25] = %q, want first", h.Name)
	}
}
