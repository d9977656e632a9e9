package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/leave-planner/internal/calendar"
	"github.com/username/leave-planner/pkg/dateutil"
	"go.uber.org/zap"
)

type expectedWindow struct {
	start, end   string
	total, leave int
	efficiency   float64
}

func assertWindows(t *testing.T, want []expectedWindow, got []Opportunity) {
	t.Helper()

	require.Len(t, got, len(want))
	for i, w := range want {
		o := got[i]
		assert.Equal(t, w.start, dateutil.Format(o.Range.Start), "result %d start", i)
		assert.Equal(t, w.end, dateutil.Format(o.Range.End), "result %d end", i)
		assert.Equal(t, w.total, o.TotalDays, "result %d total", i)
		assert.Equal(t, w.leave, o.LeaveDaysRequired, "result %d leave", i)
		assert.InDelta(t, w.efficiency, o.Efficiency, 1e-9, "result %d efficiency", i)
	}
}

// assertInvariants checks the properties every search result must hold
func assertInvariants(t *testing.T, results []Opportunity, budget int) {
	t.Helper()

	for i, o := range results {
		require.NotEmpty(t, o.Days)
		first, last := o.Days[0], o.Days[len(o.Days)-1]

		assert.True(t, first.Date.Equal(o.Range.Start), "days start at range start")
		assert.True(t, last.Date.Equal(o.Range.End), "days end at range end")
		assert.Equal(t, 1, first.Cost, "%s must start on a workday", o.Range)
		assert.Equal(t, 1, last.Cost, "%s must end on a workday", o.Range)
		assert.Equal(t, len(o.Days), o.TotalDays)
		assert.Equal(t, o.TotalDays, o.FreeDays+o.LeaveDaysRequired)
		assert.LessOrEqual(t, o.LeaveDaysRequired, budget)
		assert.Positive(t, o.LeaveDaysRequired)
		assert.InDelta(t, float64(o.TotalDays)/float64(o.LeaveDaysRequired), o.Efficiency, 1e-9)

		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Efficiency, o.Efficiency, "results ranked by efficiency")
		}
		for j := i + 1; j < len(results); j++ {
			assert.False(t, o.Range.Overlaps(results[j].Range), "%s overlaps %s", o.Range, results[j].Range)
		}
	}
}

func greekHolidays(t *testing.T, year int) []calendar.Holiday {
	t.Helper()
	holidays, err := calendar.BuildHolidays(year, false, nil)
	require.NoError(t, err)
	return holidays
}

func TestFindOpportunities_MidweekHolidayBridge(t *testing.T) {
	opt := NewOptimizer(zap.NewNop())

	// Clean Monday (Feb 23, 2026) bridged with Friday and Tuesday
	results, err := opt.FindOpportunities(Request{
		Year:       2026,
		Budget:     3,
		Holidays:   []calendar.Holiday{{Date: dateutil.Date(2026, time.February, 23), Name: "Clean Monday"}},
		MaxResults: 5,
		Start:      FromYearStart(),
	})
	require.NoError(t, err)

	assertWindows(t, []expectedWindow{
		{"2026-02-20", "2026-02-24", 5, 2, 2.5},
		{"2026-01-02", "2026-01-05", 4, 2, 2.0},
		{"2026-01-09", "2026-01-12", 4, 2, 2.0},
		{"2026-01-16", "2026-01-19", 4, 2, 2.0},
		{"2026-01-23", "2026-01-26", 4, 2, 2.0},
	}, results)
	assertInvariants(t, results, 3)
}

func TestFindOpportunities_NewYearOnThursday(t *testing.T) {
	opt := NewOptimizer(zap.NewNop())

	results, err := opt.FindOpportunities(Request{
		Year:       2026,
		Budget:     3,
		Holidays:   []calendar.Holiday{{Date: dateutil.Date(2026, time.January, 1), Name: "New Year's Day"}},
		MaxResults: 3,
		Start:      FromYearStart(),
	})
	require.NoError(t, err)

	// Every window must end on a workday, so the weekend after Friday Jan 2
	// is bridged to the following Monday.
	assertWindows(t, []expectedWindow{
		{"2026-01-02", "2026-01-05", 4, 2, 2.0},
		{"2026-01-09", "2026-01-12", 4, 2, 2.0},
		{"2026-01-16", "2026-01-19", 4, 2, 2.0},
	}, results)
}

func TestSearch_AcrossYearBoundary(t *testing.T) {
	r := calendar.DateRange{Start: dateutil.Date(2025, time.December, 29), End: dateutil.Date(2026, time.January, 11)}
	days, err := calendar.GenerateCalendar(r, []calendar.Holiday{{Date: dateutil.Date(2026, time.January, 1)}})
	require.NoError(t, err)

	results := Search(days, 3, 5, LanguageEnglish)

	assertWindows(t, []expectedWindow{
		{"2025-12-31", "2026-01-05", 6, 3, 2.0},
		{"2025-12-29", "2025-12-29", 1, 1, 1.0},
		{"2025-12-30", "2025-12-30", 1, 1, 1.0},
		{"2026-01-06", "2026-01-06", 1, 1, 1.0},
		{"2026-01-07", "2026-01-07", 1, 1, 1.0},
	}, results)
	assertInvariants(t, results, 3)
}

func TestFindOpportunities_GreekYear(t *testing.T) {
	opt := NewOptimizer(zap.NewNop())

	results, err := opt.FindOpportunities(Request{
		Year:       2026,
		Budget:     3,
		Holidays:   greekHolidays(t, 2026),
		MaxResults: 8,
		Start:      FromYearStart(),
		Language:   LanguageEnglish,
	})
	require.NoError(t, err)

	assertWindows(t, []expectedWindow{
		{"2026-04-09", "2026-04-14", 6, 2, 3.0}, // Easter
		{"2026-02-20", "2026-02-24", 5, 2, 2.5}, // Clean Monday
		{"2026-04-30", "2026-05-04", 5, 2, 2.5}, // Labour Day on Friday
		{"2026-12-24", "2026-12-28", 5, 2, 2.5}, // Christmas
		{"2026-01-02", "2026-01-05", 4, 2, 2.0},
		{"2026-01-09", "2026-01-12", 4, 2, 2.0},
		{"2026-01-16", "2026-01-19", 4, 2, 2.0},
		{"2026-01-23", "2026-01-26", 4, 2, 2.0},
	}, results)
	assertInvariants(t, results, 3)

	assert.Equal(t, "Spend 2 leave days, get 6 days off", results[0].EfficiencyLabel)
	assert.Equal(t, "Μεγάλη Παρασκευή", results[0].Days[1].HolidayName)
}

func TestFindOpportunities_FromToday(t *testing.T) {
	opt := NewOptimizer(zap.NewNop())

	results, err := opt.FindOpportunities(Request{
		Year:       2026,
		Budget:     5,
		Holidays:   greekHolidays(t, 2026),
		MaxResults: 5,
		Start:      FromDate(time.Date(2026, time.October, 19, 15, 30, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	assertWindows(t, []expectedWindow{
		{"2026-12-24", "2026-12-28", 5, 2, 2.5},
		{"2026-10-23", "2026-10-26", 4, 2, 2.0},
		{"2026-10-30", "2026-11-02", 4, 2, 2.0},
		{"2026-11-06", "2026-11-09", 4, 2, 2.0},
		{"2026-11-13", "2026-11-16", 4, 2, 2.0},
	}, results)
	assertInvariants(t, results, 5)

	for _, o := range results {
		assert.False(t, o.Range.Start.Before(dateutil.Date(2026, time.October, 19)))
	}
}

func TestFindOpportunities_FromTodayOutsideYear(t *testing.T) {
	opt := NewOptimizer(zap.NewNop())
	holidays := greekHolidays(t, 2026)

	before, err := opt.FindOpportunities(Request{Year: 2026, Budget: 3, Holidays: holidays, MaxResults: 3, Start: FromDate(dateutil.Date(2025, time.June, 1))})
	require.NoError(t, err)
	whole, err := opt.FindOpportunities(Request{Year: 2026, Budget: 3, Holidays: holidays, MaxResults: 3, Start: FromYearStart()})
	require.NoError(t, err)
	assert.Equal(t, whole, before, "a start before the year searches from January 1")

	after, err := opt.FindOpportunities(Request{Year: 2026, Budget: 3, Holidays: holidays, MaxResults: 3, Start: FromDate(dateutil.Date(2027, time.January, 4))})
	require.NoError(t, err)
	assert.Empty(t, after)
	assert.NotNil(t, after)
}

func TestFindOpportunities_Unlimited(t *testing.T) {
	opt := NewOptimizer(zap.NewNop())

	results, err := opt.FindOpportunities(Request{
		Year:       2026,
		Budget:     2,
		Holidays:   greekHolidays(t, 2026),
		MaxResults: 0,
		Start:      FromYearStart(),
	})
	require.NoError(t, err)

	assert.Len(t, results, 198)
	assertInvariants(t, results, 2)
}

func TestFindOpportunities_SingleDayBudget(t *testing.T) {
	opt := NewOptimizer(zap.NewNop())

	results, err := opt.FindOpportunities(Request{Year: 2026, Budget: 1, MaxResults: 3, Start: FromYearStart()})
	require.NoError(t, err)

	assertWindows(t, []expectedWindow{
		{"2026-01-01", "2026-01-01", 1, 1, 1.0},
		{"2026-01-02", "2026-01-02", 1, 1, 1.0},
		{"2026-01-05", "2026-01-05", 1, 1, 1.0},
	}, results)
}

func TestFindOpportunities_Degenerate(t *testing.T) {
	opt := NewOptimizer(zap.NewNop())

	for _, budget := range []int{0, -2} {
		results, err := opt.FindOpportunities(Request{Year: 2026, Budget: budget, Holidays: greekHolidays(t, 2026), MaxResults: 5})
		require.NoError(t, err)
		assert.Empty(t, results)
	}

	_, err := opt.FindOpportunities(Request{Year: 0, Budget: 3})
	assert.ErrorIs(t, err, calendar.ErrInvalidYear)

	_, err = opt.FindOpportunities(Request{Year: 10000, Budget: 3})
	assert.ErrorIs(t, err, calendar.ErrInvalidYear)

	assert.Empty(t, Search(nil, 3, 5, LanguageGreek))
}

func TestFindOpportunities_Deterministic(t *testing.T) {
	opt := NewOptimizer(zap.NewNop())
	req := Request{
		Year:       2027,
		Budget:     4,
		Holidays:   greekHolidays(t, 2027),
		MaxResults: 10,
		Start:      FromDate(dateutil.Date(2027, time.March, 3)),
	}

	first, err := opt.FindOpportunities(req)
	require.NoError(t, err)
	second, err := opt.FindOpportunities(req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assertInvariants(t, first, 4)
}

func TestFindOpportunities_InvariantsAcrossYears(t *testing.T) {
	opt := NewOptimizer(zap.NewNop())

	for year := 2024; year <= 2030; year++ {
		for _, budget := range []int{1, 3, 5, 9} {
			results, err := opt.FindOpportunities(Request{
				Year:     year,
				Budget:   budget,
				Holidays: greekHolidays(t, year),
				Start:    FromYearStart(),
			})
			require.NoError(t, err)
			assert.NotEmpty(t, results)
			assertInvariants(t, results, budget)
		}
	}
}

func TestEvaluate(t *testing.T) {
	r := calendar.DateRange{Start: dateutil.Date(2026, time.August, 10), End: dateutil.Date(2026, time.August, 23)}

	o, err := EvaluateRange(r, greekHolidays(t, 2026), LanguageGreek)
	require.NoError(t, err)

	// Two weeks around the Assumption (Saturday Aug 15)
	assert.Equal(t, 14, o.TotalDays)
	assert.Equal(t, 10, o.LeaveDaysRequired)
	assert.Equal(t, 4, o.FreeDays)
	assert.InDelta(t, 1.4, o.Efficiency, 1e-9)
	assert.True(t, o.Range.Equal(r))
	assert.Equal(t, "Ξοδέψτε 10 ημέρες άδειας, κερδίστε 14 ημέρες ξεκούρασης", o.EfficiencyLabel)
}

func TestEvaluate_FreeDaysOnly(t *testing.T) {
	r := calendar.DateRange{Start: dateutil.Date(2026, time.April, 10), End: dateutil.Date(2026, time.April, 13)}

	o, err := EvaluateRange(r, greekHolidays(t, 2026), LanguageEnglish)
	require.NoError(t, err)

	assert.Equal(t, 0, o.LeaveDaysRequired)
	assert.Equal(t, 4, o.FreeDays)
	assert.Zero(t, o.Efficiency)
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate(nil, LanguageGreek)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	r := calendar.DateRange{Start: dateutil.Date(2026, time.May, 2), End: dateutil.Date(2026, time.May, 1)}
	_, err = EvaluateRange(r, nil, LanguageGreek)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)
}
