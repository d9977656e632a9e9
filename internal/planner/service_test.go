package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/leave-planner/internal/calendar"
	"github.com/username/leave-planner/internal/optimizer"
	"github.com/username/leave-planner/internal/plan"
	"github.com/username/leave-planner/pkg/dateutil"
	"go.uber.org/zap"
)

var today = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, source calendar.Source) *Service {
	t.Helper()

	clock := func() time.Time { return today }
	manager := plan.NewManager(nil, 20, clock, zap.NewNop())
	return NewService(source, manager, clock, Defaults{Budget: 5, MaxResults: 5}, zap.NewNop())
}

type failingSource struct{}

func (failingSource) CustomHolidays(ctx context.Context) ([]calendar.CustomHolidaySpec, error) {
	return nil, errors.New("connection refused")
}

func TestDefaultQuery(t *testing.T) {
	s := newTestService(t, nil)
	s.Manager().SetPreferences(plan.Preferences{FromToday: true, IncludeHolySpirit: true, Language: "en"})

	q := s.DefaultQuery()

	assert.Equal(t, Query{
		Year:              2026,
		Budget:            5,
		MaxResults:        5,
		FromToday:         true,
		IncludeHolySpirit: true,
		Language:          optimizer.LanguageEnglish,
	}, q)
}

func TestHolidays_MergesSourceAndSaved(t *testing.T) {
	source := calendar.StaticSource{{Name: "Town Saint", Kind: calendar.KindRecurring, Date: "11-11"}}
	s := newTestService(t, source)
	require.NoError(t, s.Manager().SetCustomHolidays([]calendar.CustomHolidaySpec{
		{Name: "Company Day", Kind: calendar.KindOneTime, Date: "2026-07-03"},
	}))

	holidays, err := s.Holidays(context.Background(), 2026, false)
	require.NoError(t, err)

	byDate := calendar.HolidaysByDate(holidays)
	assert.Equal(t, "Town Saint", byDate[dateutil.Date(2026, time.November, 11)].Name)
	assert.Equal(t, "Company Day", byDate[dateutil.Date(2026, time.July, 3)].Name)
	assert.Len(t, holidays, 13)
}

func TestHolidaysInRange_SpansYears(t *testing.T) {
	s := newTestService(t, nil)
	r, err := calendar.NewDateRange(dateutil.Date(2025, time.December, 20), dateutil.Date(2026, time.January, 10))
	require.NoError(t, err)

	holidays, err := s.HolidaysInRange(context.Background(), r, false)
	require.NoError(t, err)

	byDate := calendar.HolidaysByDate(holidays)
	assert.Contains(t, byDate, dateutil.Date(2025, time.December, 25))
	assert.Contains(t, byDate, dateutil.Date(2026, time.January, 6))
}

func TestSuggest_FromToday(t *testing.T) {
	s := newTestService(t, nil)
	q := s.DefaultQuery()
	q.FromToday = true

	results, err := s.Suggest(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.Equal(t, "2026-12-24", dateutil.Format(results[0].Range.Start))
	assert.Equal(t, "2026-12-28", dateutil.Format(results[0].Range.End))
	for _, o := range results {
		assert.False(t, o.Range.Start.Before(dateutil.Date(2026, time.October, 19)))
	}
}

func TestSuggest_SourceFailure(t *testing.T) {
	s := newTestService(t, failingSource{})

	_, err := s.Suggest(context.Background(), s.DefaultQuery())
	assert.ErrorContains(t, err, "failed to load custom holidays")
	assert.ErrorContains(t, err, "connection refused")
}

func TestSuggest_InvalidYear(t *testing.T) {
	s := newTestService(t, nil)
	q := s.DefaultQuery()
	q.Year = 0

	_, err := s.Suggest(context.Background(), q)
	assert.ErrorIs(t, err, calendar.ErrInvalidYear)
}

func TestEvaluate(t *testing.T) {
	s := newTestService(t, nil)

	// Christmas week: Dec 25 and 26 are holidays, Dec 26 falls on Saturday
	r, err := calendar.NewDateRange(dateutil.Date(2026, time.December, 21), dateutil.Date(2026, time.December, 27))
	require.NoError(t, err)

	o, err := s.Evaluate(context.Background(), r, false, optimizer.LanguageEnglish)
	require.NoError(t, err)

	assert.Equal(t, 7, o.TotalDays)
	assert.Equal(t, 4, o.LeaveDaysRequired)
	assert.Equal(t, 3, o.FreeDays)
	assert.InDelta(t, 1.75, o.Efficiency, 1e-9)
	assert.Equal(t, "Spend 4 leave days, get 7 days off", o.EfficiencyLabel)
}

func TestEvaluate_RejectsLongSpans(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	r, err := calendar.NewDateRange(dateutil.Date(1000, time.January, 1), dateutil.Date(2999, time.December, 31))
	require.NoError(t, err)

	_, err = s.Evaluate(ctx, r, false, optimizer.LanguageEnglish)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	_, err = s.Calendar(ctx, r, false)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)
}
