// Package planner ties holiday sources, the optimizer and the saved plan
// together for the CLI and the HTTP API.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/username/leave-planner/internal/calendar"
	"github.com/username/leave-planner/internal/optimizer"
	"github.com/username/leave-planner/internal/plan"
	"go.uber.org/zap"
)

// Defaults are the configured search parameters
type Defaults struct {
	Budget     int
	MaxResults int
}

// Query is one leave search. Start from DefaultQuery and override fields.
type Query struct {
	Year              int
	Budget            int
	MaxResults        int
	FromToday         bool
	IncludeHolySpirit bool
	Language          optimizer.Language
}

// Service answers holiday, calendar and suggestion queries for the plan owner
type Service struct {
	source    calendar.Source
	manager   *plan.Manager
	optimizer *optimizer.Optimizer
	clock     func() time.Time
	defaults  Defaults
	logger    *zap.Logger
}

// NewService creates a new planner service. A nil source means no extra
// custom holidays beyond the ones saved in the plan.
func NewService(source calendar.Source, manager *plan.Manager, clock func() time.Time, defaults Defaults, logger *zap.Logger) *Service {
	if source == nil {
		source = calendar.StaticSource(nil)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		source:    source,
		manager:   manager,
		optimizer: optimizer.NewOptimizer(logger),
		clock:     clock,
		defaults:  defaults,
		logger:    logger,
	}
}

// Manager returns the plan manager
func (s *Service) Manager() *plan.Manager {
	return s.manager
}

// Now returns the current time from the injected clock
func (s *Service) Now() time.Time {
	return s.clock()
}

// DefaultQuery builds a query for the current year from the configured
// defaults and the saved preferences
func (s *Service) DefaultQuery() Query {
	prefs := s.manager.Preferences()
	return Query{
		Year:              s.clock().Year(),
		Budget:            s.defaults.Budget,
		MaxResults:        s.defaults.MaxResults,
		FromToday:         prefs.FromToday,
		IncludeHolySpirit: prefs.IncludeHolySpirit,
		Language:          optimizer.ParseLanguage(prefs.Language),
	}
}

// Holidays returns the official and custom holidays of the year
func (s *Service) Holidays(ctx context.Context, year int, includeHolySpirit bool) ([]calendar.Holiday, error) {
	specs, err := s.customSpecs(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.BuildHolidays(year, includeHolySpirit, specs)
}

// HolidaysInRange returns the holidays of every year the range touches.
// Ranges longer than calendar.MaxRangeDays are rejected.
func (s *Service) HolidaysInRange(ctx context.Context, r calendar.DateRange, includeHolySpirit bool) ([]calendar.Holiday, error) {
	if err := calendar.CheckSpan(r); err != nil {
		return nil, err
	}

	specs, err := s.customSpecs(ctx)
	if err != nil {
		return nil, err
	}

	var all []calendar.Holiday
	for year := r.Start.Year(); year <= r.End.Year(); year++ {
		holidays, err := calendar.BuildHolidays(year, includeHolySpirit, specs)
		if err != nil {
			return nil, err
		}
		all = append(all, holidays...)
	}
	return all, nil
}

// Calendar classifies every day of the range
func (s *Service) Calendar(ctx context.Context, r calendar.DateRange, includeHolySpirit bool) ([]calendar.DayInfo, error) {
	holidays, err := s.HolidaysInRange(ctx, r, includeHolySpirit)
	if err != nil {
		return nil, err
	}
	return calendar.GenerateCalendar(r, holidays)
}

// Suggest runs the leave search described by q
func (s *Service) Suggest(ctx context.Context, q Query) ([]optimizer.Opportunity, error) {
	holidays, err := s.Holidays(ctx, q.Year, q.IncludeHolySpirit)
	if err != nil {
		return nil, err
	}

	start := optimizer.FromYearStart()
	if q.FromToday {
		start = optimizer.FromDate(s.clock())
	}

	return s.optimizer.FindOpportunities(optimizer.Request{
		Year:       q.Year,
		Budget:     q.Budget,
		Holidays:   holidays,
		MaxResults: q.MaxResults,
		Start:      start,
		Language:   q.Language,
	})
}

// Evaluate scores a user-chosen period for the plan
func (s *Service) Evaluate(ctx context.Context, r calendar.DateRange, includeHolySpirit bool, lang optimizer.Language) (optimizer.Opportunity, error) {
	holidays, err := s.HolidaysInRange(ctx, r, includeHolySpirit)
	if err != nil {
		return optimizer.Opportunity{}, err
	}
	return optimizer.EvaluateRange(r, holidays, lang)
}

// customSpecs merges the source's holidays with the ones saved in the plan
func (s *Service) customSpecs(ctx context.Context) ([]calendar.CustomHolidaySpec, error) {
	specs, err := s.source.CustomHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom holidays: %w", err)
	}

	saved := s.manager.CustomHolidays()
	if len(saved) > 0 {
		s.logger.Debug("Using saved custom holidays",
			zap.Int("from_source", len(specs)),
			zap.Int("saved", len(saved)))
	}

	return append(specs, saved...), nil
}
