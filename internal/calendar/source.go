package calendar

import (
	"context"
	"fmt"
)

// Source supplies custom holiday specs (patron saints, company days, ...)
type Source interface {
	CustomHolidays(ctx context.Context) ([]CustomHolidaySpec, error)
}

// StaticSource serves a fixed list, typically from config or saved state
type StaticSource []CustomHolidaySpec

// CustomHolidays returns a copy of the list
func (s StaticSource) CustomHolidays(ctx context.Context) ([]CustomHolidaySpec, error) {
	return append([]CustomHolidaySpec(nil), s...), nil
}

// MultiSource concatenates several sources in order
type MultiSource []Source

// CustomHolidays queries each source in turn and fails on the first error
func (ms MultiSource) CustomHolidays(ctx context.Context) ([]CustomHolidaySpec, error) {
	var all []CustomHolidaySpec
	for i, s := range ms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		specs, err := s.CustomHolidays(ctx)
		if err != nil {
			return nil, fmt.Errorf("holiday source %d: %w", i+1, err)
		}
		all = append(all, specs...)
	}
	return all, nil
}
