// Package optimizer finds the leave windows that turn the fewest leave days
// into the longest stretches of time off.
package optimizer

import (
	"fmt"
	"sort"
	"time"

	"github.com/username/leave-planner/internal/calendar"
	"github.com/username/leave-planner/pkg/dateutil"
	"go.uber.org/zap"
)

// StartMode selects where the search begins within the year
type StartMode struct {
	fromDate bool
	today    time.Time
}

// FromYearStart searches the whole year
func FromYearStart() StartMode {
	return StartMode{}
}

// FromDate searches from today (or January 1 if today is earlier)
func FromDate(today time.Time) StartMode {
	return StartMode{fromDate: true, today: dateutil.StartOfDay(today)}
}

// Today returns the date for FromDate modes
func (m StartMode) Today() (time.Time, bool) {
	return m.today, m.fromDate
}

func (m StartMode) String() string {
	if !m.fromDate {
		return "year-start"
	}
	return "from " + dateutil.Format(m.today)
}

// Request describes one leave search
type Request struct {
	Year       int
	Budget     int // maximum leave days per window
	Holidays   []calendar.Holiday
	MaxResults int // <= 0 means no limit
	Start      StartMode
	Language   Language
}

// Opportunity is a window of consecutive days off and what it costs
type Opportunity struct {
	Range             calendar.DateRange `json:"range"`
	TotalDays         int                `json:"total_days"`
	LeaveDaysRequired int                `json:"leave_days_required"`
	FreeDays          int                `json:"free_days"`
	Efficiency        float64            `json:"efficiency"`
	EfficiencyLabel   string             `json:"efficiency_label"`
	Days              []calendar.DayInfo `json:"days"`
}

// Optimizer runs leave searches
type Optimizer struct {
	logger *zap.Logger
}

// NewOptimizer creates a new optimizer
func NewOptimizer(logger *zap.Logger) *Optimizer {
	return &Optimizer{logger: logger}
}

// FindOpportunities returns the best non-overlapping leave windows of the
// year, ranked by efficiency.
func (o *Optimizer) FindOpportunities(req Request) ([]Opportunity, error) {
	if err := calendar.ValidateYear(req.Year); err != nil {
		return nil, err
	}

	results := []Opportunity{}
	if req.Budget <= 0 {
		return results, nil
	}

	searchRange := calendar.YearRange(req.Year)
	if today, ok := req.Start.Today(); ok {
		searchRange.Start = dateutil.MaxDate(today, searchRange.Start)
		if searchRange.Start.After(searchRange.End) {
			o.logger.Debug("Search start is past the end of the year",
				zap.Int("year", req.Year),
				zap.String("start", req.Start.String()))
			return results, nil
		}
	}

	days, err := calendar.GenerateCalendar(searchRange, req.Holidays)
	if err != nil {
		return nil, fmt.Errorf("failed to generate calendar: %w", err)
	}

	results = Search(days, req.Budget, req.MaxResults, req.Language)

	o.logger.Debug("Leave search completed",
		zap.Int("year", req.Year),
		zap.Int("budget", req.Budget),
		zap.String("start", req.Start.String()),
		zap.Int("days", len(days)),
		zap.Int("results", len(results)))

	return results, nil
}

// Search runs the window search over an already generated day sequence
func Search(days []calendar.DayInfo, budget, maxResults int, lang Language) []Opportunity {
	results := []Opportunity{}
	if budget <= 0 {
		return results
	}

	windows := enumerateWindows(days, budget)
	rankWindows(windows)
	for _, w := range selectNonOverlapping(windows, maxResults) {
		results = append(results, w.opportunity(days, lang))
	}
	return results
}

// Evaluate scores an externally chosen period, such as a custom plan entry.
// A period without any workday has zero efficiency.
func Evaluate(days []calendar.DayInfo, lang Language) (Opportunity, error) {
	if len(days) == 0 {
		return Opportunity{}, fmt.Errorf("%w: no days to evaluate", calendar.ErrInvalidRange)
	}

	leave := 0
	for _, d := range days {
		leave += d.Cost
	}

	w := window{start: 0, end: len(days) - 1, leave: leave}
	return w.opportunity(days, lang), nil
}

// EvaluateRange generates the calendar for r and scores it
func EvaluateRange(r calendar.DateRange, holidays []calendar.Holiday, lang Language) (Opportunity, error) {
	days, err := calendar.GenerateCalendar(r, holidays)
	if err != nil {
		return Opportunity{}, err
	}
	return Evaluate(days, lang)
}

// window is a candidate [start, end] over indexes of the day sequence
type window struct {
	start int
	end   int
	leave int
}

func (w window) total() int {
	return w.end - w.start + 1
}

func (w window) overlaps(other window) bool {
	return w.start <= other.end && other.start <= w.end
}

func (w window) opportunity(days []calendar.DayInfo, lang Language) Opportunity {
	total := w.total()
	efficiency := 0.0
	if w.leave > 0 {
		efficiency = float64(total) / float64(w.leave)
	}

	return Opportunity{
		Range: calendar.DateRange{
			Start: days[w.start].Date,
			End:   days[w.end].Date,
		},
		TotalDays:         total,
		LeaveDaysRequired: w.leave,
		FreeDays:          total - w.leave,
		Efficiency:        efficiency,
		EfficiencyLabel:   EfficiencyLabel(w.leave, total, lang),
		Days:              append([]calendar.DayInfo(nil), days[w.start:w.end+1]...),
	}
}

// enumerateWindows lists every window that starts and ends on a workday and
// uses at most budget leave days
func enumerateWindows(days []calendar.DayInfo, budget int) []window {
	var windows []window

	for i := range days {
		if !days[i].IsWorkday() {
			continue
		}

		used := 0
		for j := i; j < len(days); j++ {
			used += days[j].Cost
			if used > budget {
				break
			}
			if days[j].IsWorkday() {
				windows = append(windows, window{start: i, end: j, leave: used})
			}
		}
	}

	return windows
}

// rankWindows orders by efficiency desc, then earlier start, then shorter.
// Efficiencies are compared as exact fractions.
func rankWindows(windows []window) {
	sort.SliceStable(windows, func(a, b int) bool {
		wa, wb := windows[a], windows[b]
		lhs, rhs := wa.total()*wb.leave, wb.total()*wa.leave
		if lhs != rhs {
			return lhs > rhs
		}
		if wa.start != wb.start {
			return wa.start < wb.start
		}
		return wa.end < wb.end
	})
}

// selectNonOverlapping greedily keeps ranked windows that don't overlap an
// already kept one, stopping at limit (<= 0 means no limit)
func selectNonOverlapping(ranked []window, limit int) []window {
	var selected []window

	for _, w := range ranked {
		if limit > 0 && len(selected) >= limit {
			break
		}

		conflict := false
		for _, s := range selected {
			if w.overlaps(s) {
				conflict = true
				break
			}
		}
		if !conflict {
			selected = append(selected, w)
		}
	}

	return selected
}
