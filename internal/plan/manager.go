package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/username/leave-planner/internal/calendar"
	"github.com/username/leave-planner/internal/optimizer"
	"go.uber.org/zap"
)

// Manager owns the annual plan. All methods are safe for concurrent use.
// Mutations stay in memory until Save is called.
type Manager struct {
	store  Store
	clock  func() time.Time
	newID  func() string
	logger *zap.Logger

	// saveMu keeps snapshots and store writes in the same order
	saveMu sync.Mutex

	mu             sync.Mutex
	items          []SavedOpportunity
	entitlement    int
	customHolidays []calendar.CustomHolidaySpec
	preferences    Preferences
	pending        *pendingAdd
}

// pendingAdd is a candidate waiting for ForceAddToPlan or DismissConflictWarning
type pendingAdd struct {
	candidate optimizer.Opportunity
	isCustom  bool
	label     string
	conflict  SavedOpportunity
}

// NewManager creates a new plan manager with the given yearly entitlement
func NewManager(store Store, entitlement int, clock func() time.Time, logger *zap.Logger) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		store:       store,
		clock:       clock,
		newID:       uuid.NewString,
		logger:      logger,
		entitlement: entitlement,
	}
}

// AddToPlan appends the candidate unless it overlaps a planned window. On
// overlap the plan is left unchanged, the manager enters the conflict-pending
// state and a *ConflictError is returned.
func (m *Manager) AddToPlan(candidate optimizer.Opportunity) (SavedOpportunity, error) {
	return m.add(candidate, false, "")
}

// AddCustomPeriod is AddToPlan for a user-chosen period. Blank labels are
// stored as "".
func (m *Manager) AddCustomPeriod(period optimizer.Opportunity, label string) (SavedOpportunity, error) {
	return m.add(period, true, strings.TrimSpace(label))
}

func (m *Manager) add(candidate optimizer.Opportunity, isCustom bool, label string) (SavedOpportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = nil
	if conflict, ok := m.findConflict(candidate.Range); ok {
		m.pending = &pendingAdd{
			candidate: candidate,
			isCustom:  isCustom,
			label:     label,
			conflict:  conflict,
		}
		m.logger.Info("Plan conflict detected",
			zap.Stringer("candidate", candidate.Range),
			zap.Stringer("conflicting", conflict.Range),
			zap.String("conflicting_id", conflict.ID))
		return SavedOpportunity{}, &ConflictError{Candidate: candidate, Conflicting: conflict}
	}

	return m.appendLocked(candidate, isCustom, label), nil
}

// ForceAddToPlan adds the pending candidate despite its conflict
func (m *Manager) ForceAddToPlan() (SavedOpportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return SavedOpportunity{}, ErrNoPendingConflict
	}

	p := m.pending
	m.pending = nil
	saved := m.appendLocked(p.candidate, p.isCustom, p.label)

	m.logger.Warn("Overlapping leave added to plan",
		zap.String("id", saved.ID),
		zap.Stringer("range", saved.Range),
		zap.String("overlaps", p.conflict.ID))

	return saved, nil
}

// AddIgnoringConflicts adds a window without the overlap check and without
// touching the pending state
func (m *Manager) AddIgnoringConflicts(candidate optimizer.Opportunity, isCustom bool, label string) SavedOpportunity {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.appendLocked(candidate, isCustom, strings.TrimSpace(label))
}

// DismissConflictWarning drops the pending candidate
func (m *Manager) DismissConflictWarning() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = nil
}

// Pending returns the candidate awaiting a decision and what it conflicts with
func (m *Manager) Pending() (*ConflictError, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return nil, false
	}
	return &ConflictError{Candidate: m.pending.candidate, Conflicting: m.pending.conflict}, true
}

// RemoveFromPlan deletes the item with the given id. Unknown ids are ignored.
// It reports whether an item was removed.
func (m *Manager) RemoveFromPlan(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			m.logger.Info("Removed from plan", zap.String("id", id))
			return true
		}
	}
	return false
}

// ClearPlan removes every item and any pending candidate
func (m *Manager) ClearPlan() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = nil
	m.pending = nil
	m.logger.Info("Plan cleared")
}

// Items returns a copy of the plan in insertion order
func (m *Manager) Items() []SavedOpportunity {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]SavedOpportunity{}, m.items...)
}

// TotalLeaveDays sums the leave days of every planned window
func (m *Manager) TotalLeaveDays() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.totalLocked()
}

// RemainingLeaveDays is the entitlement minus the planned leave. A negative
// value means the plan is over budget.
func (m *Manager) RemainingLeaveDays() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.entitlement - m.totalLocked()
}

// IsInPlan reports whether a planned window covers exactly the same days
func (m *Manager) IsInPlan(candidate optimizer.Opportunity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.items {
		if item.Range.Equal(candidate.Range) {
			return true
		}
	}
	return false
}

// Status returns the state of the plan collection
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.pending != nil:
		return StatusConflictPending
	case len(m.items) > 0:
		return StatusHasItems
	default:
		return StatusEmpty
	}
}

// Entitlement returns the yearly leave days
func (m *Manager) Entitlement() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.entitlement
}

// SetEntitlement changes the yearly leave days
func (m *Manager) SetEntitlement(days int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entitlement = days
}

// CustomHolidays returns the user's saved custom holidays
func (m *Manager) CustomHolidays() []calendar.CustomHolidaySpec {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]calendar.CustomHolidaySpec{}, m.customHolidays...)
}

// SetCustomHolidays validates and replaces the saved custom holidays
func (m *Manager) SetCustomHolidays(specs []calendar.CustomHolidaySpec) error {
	if _, err := calendar.ParseCustomHolidays(specs); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.customHolidays = append([]calendar.CustomHolidaySpec{}, specs...)
	return nil
}

// Preferences returns the saved user toggles
func (m *Manager) Preferences() Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.preferences
}

// SetPreferences replaces the saved user toggles
func (m *Manager) SetPreferences(p Preferences) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.preferences = p
}

// Load replaces the in-memory plan with the stored one. When nothing has
// been stored yet the current values are kept.
func (m *Manager) Load(ctx context.Context) error {
	state, err := m.store.Load(ctx)
	if errors.Is(err, ErrNoState) {
		m.logger.Info("No saved plan yet, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = append([]SavedOpportunity{}, state.Items...)
	m.entitlement = state.Entitlement
	m.customHolidays = append([]calendar.CustomHolidaySpec{}, state.CustomHolidays...)
	m.preferences = state.Preferences
	m.pending = nil

	m.logger.Info("Plan loaded",
		zap.Int("items", len(m.items)),
		zap.Int("entitlement", m.entitlement),
		zap.Int("custom_holidays", len(m.customHolidays)))

	return nil
}

// Save writes the current plan to the store
func (m *Manager) Save(ctx context.Context) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	state := m.Snapshot()

	if err := m.store.Save(ctx, &state); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// Snapshot returns a copy of everything Save would persist
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return State{
		Items:          append([]SavedOpportunity{}, m.items...),
		Entitlement:    m.entitlement,
		CustomHolidays: append([]calendar.CustomHolidaySpec{}, m.customHolidays...),
		Preferences:    m.preferences,
		SavedAt:        m.clock().UTC(),
	}
}

func (m *Manager) findConflict(r calendar.DateRange) (SavedOpportunity, bool) {
	for _, item := range m.items {
		if item.Range.Overlaps(r) {
			return item, true
		}
	}
	return SavedOpportunity{}, false
}

func (m *Manager) appendLocked(o optimizer.Opportunity, isCustom bool, label string) SavedOpportunity {
	saved := SavedOpportunity{
		Opportunity: o,
		ID:          m.newID(),
		AddedAt:     m.clock().UTC(),
		IsCustom:    isCustom,
		Label:       label,
	}
	m.items = append(m.items, saved)

	m.logger.Info("Added to plan",
		zap.String("id", saved.ID),
		zap.Stringer("range", saved.Range),
		zap.Int("leave_days", saved.LeaveDaysRequired),
		zap.Bool("custom", isCustom))

	return saved
}

func (m *Manager) totalLocked() int {
	total := 0
	for _, item := range m.items {
		total += item.LeaveDaysRequired
	}
	return total
}
