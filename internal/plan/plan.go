// Package plan keeps the user's annual leave plan: the accepted leave
// windows, the yearly entitlement and the settings that produced them.
package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/username/leave-planner/internal/calendar"
	"github.com/username/leave-planner/internal/optimizer"
)

// SavedOpportunity is a leave window accepted into the plan
type SavedOpportunity struct {
	optimizer.Opportunity
	ID       string    `json:"id"`
	AddedAt  time.Time `json:"added_at"`
	IsCustom bool      `json:"is_custom,omitempty"`
	Label    string    `json:"label,omitempty"`
}

// Preferences are the user toggles persisted next to the plan
type Preferences struct {
	IncludeHolySpirit bool   `json:"include_holy_spirit"`
	ParentMode        bool   `json:"parent_mode"`
	FromToday         bool   `json:"from_today"`
	Language          string `json:"language,omitempty"`
}

// State is everything a Store persists
type State struct {
	Items          []SavedOpportunity           `json:"items"`
	Entitlement    int                          `json:"entitlement"`
	CustomHolidays []calendar.CustomHolidaySpec `json:"custom_holidays"`
	Preferences    Preferences                  `json:"preferences"`
	SavedAt        time.Time                    `json:"saved_at"`
}

// Status of the plan collection
type Status int

const (
	StatusEmpty Status = iota
	StatusHasItems
	StatusConflictPending
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusHasItems:
		return "has-items"
	case StatusConflictPending:
		return "conflict-pending"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

var (
	// ErrNoPendingConflict is returned by ForceAddToPlan outside the
	// conflict-pending state
	ErrNoPendingConflict = errors.New("no pending conflict")

	// ErrNoState is returned by a Store that has nothing saved yet
	ErrNoState = errors.New("no saved plan state")
)

// ConflictError reports that a candidate overlaps a window already in the plan
type ConflictError struct {
	Candidate   optimizer.Opportunity
	Conflicting SavedOpportunity
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s overlaps planned leave %s (%s)",
		e.Candidate.Range, e.Conflicting.Range, e.Conflicting.ID)
}
