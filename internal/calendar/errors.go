package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is returned when a date range ends before it starts or
	// spans more than MaxRangeDays
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidYear is returned for years outside MinYear..MaxYear
	ErrInvalidYear = errors.New("invalid year")
)

// Supported year bounds
const (
	MinYear = 1
	MaxYear = 9999
)

// MaxRangeDays bounds the ranges that are materialized day by day
const MaxRangeDays = 366

// ValidateYear returns ErrInvalidYear if the year cannot be handled
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: %d (supported %d..%d)", ErrInvalidYear, year, MinYear, MaxYear)
	}
	return nil
}

// ParseError describes a malformed custom holiday field
type ParseError struct {
	Field string // "date", "offset", "kind", "name" or "line"
	Value string
	Line  int // 1-based line in a holiday file, 0 when not read from a file
	Err   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("invalid custom holiday %s %q", e.Field, e.Value)
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
