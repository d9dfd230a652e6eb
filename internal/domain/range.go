package domain

import (
	"errors"
	"time"
)

// RangeKind identifies the time window a summary covers.
type RangeKind string

// Possible range kind values
const (
	RangeDay   RangeKind = "day"
	RangeWeek  RangeKind = "week"
	RangeMonth RangeKind = "month"
)

// ErrInvalidRangeKind is returned when a range kind is not one of day, week, or month.
var ErrInvalidRangeKind = errors.New("invalid range kind")

// ParseRangeKind converts a raw string into a RangeKind.
// Returns ErrInvalidRangeKind for anything other than "day", "week", or "month".
func ParseRangeKind(s string) (RangeKind, error) {
	switch RangeKind(s) {
	case RangeDay, RangeWeek, RangeMonth:
		return RangeKind(s), nil
	default:
		return "", ErrInvalidRangeKind
	}
}

// Validate checks that the RangeKind is one of the known values.
func (r RangeKind) Validate() error {
	_, err := ParseRangeKind(string(r))
	return err
}

// Dates returns the (since, until) window ending at now for this range kind.
// Day covers the last 24 hours, week the last 7 days, and month the last 30 days.
func (r RangeKind) Dates(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch r {
	case RangeDay:
		return now.AddDate(0, 0, -1), now
	case RangeWeek:
		return now.AddDate(0, 0, -7), now
	default:
		return now.AddDate(0, 0, -30), now
	}
}

// Label returns the human-readable description of the window, used in prompts.
func (r RangeKind) Label() string {
	switch r {
	case RangeDay:
		return "Last 24 hours"
	case RangeWeek:
		return "Last 7 days"
	default:
		return "Last 30 days"
	}
}
