package domain

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End). A nil End means the
// interval is still open (a running entry) and extends to +infinity.
type Interval struct {
	Start time.Time
	End   *time.Time
}

// Validate checks that the interval bounds are well-formed.
// Returns ErrInvalidInterval when Start is zero or End is not strictly
// after Start. An open interval (nil End) is always well-formed.
func (iv Interval) Validate() error {
	if iv.Start.IsZero() {
		return fmt.Errorf("%w: start_time is required", ErrInvalidInterval)
	}
	if iv.End != nil && !iv.End.After(iv.Start) {
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalidInterval)
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect.
// [s1, e1) and [s2, e2) overlap iff s1 < e2 && s2 < e1, treating a nil end
// as +infinity. Back-to-back intervals ([a, b) and [b, c)) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	if other.End != nil && !iv.Start.Before(*other.End) {
		return false
	}
	if iv.End != nil && !other.Start.Before(*iv.End) {
		return false
	}
	return true
}

// Running reports whether the interval is still open.
func (iv Interval) Running() bool {
	return iv.End == nil
}

// DurationMinutes returns the closed interval's length in whole minutes,
// rounded down, or nil for an open interval. Never settable by callers:
// it is always derived from the bounds.
func (iv Interval) DurationMinutes() *int {
	if iv.End == nil {
		return nil
	}
	m := int(iv.End.Sub(iv.Start) / time.Minute)
	return &m
}
