// Package domain contains the core data types for the time ledger.
// This package has zero external dependencies beyond uuid and is imported
// by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry is a single tracked work interval belonging to one user.
// An entry with a nil EndTime is "running"; at most one entry per user may
// be running at any instant, and no two entries of the same user may overlap.
type TimeEntry struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	TaskID      uuid.UUID  `json:"task_id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	Description string     `json:"description,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"` // nil while the entry is running

	// DurationMinutes and IsRunning are derived from the bounds on every
	// write. They are never taken from caller input.
	DurationMinutes *int `json:"duration_minutes"`
	IsRunning       bool `json:"is_running"`

	Billable  bool      `json:"billable"`
	External  bool      `json:"external"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interval returns the entry's half-open time range.
func (e TimeEntry) Interval() Interval {
	return Interval{Start: e.StartTime, End: e.EndTime}
}

// Recompute refreshes the derived fields from the interval bounds.
// Call it after any change to StartTime or EndTime.
func (e *TimeEntry) Recompute() {
	iv := e.Interval()
	e.DurationMinutes = iv.DurationMinutes()
	e.IsRunning = iv.Running()
}
