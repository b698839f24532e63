package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryFilter narrows a time-entry listing. All fields are optional;
// the acting user scope is applied separately and is never optional.
type EntryFilter struct {
	TaskID    *uuid.UUID
	ProjectID *uuid.UUID
	// From/To filter on start_time (inclusive bounds).
	From *time.Time
	To   *time.Time

	Pagination PaginationParams
}

// SummaryFilter narrows the per-day time summary.
type SummaryFilter struct {
	ProjectID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// DaySummary aggregates a user's closed entries for one calendar day.
// Running entries are excluded until they are stopped.
type DaySummary struct {
	Date         string  `json:"date"` // "2006-01-02"
	TotalMinutes int     `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
	EntriesCount int     `json:"entries_count"`
}
