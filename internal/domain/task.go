package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work inside a project that time entries attach to.
// Billable and External are defaults copied onto new entries for the task;
// the ledger carries but does not interpret them.
type Task struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Billable    bool      `json:"billable"`
	External    bool      `json:"external"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
