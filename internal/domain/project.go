package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project groups tasks. The ledger does not interpret projects beyond
// verifying that a time entry's task belongs to the claimed project.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
