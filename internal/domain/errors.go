package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist, or exists but is not owned by the acting user.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, task not in project).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when the user already has a running time entry and
// tries to start another one. Starting never auto-closes the previous entry.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrOverlap is returned when a proposed interval intersects another time
// entry of the same user. Intervals are half-open, so back-to-back entries
// do not overlap. Handlers should map this to HTTP 409.
var ErrOverlap = errors.New("overlapping time entry")

// ErrInvalidInterval is returned when end_time is not strictly after
// start_time, or when patched bounds would invert an interval.
// Handlers should map this to HTTP 422.
var ErrInvalidInterval = errors.New("invalid interval")

// ErrTransient marks a retryable store-level concurrency failure
// (serialization failure, deadlock, lock timeout). The ledger retries these
// internally; callers only see ErrConflict once retries are exhausted.
var ErrTransient = errors.New("transient store error")
