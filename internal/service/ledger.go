// Package service contains the business logic for the time ledger API.
// Services validate inputs, enforce the ledger invariants, and orchestrate
// repo calls. No SQL lives here — services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sethvargo/go-retry"

	"github.com/mhollstein/timeledger/internal/domain"
	"github.com/mhollstein/timeledger/internal/repo"
)

// maxTxRetries bounds how often a check+write sequence is re-attempted after
// a transient store failure before it is surfaced as a conflict.
const maxTxRetries = 3

// LedgerService owns the time-entry consistency invariants:
//
//  1. at most one running entry per user,
//  2. no two entries of the same user overlap,
//  3. end_time is strictly after start_time,
//  4. duration_minutes/is_running are derived, never caller-supplied.
//
// Every check+write runs inside repo.TimeEntryRepo.InUserTx, which holds a
// per-user lock for the duration, so concurrent requests for the same user
// serialize while different users proceed in parallel. The service never
// caches entry state across calls — each operation re-reads before deciding.
type LedgerService struct {
	entries repo.TimeEntryRepo
	tasks   repo.TaskRepo
	clock   clockwork.Clock
}

// NewLedgerService constructs a LedgerService. The clock is injected so
// tests can control "now"; production callers pass clockwork.NewRealClock().
func NewLedgerService(entries repo.TimeEntryRepo, tasks repo.TaskRepo, clock clockwork.Clock) *LedgerService {
	return &LedgerService{entries: entries, tasks: tasks, clock: clock}
}

// StartInput carries the parameters for starting a running entry.
// A nil StartTime means "now" per the injected clock.
type StartInput struct {
	TaskID      uuid.UUID
	ProjectID   uuid.UUID
	Description string
	StartTime   *time.Time
}

// StopInput carries the parameters for stopping a running entry.
// A nil EndTime means "now"; a nil Description leaves it unchanged.
type StopInput struct {
	EndTime     *time.Time
	Description *string
}

// CreateInput carries the parameters for a manual/backfilled entry.
// A nil EndTime creates a running entry (same semantics as Start).
// Nil Billable/External fall back to the task's defaults.
type CreateInput struct {
	TaskID      uuid.UUID
	ProjectID   uuid.UUID
	StartTime   time.Time
	EndTime     *time.Time
	Description string
	Billable    *bool
	External    *bool
}

// EntryPatch is a partial update. Only non-nil fields are applied.
// EndTime can move a closed entry's bound but can never become null again —
// closed entries do not reopen.
type EntryPatch struct {
	StartTime   *time.Time
	EndTime     *time.Time
	Description *string
	Billable    *bool
	External    *bool
}

// Start opens a running entry for the user.
// Returns domain.ErrNotFound if the task does not exist,
// domain.ErrValidation if the task does not belong to the given project,
// domain.ErrConflict if the user already has a running entry (it is never
// auto-closed), and domain.ErrOverlap if a backdated start falls into an
// already-occupied window.
func (s *LedgerService) Start(ctx context.Context, userID uuid.UUID, in StartInput) (domain.TimeEntry, error) {
	task, err := s.lookupTask(ctx, in.TaskID, in.ProjectID)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.LedgerService.Start: %w", err)
	}

	startTime := s.clock.Now().UTC()
	if in.StartTime != nil {
		startTime = in.StartTime.UTC()
	}

	entry := domain.TimeEntry{
		UserID:      userID,
		TaskID:      task.ID,
		ProjectID:   task.ProjectID,
		Description: strings.TrimSpace(in.Description),
		StartTime:   startTime,
		Billable:    task.Billable,
		External:    task.External,
	}
	if err := entry.Interval().Validate(); err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.LedgerService.Start: %w", err)
	}
	entry.Recompute()

	created, err := s.insertChecked(ctx, entry)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.LedgerService.Start: %w", err)
	}
	return created, nil
}

// Stop closes the user's entry. Not idempotent: stopping an already-closed
// entry returns domain.ErrNotFound, as does stopping an entry the user does
// not own. Returns domain.ErrInvalidInterval when the end time is not
// strictly after the start.
func (s *LedgerService) Stop(ctx context.Context, userID, entryID uuid.UUID, in StopInput) (domain.TimeEntry, error) {
	var stopped domain.TimeEntry
	err := s.withRetry(ctx, func() error {
		return s.entries.InUserTx(ctx, userID, func(tx repo.TimeEntryRepo) error {
			entry, err := tx.GetByID(ctx, userID, entryID)
			if err != nil {
				return err
			}
			if !entry.IsRunning {
				return fmt.Errorf("%w: time entry is not running", domain.ErrNotFound)
			}

			endTime := s.clock.Now().UTC()
			if in.EndTime != nil {
				endTime = in.EndTime.UTC()
			}
			entry.EndTime = &endTime
			if err := entry.Interval().Validate(); err != nil {
				return err
			}
			if in.Description != nil {
				entry.Description = strings.TrimSpace(*in.Description)
			}
			entry.Recompute()

			stopped, err = tx.Update(ctx, entry)
			return err
		})
	})
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.LedgerService.Stop: %w", err)
	}
	return stopped, nil
}

// Create records a manual entry with both bounds known, or — when EndTime is
// nil — a running entry with Start semantics. The full overlap check runs
// against all of the user's entries before the insert.
func (s *LedgerService) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (domain.TimeEntry, error) {
	task, err := s.lookupTask(ctx, in.TaskID, in.ProjectID)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.LedgerService.Create: %w", err)
	}

	entry := domain.TimeEntry{
		UserID:      userID,
		TaskID:      task.ID,
		ProjectID:   task.ProjectID,
		Description: strings.TrimSpace(in.Description),
		StartTime:   in.StartTime.UTC(),
		Billable:    task.Billable,
		External:    task.External,
	}
	if in.EndTime != nil {
		et := in.EndTime.UTC()
		entry.EndTime = &et
	}
	if in.Billable != nil {
		entry.Billable = *in.Billable
	}
	if in.External != nil {
		entry.External = *in.External
	}
	if err := entry.Interval().Validate(); err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.LedgerService.Create: %w", err)
	}
	entry.Recompute()

	created, err := s.insertChecked(ctx, entry)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.LedgerService.Create: %w", err)
	}
	return created, nil
}

// Update applies a partial patch to an entry, re-validates the resulting
// interval, and re-runs the overlap check against all *other* entries of the
// user. Derived fields are recomputed from the patched bounds.
func (s *LedgerService) Update(ctx context.Context, userID, entryID uuid.UUID, patch EntryPatch) (domain.TimeEntry, error) {
	var updated domain.TimeEntry
	err := s.withRetry(ctx, func() error {
		return s.entries.InUserTx(ctx, userID, func(tx repo.TimeEntryRepo) error {
			entry, err := tx.GetByID(ctx, userID, entryID)
			if err != nil {
				return err
			}

			if patch.StartTime != nil {
				entry.StartTime = patch.StartTime.UTC()
			}
			if patch.EndTime != nil {
				et := patch.EndTime.UTC()
				entry.EndTime = &et
			}
			if patch.Description != nil {
				entry.Description = strings.TrimSpace(*patch.Description)
			}
			if patch.Billable != nil {
				entry.Billable = *patch.Billable
			}
			if patch.External != nil {
				entry.External = *patch.External
			}

			if err := entry.Interval().Validate(); err != nil {
				return err
			}

			others, err := tx.ListByUser(ctx, userID)
			if err != nil {
				return err
			}
			if err := findOverlap(entry.Interval(), others, entry.ID); err != nil {
				return err
			}

			entry.Recompute()
			updated, err = tx.Update(ctx, entry)
			return err
		})
	})
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.LedgerService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes an entry the user owns. Deleting an unknown or already
// deleted entry returns domain.ErrNotFound — the delete is deliberately not
// idempotent, so double-deletes are visible to the caller.
func (s *LedgerService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	if err := s.entries.Delete(ctx, userID, entryID); err != nil {
		return fmt.Errorf("service.LedgerService.Delete: %w", err)
	}
	return nil
}

// Active returns the user's running entry, or nil when no entry is open.
func (s *LedgerService) Active(ctx context.Context, userID uuid.UUID) (*domain.TimeEntry, error) {
	entry, err := s.entries.GetRunning(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.LedgerService.Active: %w", err)
	}
	return entry, nil
}

// List returns one page of the user's entries plus the total match count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *LedgerService) List(ctx context.Context, userID uuid.UUID, f domain.EntryFilter) ([]domain.TimeEntry, int64, error) {
	entries, total, err := s.entries.List(ctx, userID, f)
	if err != nil {
		return nil, 0, fmt.Errorf("service.LedgerService.List: %w", err)
	}
	if entries == nil {
		entries = []domain.TimeEntry{}
	}
	return entries, total, nil
}

// Summary aggregates the user's closed entries per calendar day.
// Always returns a non-nil slice so callers can safely range over it.
func (s *LedgerService) Summary(ctx context.Context, userID uuid.UUID, f domain.SummaryFilter) ([]domain.DaySummary, error) {
	days, err := s.entries.Summary(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("service.LedgerService.Summary: %w", err)
	}
	if days == nil {
		days = []domain.DaySummary{}
	}
	return days, nil
}

// insertChecked performs the conflict and overlap checks plus the insert as
// one atomic unit. Both checks also exist as database constraints; running
// them here first yields precise error messages and keeps the ledger correct
// on stores without native exclusion support.
func (s *LedgerService) insertChecked(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error) {
	var created domain.TimeEntry
	err := s.withRetry(ctx, func() error {
		return s.entries.InUserTx(ctx, entry.UserID, func(tx repo.TimeEntryRepo) error {
			if entry.IsRunning {
				running, err := tx.GetRunning(ctx, entry.UserID)
				if err != nil {
					return err
				}
				if running != nil {
					return fmt.Errorf("%w: another time entry is already running", domain.ErrConflict)
				}
			}

			existing, err := tx.ListByUser(ctx, entry.UserID)
			if err != nil {
				return err
			}
			if err := findOverlap(entry.Interval(), existing, uuid.Nil); err != nil {
				return err
			}

			created, err = tx.Create(ctx, entry)
			return err
		})
	})
	if err != nil {
		return domain.TimeEntry{}, err
	}
	return created, nil
}

// lookupTask verifies the task exists and belongs to the claimed project.
func (s *LedgerService) lookupTask(ctx context.Context, taskID, projectID uuid.UUID) (domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.ProjectID != projectID {
		return domain.Task{}, fmt.Errorf("%w: task does not belong to project", domain.ErrValidation)
	}
	return task, nil
}

// withRetry re-runs op a bounded number of times on transient store failures
// (serialization failures, deadlocks). Business-rule errors pass through
// untouched. Exhausted retries surface as domain.ErrConflict — the caller
// sees contention, never a raw store error.
func (s *LedgerService) withRetry(ctx context.Context, op func() error) error {
	backoff := retry.WithMaxRetries(maxTxRetries, retry.NewFibonacci(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := op(); err != nil {
			if errors.Is(err, domain.ErrTransient) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if errors.Is(err, domain.ErrTransient) {
		return fmt.Errorf("%w: store contention persisted after %d retries", domain.ErrConflict, maxTxRetries)
	}
	return err
}

// findOverlap returns domain.ErrOverlap if candidate intersects any entry in
// entries, excluding the entry with excludeID (pass uuid.Nil to compare
// against all). The scan covers only one user's entries — callers fetch them
// scoped by user id.
func findOverlap(candidate domain.Interval, entries []domain.TimeEntry, excludeID uuid.UUID) error {
	for _, other := range entries {
		if other.ID == excludeID {
			continue
		}
		if candidate.Overlaps(other.Interval()) {
			return fmt.Errorf("%w: intersects entry %s", domain.ErrOverlap, other.ID)
		}
	}
	return nil
}
