package repo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mhollstein/timeledger/internal/domain"
)

// TimeEntryRepo defines the persistence operations for time entries.
// Every read and write is scoped by userID — the repo never lets one user's
// query touch another user's rows.
type TimeEntryRepo interface {
	// InUserTx runs fn inside a transaction that holds a per-user advisory
	// lock, serializing all ledger check+write sequences for that user.
	// Operations for different users never contend. The repo passed to fn is
	// bound to the transaction; the transaction is rolled back if fn errors.
	InUserTx(ctx context.Context, userID uuid.UUID, fn func(TimeEntryRepo) error) error

	// Create inserts a new entry and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error)

	// GetByID retrieves a single entry by its UUID, scoped to userID.
	// Returns domain.ErrNotFound if no entry with that ID belongs to the user.
	GetByID(ctx context.Context, userID, entryID uuid.UUID) (domain.TimeEntry, error)

	// GetRunning returns the user's open entry, or nil if none is running.
	GetRunning(ctx context.Context, userID uuid.UUID) (*domain.TimeEntry, error)

	// ListByUser returns all of a user's entries ordered by start_time
	// ascending. Used for the overlap check inside InUserTx.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.TimeEntry, error)

	// List returns one page of the user's entries matching the filter,
	// ordered by start_time descending, plus the total match count.
	List(ctx context.Context, userID uuid.UUID, f domain.EntryFilter) ([]domain.TimeEntry, int64, error)

	// Update overwrites the mutable fields of an entry, scoped to userID.
	// Returns domain.ErrNotFound if no entry with that ID belongs to the user.
	Update(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error)

	// Delete removes an entry by ID, scoped to userID.
	// Returns domain.ErrNotFound if no entry with that ID belongs to the user.
	Delete(ctx context.Context, userID, entryID uuid.UUID) error

	// Summary aggregates the user's closed entries per calendar day (UTC).
	Summary(ctx context.Context, userID uuid.UUID, f domain.SummaryFilter) ([]domain.DaySummary, error)
}

// pgTimeEntryRepo is the Postgres implementation of TimeEntryRepo.
type pgTimeEntryRepo struct {
	db db
}

// NewTimeEntryRepo constructs a TimeEntryRepo backed by the provided db
// connection. In production pass *pgxpool.Pool; in tests pass a pgx.Tx for
// rollback isolation.
func NewTimeEntryRepo(db db) TimeEntryRepo {
	return &pgTimeEntryRepo{db: db}
}

const entryColumns = `id, user_id, task_id, project_id, description,
	start_time, end_time, duration_minutes, billable, external,
	created_at, updated_at`

// InUserTx serializes ledger writes per user via pg_advisory_xact_lock.
// hashtext folds the user UUID into the int4 advisory keyspace; the second
// key segregates ledger locks from any other advisory-lock use of the DB.
func (r *pgTimeEntryRepo) InUserTx(ctx context.Context, userID uuid.UUID, fn func(TimeEntryRepo) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.TimeEntryRepo.InUserTx: begin: %w", mapPgError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	const lockQ = `SELECT pg_advisory_xact_lock(hashtext(@user_id::text), 42)`
	if _, err := tx.Exec(ctx, lockQ, pgx.NamedArgs{"user_id": userID}); err != nil {
		return fmt.Errorf("repo.TimeEntryRepo.InUserTx: lock: %w", mapPgError(err))
	}

	if err := fn(&pgTimeEntryRepo{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TimeEntryRepo.InUserTx: commit: %w", mapPgError(err))
	}
	return nil
}

func (r *pgTimeEntryRepo) Create(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error) {
	const q = `
		INSERT INTO time_entries
			(user_id, task_id, project_id, description, start_time, end_time,
			 duration_minutes, billable, external)
		VALUES
			(@user_id, @task_id, @project_id, @description, @start_time, @end_time,
			 @duration_minutes, @billable, @external)
		RETURNING ` + entryColumns

	args := pgx.NamedArgs{
		"user_id":          entry.UserID,
		"task_id":          entry.TaskID,
		"project_id":       entry.ProjectID,
		"description":      entry.Description,
		"start_time":       entry.StartTime,
		"end_time":         entry.EndTime, // nil becomes NULL
		"duration_minutes": entry.DurationMinutes,
		"billable":         entry.Billable,
		"external":         entry.External,
	}

	result, err := scanTimeEntry(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("repo.TimeEntryRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgTimeEntryRepo) GetByID(ctx context.Context, userID, entryID uuid.UUID) (domain.TimeEntry, error) {
	const q = `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE id = @id AND user_id = @user_id`

	result, err := scanTimeEntry(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": entryID, "user_id": userID}))
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("repo.TimeEntryRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTimeEntryRepo) GetRunning(ctx context.Context, userID uuid.UUID) (*domain.TimeEntry, error) {
	const q = `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE user_id = @user_id AND end_time IS NULL`

	result, err := scanTimeEntry(r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repo.TimeEntryRepo.GetRunning: %w", err)
	}
	return &result, nil
}

func (r *pgTimeEntryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.TimeEntry, error) {
	const q = `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE user_id = @user_id
		ORDER BY start_time ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.TimeEntryRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	entries, err := collectTimeEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.TimeEntryRepo.ListByUser: %w", err)
	}
	return entries, nil
}

// List builds the WHERE clause dynamically from the optional filter fields.
// All values go through NamedArgs — nothing is interpolated into the SQL.
func (r *pgTimeEntryRepo) List(ctx context.Context, userID uuid.UUID, f domain.EntryFilter) ([]domain.TimeEntry, int64, error) {
	where, args := entryFilterClause(userID, f)

	countQ := `SELECT count(*) FROM time_entries ` + where
	var total int64
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TimeEntryRepo.List: count: %w", err)
	}

	listQ := `
		SELECT ` + entryColumns + `
		FROM time_entries ` + where + `
		ORDER BY start_time DESC
		LIMIT @limit OFFSET @offset`
	args["limit"] = f.Pagination.Limit
	args["offset"] = f.Pagination.Offset()

	rows, err := r.db.Query(ctx, listQ, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TimeEntryRepo.List: %w", err)
	}
	defer rows.Close()

	entries, err := collectTimeEntries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TimeEntryRepo.List: %w", err)
	}
	return entries, total, nil
}

func (r *pgTimeEntryRepo) Update(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error) {
	const q = `
		UPDATE time_entries
		SET description      = @description,
		    start_time       = @start_time,
		    end_time         = @end_time,
		    duration_minutes = @duration_minutes,
		    billable         = @billable,
		    external         = @external,
		    updated_at       = now()
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + entryColumns

	args := pgx.NamedArgs{
		"id":               entry.ID,
		"user_id":          entry.UserID,
		"description":      entry.Description,
		"start_time":       entry.StartTime,
		"end_time":         entry.EndTime,
		"duration_minutes": entry.DurationMinutes,
		"billable":         entry.Billable,
		"external":         entry.External,
	}

	result, err := scanTimeEntry(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("repo.TimeEntryRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgTimeEntryRepo) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	const q = `DELETE FROM time_entries WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": entryID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.TimeEntryRepo.Delete: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TimeEntryRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// Summary groups closed entries by the UTC calendar day of their start time.
// Running entries are excluded until stopped.
func (r *pgTimeEntryRepo) Summary(ctx context.Context, userID uuid.UUID, f domain.SummaryFilter) ([]domain.DaySummary, error) {
	conds := []string{"user_id = @user_id", "end_time IS NOT NULL"}
	args := pgx.NamedArgs{"user_id": userID}
	if f.ProjectID != nil {
		conds = append(conds, "project_id = @project_id")
		args["project_id"] = *f.ProjectID
	}
	if f.From != nil {
		conds = append(conds, "start_time >= @from")
		args["from"] = *f.From
	}
	if f.To != nil {
		conds = append(conds, "start_time <= @to")
		args["to"] = *f.To
	}

	q := `
		SELECT to_char(start_time AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       coalesce(sum(duration_minutes), 0),
		       count(*)
		FROM time_entries
		WHERE ` + strings.Join(conds, " AND ") + `
		GROUP BY day
		ORDER BY day`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TimeEntryRepo.Summary: %w", err)
	}
	defer rows.Close()

	var out []domain.DaySummary
	for rows.Next() {
		var s domain.DaySummary
		if err := rows.Scan(&s.Date, &s.TotalMinutes, &s.EntriesCount); err != nil {
			return nil, fmt.Errorf("repo.TimeEntryRepo.Summary: scan: %w", err)
		}
		s.TotalHours = math.Round(float64(s.TotalMinutes)/60*100) / 100
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TimeEntryRepo.Summary: rows: %w", err)
	}
	return out, nil
}

// entryFilterClause assembles the WHERE clause shared by the count and list
// queries of List.
func entryFilterClause(userID uuid.UUID, f domain.EntryFilter) (string, pgx.NamedArgs) {
	conds := []string{"user_id = @user_id"}
	args := pgx.NamedArgs{"user_id": userID}
	if f.TaskID != nil {
		conds = append(conds, "task_id = @task_id")
		args["task_id"] = *f.TaskID
	}
	if f.ProjectID != nil {
		conds = append(conds, "project_id = @project_id")
		args["project_id"] = *f.ProjectID
	}
	if f.From != nil {
		conds = append(conds, "start_time >= @from")
		args["from"] = *f.From
	}
	if f.To != nil {
		conds = append(conds, "start_time <= @to")
		args["to"] = *f.To
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// collectTimeEntries drains rows into a slice using scanTimeEntry.
func collectTimeEntries(rows pgx.Rows) ([]domain.TimeEntry, error) {
	var entries []domain.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

// scanTimeEntry maps a single database row into a domain.TimeEntry.
// It handles the UUID and nullable end_time/duration conversions and derives
// IsRunning, so every entry leaving the repo already carries consistent
// derived fields.
func scanTimeEntry(s scanner) (domain.TimeEntry, error) {
	var (
		e         domain.TimeEntry
		id        pgtype.UUID
		userID    pgtype.UUID
		taskID    pgtype.UUID
		projectID pgtype.UUID
		endTime   pgtype.Timestamptz
		duration  pgtype.Int4
	)

	err := s.Scan(&id, &userID, &taskID, &projectID, &e.Description,
		&e.StartTime, &endTime, &duration, &e.Billable, &e.External,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TimeEntry{}, domain.ErrNotFound
		}
		return domain.TimeEntry{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.UserID = uuid.UUID(userID.Bytes)
	e.TaskID = uuid.UUID(taskID.Bytes)
	e.ProjectID = uuid.UUID(projectID.Bytes)
	if endTime.Valid {
		et := endTime.Time
		e.EndTime = &et
	}
	if duration.Valid {
		d := int(duration.Int32)
		e.DurationMinutes = &d
	}
	e.IsRunning = e.EndTime == nil

	return e, nil
}
