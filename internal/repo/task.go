package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mhollstein/timeledger/internal/domain"
)

// TaskRepo defines the persistence operations for Tasks.
type TaskRepo interface {
	// Create inserts a new task and returns the persisted record.
	Create(ctx context.Context, task domain.Task) (domain.Task, error)

	// GetByID retrieves a single task by its UUID primary key.
	// Returns domain.ErrNotFound if no task with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Task, error)

	// ListByProjectID returns all tasks for a project ordered by title.
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error)

	// Update overwrites the mutable fields of an existing task.
	// Returns domain.ErrNotFound if no task with that ID exists.
	Update(ctx context.Context, task domain.Task) (domain.Task, error)

	// Delete removes a task by ID. Returns domain.ErrNotFound if it does not
	// exist, or domain.ErrConflict if time entries still reference it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTaskRepo is the Postgres implementation of TaskRepo.
type pgTaskRepo struct {
	db db
}

// NewTaskRepo constructs a TaskRepo backed by the provided db connection.
func NewTaskRepo(db db) TaskRepo {
	return &pgTaskRepo{db: db}
}

const taskColumns = `id, project_id, title, description, billable, external, created_at, updated_at`

func (r *pgTaskRepo) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	const q = `
		INSERT INTO tasks (project_id, title, description, billable, external)
		VALUES (@project_id, @title, @description, @billable, @external)
		RETURNING ` + taskColumns

	args := pgx.NamedArgs{
		"project_id":  task.ProjectID,
		"title":       task.Title,
		"description": task.Description,
		"billable":    task.Billable,
		"external":    task.External,
	}

	result, err := scanTask(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Task{}, fmt.Errorf("repo.TaskRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	const q = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = @id`

	result, err := scanTask(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Task{}, fmt.Errorf("repo.TaskRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTaskRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error) {
	const q = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE project_id = @project_id
		ORDER BY title ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("repo.TaskRepo.ListByProjectID: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TaskRepo.ListByProjectID: scan: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TaskRepo.ListByProjectID: rows: %w", err)
	}

	return tasks, nil
}

func (r *pgTaskRepo) Update(ctx context.Context, task domain.Task) (domain.Task, error) {
	const q = `
		UPDATE tasks
		SET title       = @title,
		    description = @description,
		    billable    = @billable,
		    external    = @external,
		    updated_at  = now()
		WHERE id = @id
		RETURNING ` + taskColumns

	args := pgx.NamedArgs{
		"id":          task.ID,
		"title":       task.Title,
		"description": task.Description,
		"billable":    task.Billable,
		"external":    task.External,
	}

	result, err := scanTask(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Task{}, fmt.Errorf("repo.TaskRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM tasks WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TaskRepo.Delete: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TaskRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanTask maps a single database row into a domain.Task.
func scanTask(s scanner) (domain.Task, error) {
	var (
		t         domain.Task
		id        pgtype.UUID
		projectID pgtype.UUID
	)

	err := s.Scan(&id, &projectID, &t.Title, &t.Description, &t.Billable, &t.External,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.ProjectID = uuid.UUID(projectID.Bytes)
	return t, nil
}
