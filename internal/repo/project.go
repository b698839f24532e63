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

// ProjectRepo defines the persistence operations for Projects.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type ProjectRepo interface {
	// Create inserts a new project and returns the persisted record.
	Create(ctx context.Context, project domain.Project) (domain.Project, error)

	// GetByID retrieves a single project by its UUID primary key.
	// Returns domain.ErrNotFound if no project with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Project, error)

	// List returns all projects ordered by name ascending.
	List(ctx context.Context) ([]domain.Project, error)

	// Update overwrites the mutable fields of an existing project.
	// Returns domain.ErrNotFound if no project with that ID exists.
	Update(ctx context.Context, project domain.Project) (domain.Project, error)

	// Delete removes a project by ID. Returns domain.ErrNotFound if it does
	// not exist, or domain.ErrConflict if tasks or entries still reference it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgProjectRepo is the Postgres implementation of ProjectRepo.
type pgProjectRepo struct {
	db db
}

// NewProjectRepo constructs a ProjectRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewProjectRepo(db db) ProjectRepo {
	return &pgProjectRepo{db: db}
}

func (r *pgProjectRepo) Create(ctx context.Context, project domain.Project) (domain.Project, error) {
	const q = `
		INSERT INTO projects (name, description)
		VALUES (@name, @description)
		RETURNING id, name, description, created_at, updated_at`

	args := pgx.NamedArgs{
		"name":        project.Name,
		"description": project.Description,
	}

	result, err := scanProject(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Project{}, fmt.Errorf("repo.ProjectRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Project, error) {
	const q = `
		SELECT id, name, description, created_at, updated_at
		FROM projects
		WHERE id = @id`

	result, err := scanProject(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Project{}, fmt.Errorf("repo.ProjectRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	const q = `
		SELECT id, name, description, created_at, updated_at
		FROM projects
		ORDER BY name ASC`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.ProjectRepo.List: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ProjectRepo.List: scan: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ProjectRepo.List: rows: %w", err)
	}

	return projects, nil
}

func (r *pgProjectRepo) Update(ctx context.Context, project domain.Project) (domain.Project, error) {
	const q = `
		UPDATE projects
		SET name        = @name,
		    description = @description,
		    updated_at  = now()
		WHERE id = @id
		RETURNING id, name, description, created_at, updated_at`

	args := pgx.NamedArgs{
		"id":          project.ID,
		"name":        project.Name,
		"description": project.Description,
	}

	result, err := scanProject(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Project{}, fmt.Errorf("repo.ProjectRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM projects WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ProjectRepo.Delete: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ProjectRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanProject maps a single database row into a domain.Project.
func scanProject(s scanner) (domain.Project, error) {
	var (
		p  domain.Project
		id pgtype.UUID
	)

	err := s.Scan(&id, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Project{}, domain.ErrNotFound
		}
		return domain.Project{}, err
	}

	p.ID = uuid.UUID(id.Bytes)
	return p, nil
}
