package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mhollstein/timeledger/internal/domain"
	"github.com/mhollstein/timeledger/internal/repo"
)

// ProjectService implements business logic for Project operations.
type ProjectService struct {
	repo repo.ProjectRepo
}

// NewProjectService constructs a ProjectService backed by the provided ProjectRepo.
func NewProjectService(r repo.ProjectRepo) *ProjectService {
	return &ProjectService{repo: r}
}

// Create validates and persists a new project.
// Returns domain.ErrValidation if the name is empty.
func (s *ProjectService) Create(ctx context.Context, project domain.Project) (domain.Project, error) {
	if err := validateProject(project); err != nil {
		return domain.Project{}, err
	}
	result, err := s.repo.Create(ctx, project)
	if err != nil {
		return domain.Project{}, fmt.Errorf("service.ProjectService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single project by ID.
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (domain.Project, error) {
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Project{}, fmt.Errorf("service.ProjectService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all projects.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ProjectService.List: %w", err)
	}
	if projects == nil {
		return []domain.Project{}, nil
	}
	return projects, nil
}

// Update validates and updates an existing project.
func (s *ProjectService) Update(ctx context.Context, project domain.Project) (domain.Project, error) {
	if err := validateProject(project); err != nil {
		return domain.Project{}, err
	}
	result, err := s.repo.Update(ctx, project)
	if err != nil {
		return domain.Project{}, fmt.Errorf("service.ProjectService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a project by ID. Projects that still have tasks or time
// entries fail with domain.ErrConflict (enforced by FK constraints).
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.ProjectService.Delete: %w", err)
	}
	return nil
}

// validateProject enforces business rules common to Create and Update.
func validateProject(project domain.Project) error {
	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return nil
}
