package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mhollstein/timeledger/internal/domain"
	"github.com/mhollstein/timeledger/internal/repo"
)

// TaskService implements business logic for Task operations.
// It holds the projects repo because creating a task requires verifying the
// parent project exists.
type TaskService struct {
	projects repo.ProjectRepo
	tasks    repo.TaskRepo
}

// NewTaskService constructs a TaskService backed by the provided repos.
func NewTaskService(projects repo.ProjectRepo, tasks repo.TaskRepo) *TaskService {
	return &TaskService{projects: projects, tasks: tasks}
}

// Create validates the task, verifies the parent project exists, then persists.
// Returns domain.ErrValidation if input violates business rules.
// Returns domain.ErrNotFound if the parent project does not exist.
func (s *TaskService) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	if _, err := s.projects.GetByID(ctx, task.ProjectID); err != nil {
		return domain.Task{}, fmt.Errorf("service.TaskService.Create: %w", err)
	}
	if err := validateTask(task); err != nil {
		return domain.Task{}, err
	}
	result, err := s.tasks.Create(ctx, task)
	if err != nil {
		return domain.Task{}, fmt.Errorf("service.TaskService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single task by ID.
func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	result, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return domain.Task{}, fmt.Errorf("service.TaskService.GetByID: %w", err)
	}
	return result, nil
}

// ListByProjectID returns all tasks for a project ordered by title.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TaskService) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("service.TaskService.ListByProjectID: %w", err)
	}
	if tasks == nil {
		return []domain.Task{}, nil
	}
	return tasks, nil
}

// Update validates and persists changes to an existing task.
func (s *TaskService) Update(ctx context.Context, task domain.Task) (domain.Task, error) {
	if err := validateTask(task); err != nil {
		return domain.Task{}, err
	}
	result, err := s.tasks.Update(ctx, task)
	if err != nil {
		return domain.Task{}, fmt.Errorf("service.TaskService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a task by ID. Tasks that still have time entries fail with
// domain.ErrConflict (enforced by the FK constraint).
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TaskService.Delete: %w", err)
	}
	return nil
}

// validateTask enforces business rules common to Create and Update.
func validateTask(task domain.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	return nil
}
