// Package handler implements the HTTP handlers for the time ledger API.
// All handlers are methods on Server. Methods are split into resource
// files (timeentry.go, project.go, task.go) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mhollstein/timeledger/internal/domain"
	"github.com/mhollstein/timeledger/internal/middleware"
	"github.com/mhollstein/timeledger/internal/service"
)

// LedgerServicer defines the ledger operations the time-entry handlers
// depend on. Defining the interface here (in the consumer package) follows
// the Go convention: "accept interfaces, return concrete types". It lets
// handler tests inject a mock without touching the database or service layer.
type LedgerServicer interface {
	Start(ctx context.Context, userID uuid.UUID, in service.StartInput) (domain.TimeEntry, error)
	Stop(ctx context.Context, userID, entryID uuid.UUID, in service.StopInput) (domain.TimeEntry, error)
	Create(ctx context.Context, userID uuid.UUID, in service.CreateInput) (domain.TimeEntry, error)
	Update(ctx context.Context, userID, entryID uuid.UUID, patch service.EntryPatch) (domain.TimeEntry, error)
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
	Active(ctx context.Context, userID uuid.UUID) (*domain.TimeEntry, error)
	List(ctx context.Context, userID uuid.UUID, f domain.EntryFilter) ([]domain.TimeEntry, int64, error)
	Summary(ctx context.Context, userID uuid.UUID, f domain.SummaryFilter) ([]domain.DaySummary, error)
}

// ProjectServicer defines the project operations the handlers depend on.
type ProjectServicer interface {
	Create(ctx context.Context, project domain.Project) (domain.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, project domain.Project) (domain.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskServicer defines the task operations the handlers depend on.
type TaskServicer interface {
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Task, error)
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error)
	Update(ctx context.Context, task domain.Task) (domain.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	ledger   LedgerServicer
	projects ProjectServicer
	tasks    TaskServicer
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(ledger LedgerServicer, projects ProjectServicer, tasks TaskServicer, log *slog.Logger) *Server {
	return &Server{ledger: ledger, projects: projects, tasks: tasks, log: log}
}

// Routes registers all authenticated API routes on r.
// The health and openapi endpoints are wired separately in main so they
// stay reachable without a token.
func (s *Server) Routes(r chi.Router) {
	r.Post("/time-entries/start", s.startTimeEntry)
	r.Post("/time-entries", s.createTimeEntry)
	r.Get("/time-entries", s.listTimeEntries)
	r.Get("/time-entries/active", s.activeTimeEntry)
	r.Get("/time-entries/summary", s.timeEntrySummary)
	r.Post("/time-entries/{id}/stop", s.stopTimeEntry)
	r.Put("/time-entries/{id}", s.updateTimeEntry)
	r.Delete("/time-entries/{id}", s.deleteTimeEntry)

	r.Post("/projects", s.createProject)
	r.Get("/projects", s.listProjects)
	r.Get("/projects/{id}", s.getProject)
	r.Put("/projects/{id}", s.updateProject)
	r.Delete("/projects/{id}", s.deleteProject)
	r.Get("/projects/{id}/tasks", s.listTasks)

	r.Post("/tasks", s.createTask)
	r.Get("/tasks/{id}", s.getTask)
	r.Put("/tasks/{id}", s.updateTask)
	r.Delete("/tasks/{id}", s.deleteTask)
}

// userID extracts the acting user set by the auth middleware.
// A missing user means a route was wired outside the auth group — a
// programming error, reported as 500 rather than 401.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		s.internalError(w, r, errMissingUser)
		return uuid.Nil, false
	}
	return id, true
}
