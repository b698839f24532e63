package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mhollstein/timeledger/internal/domain"
)

type taskRequest struct {
	ProjectID   uuid.UUID `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Billable    *bool     `json:"billable,omitempty"`
	External    *bool     `json:"external,omitempty"`
}

type taskListResponse struct {
	Data []domain.Task `json:"data"`
}

// taskFromRequest applies the task defaults: billable unless stated
// otherwise, internal unless stated otherwise.
func taskFromRequest(id uuid.UUID, req taskRequest) domain.Task {
	t := domain.Task{
		ID:          id,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Billable:    true,
	}
	if req.Billable != nil {
		t.Billable = *req.Billable
	}
	if req.External != nil {
		t.External = *req.External
	}
	return t
}

// createTask handles POST /tasks.
func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeBody(r, &req); err != nil {
		writeRequestError(w, err.Error())
		return
	}
	if req.ProjectID == uuid.Nil {
		writeRequestError(w, "project_id is required")
		return
	}

	created, err := s.tasks.Create(r.Context(), taskFromRequest(uuid.Nil, req))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// getTask handles GET /tasks/{id}.
func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid task id")
		return
	}

	task, err := s.tasks.GetByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// listTasks handles GET /projects/{id}/tasks.
func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid project id")
		return
	}

	tasks, err := s.tasks.ListByProjectID(r.Context(), projectID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskListResponse{Data: tasks})
}

// updateTask handles PUT /tasks/{id}.
func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid task id")
		return
	}

	var req taskRequest
	if err := decodeBody(r, &req); err != nil {
		writeRequestError(w, err.Error())
		return
	}

	updated, err := s.tasks.Update(r.Context(), taskFromRequest(id, req))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// deleteTask handles DELETE /tasks/{id}.
func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid task id")
		return
	}

	if err := s.tasks.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
