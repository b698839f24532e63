package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mhollstein/timeledger/internal/domain"
	"github.com/mhollstein/timeledger/internal/service"
)

// ---- request/response bodies -------------------------------------------------

type startEntryRequest struct {
	TaskID      uuid.UUID  `json:"task_id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	Description string     `json:"description"`
	StartTime   *time.Time `json:"start_time,omitempty"`
}

type stopEntryRequest struct {
	EndTime     *time.Time `json:"end_time,omitempty"`
	Description *string    `json:"description,omitempty"`
}

type createEntryRequest struct {
	TaskID      uuid.UUID  `json:"task_id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Description string     `json:"description"`
	Billable    *bool      `json:"billable,omitempty"`
	External    *bool      `json:"external,omitempty"`
}

type updateEntryRequest struct {
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Description *string    `json:"description,omitempty"`
	Billable    *bool      `json:"billable,omitempty"`
	External    *bool      `json:"external,omitempty"`
}

// activeEntryResponse makes the "no running entry" case explicit instead of
// answering 404 — the absence of a timer is a normal state, not an error.
type activeEntryResponse struct {
	Entry *domain.TimeEntry `json:"entry"`
}

type entryListResponse struct {
	Data       []domain.TimeEntry `json:"data"`
	Pagination paginationMeta     `json:"pagination"`
}

type paginationMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type summaryResponse struct {
	Data []domain.DaySummary `json:"data"`
}

// ---- handlers ------------------------------------------------------------------

// startTimeEntry handles POST /time-entries/start.
func (s *Server) startTimeEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req startEntryRequest
	if err := decodeBody(r, &req); err != nil {
		writeRequestError(w, err.Error())
		return
	}
	if req.TaskID == uuid.Nil || req.ProjectID == uuid.Nil {
		writeRequestError(w, "task_id and project_id are required")
		return
	}

	entry, err := s.ledger.Start(r.Context(), userID, service.StartInput{
		TaskID:      req.TaskID,
		ProjectID:   req.ProjectID,
		Description: req.Description,
		StartTime:   req.StartTime,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// stopTimeEntry handles POST /time-entries/{id}/stop.
func (s *Server) stopTimeEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	entryID, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid time entry id")
		return
	}

	// The stop body is optional: a bare POST stops the entry at "now".
	var req stopEntryRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeRequestError(w, err.Error())
		return
	}

	entry, err := s.ledger.Stop(r.Context(), userID, entryID, service.StopInput{
		EndTime:     req.EndTime,
		Description: req.Description,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// createTimeEntry handles POST /time-entries (manual/backfilled entries).
func (s *Server) createTimeEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req createEntryRequest
	if err := decodeBody(r, &req); err != nil {
		writeRequestError(w, err.Error())
		return
	}
	if req.TaskID == uuid.Nil || req.ProjectID == uuid.Nil {
		writeRequestError(w, "task_id and project_id are required")
		return
	}
	if req.StartTime.IsZero() {
		writeRequestError(w, "start_time is required")
		return
	}

	entry, err := s.ledger.Create(r.Context(), userID, service.CreateInput{
		TaskID:      req.TaskID,
		ProjectID:   req.ProjectID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
		Billable:    req.Billable,
		External:    req.External,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// updateTimeEntry handles PUT /time-entries/{id}.
func (s *Server) updateTimeEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	entryID, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid time entry id")
		return
	}

	var req updateEntryRequest
	if err := decodeBody(r, &req); err != nil {
		writeRequestError(w, err.Error())
		return
	}

	entry, err := s.ledger.Update(r.Context(), userID, entryID, service.EntryPatch{
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
		Billable:    req.Billable,
		External:    req.External,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// deleteTimeEntry handles DELETE /time-entries/{id}.
func (s *Server) deleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	entryID, err := pathID(r)
	if err != nil {
		writeRequestError(w, "invalid time entry id")
		return
	}

	if err := s.ledger.Delete(r.Context(), userID, entryID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// activeTimeEntry handles GET /time-entries/active.
func (s *Server) activeTimeEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	entry, err := s.ledger.Active(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activeEntryResponse{Entry: entry})
}

// listTimeEntries handles GET /time-entries with optional filters:
// ?task_id=, ?project_id=, ?from=, ?to= (RFC 3339), ?page=, ?limit=.
func (s *Server) listTimeEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	f, err := entryFilterFromQuery(r)
	if err != nil {
		writeRequestError(w, err.Error())
		return
	}

	entries, total, err := s.ledger.List(r.Context(), userID, f)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entryListResponse{
		Data: entries,
		Pagination: paginationMeta{
			Page:  f.Pagination.Page,
			Limit: f.Pagination.Limit,
			Total: total,
		},
	})
}

// timeEntrySummary handles GET /time-entries/summary with optional
// ?project_id=, ?from=, ?to= filters.
func (s *Server) timeEntrySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var f domain.SummaryFilter
	q := r.URL.Query()
	if v := q.Get("project_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeRequestError(w, "invalid project_id")
			return
		}
		f.ProjectID = &id
	}
	var err error
	if f.From, err = queryTime(q.Get("from")); err != nil {
		writeRequestError(w, "invalid from timestamp")
		return
	}
	if f.To, err = queryTime(q.Get("to")); err != nil {
		writeRequestError(w, "invalid to timestamp")
		return
	}

	days, err := s.ledger.Summary(r.Context(), userID, f)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Data: days})
}

// ---- request parsing helpers ---------------------------------------------------

// errEmptyBody distinguishes "no body sent" from malformed JSON so endpoints
// with optional bodies (stop) can accept bare requests.
var errEmptyBody = errors.New("request body is required")

// decodeBody decodes the JSON request body into v.
// Unknown fields are rejected so typos (e.g. "duration_minutes") fail loudly
// instead of being silently ignored.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return errors.New("malformed request body: " + err.Error())
	}
	return nil
}

// pathID parses the {id} route parameter as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// queryTime parses an optional RFC 3339 query parameter.
func queryTime(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// entryFilterFromQuery assembles the list filter from query parameters.
func entryFilterFromQuery(r *http.Request) (domain.EntryFilter, error) {
	var f domain.EntryFilter
	q := r.URL.Query()

	if v := q.Get("task_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, errors.New("invalid task_id")
		}
		f.TaskID = &id
	}
	if v := q.Get("project_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, errors.New("invalid project_id")
		}
		f.ProjectID = &id
	}
	var err error
	if f.From, err = queryTime(q.Get("from")); err != nil {
		return f, errors.New("invalid from timestamp")
	}
	if f.To, err = queryTime(q.Get("to")); err != nil {
		return f, errors.New("invalid to timestamp")
	}

	page, err := queryInt(q.Get("page"))
	if err != nil {
		return f, errors.New("invalid page")
	}
	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		return f, errors.New("invalid limit")
	}
	f.Pagination = domain.NewPaginationParams(page, limit)

	return f, nil
}
