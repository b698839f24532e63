package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhollstein/timeledger/internal/domain"
	"github.com/mhollstein/timeledger/internal/handler"
)

// mockTaskServicer is a test double for handler.TaskServicer.
// Set only the method fields your test needs.
type mockTaskServicer struct {
	create          func(ctx context.Context, task domain.Task) (domain.Task, error)
	getByID         func(ctx context.Context, id uuid.UUID) (domain.Task, error)
	listByProjectID func(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error)
	update          func(ctx context.Context, task domain.Task) (domain.Task, error)
	delete          func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTaskServicer) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	return m.create(ctx, task)
}
func (m *mockTaskServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	return m.getByID(ctx, id)
}
func (m *mockTaskServicer) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error) {
	return m.listByProjectID(ctx, projectID)
}
func (m *mockTaskServicer) Update(ctx context.Context, task domain.Task) (domain.Task, error) {
	return m.update(ctx, task)
}
func (m *mockTaskServicer) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

// compile-time check: mockTaskServicer must satisfy handler.TaskServicer.
var _ handler.TaskServicer = (*mockTaskServicer)(nil)

// ---- POST /tasks ---------------------------------------------------------------

func TestCreateTask_201_BillableDefaultsTrue(t *testing.T) {
	projectID := uuid.New()
	svc := &mockTaskServicer{
		create: func(_ context.Context, task domain.Task) (domain.Task, error) {
			assert.True(t, task.Billable, "omitted billable defaults to true")
			assert.False(t, task.External, "omitted external defaults to false")
			task.ID = uuid.New()
			return task, nil
		},
	}

	body := jsonBody(t, map[string]any{"project_id": projectID, "title": "code review"})
	req := httptest.NewRequest(http.MethodPost, "/tasks", body)
	rec := httptest.NewRecorder()

	newTestHandler(nil, nil, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateTask_201_BillableOverride(t *testing.T) {
	svc := &mockTaskServicer{
		create: func(_ context.Context, task domain.Task) (domain.Task, error) {
			assert.False(t, task.Billable)
			return task, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"project_id": uuid.New(), "title": "internal sync", "billable": false,
	})
	req := httptest.NewRequest(http.MethodPost, "/tasks", body)
	rec := httptest.NewRecorder()

	newTestHandler(nil, nil, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateTask_422_MissingProject(t *testing.T) {
	body := jsonBody(t, map[string]any{"title": "orphan"})
	req := httptest.NewRequest(http.MethodPost, "/tasks", body)
	rec := httptest.NewRecorder()

	newTestHandler(nil, nil, &mockTaskServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateTask_404_ProjectNotFound(t *testing.T) {
	svc := &mockTaskServicer{
		create: func(_ context.Context, _ domain.Task) (domain.Task, error) {
			return domain.Task{}, domain.ErrNotFound
		},
	}

	body := jsonBody(t, map[string]any{"project_id": uuid.New(), "title": "code review"})
	req := httptest.NewRequest(http.MethodPost, "/tasks", body)
	rec := httptest.NewRecorder()

	newTestHandler(nil, nil, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- GET /tasks/{id} --------------------------------------------------------------

func TestGetTask_200(t *testing.T) {
	fixture := domain.Task{ID: uuid.New(), ProjectID: uuid.New(), Title: "code review", Billable: true}
	svc := &mockTaskServicer{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Task, error) {
			assert.Equal(t, fixture.ID, id)
			return fixture, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/tasks/"+fixture.ID.String(), nil)
	rec := httptest.NewRecorder()

	newTestHandler(nil, nil, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Task
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, fixture.Title, got.Title)
}

// ---- GET /projects/{id}/tasks -------------------------------------------------------

func TestListTasks_200(t *testing.T) {
	projectID := uuid.New()
	svc := &mockTaskServicer{
		listByProjectID: func(_ context.Context, id uuid.UUID) ([]domain.Task, error) {
			assert.Equal(t, projectID, id)
			return []domain.Task{{ID: uuid.New(), ProjectID: projectID, Title: "code review"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/projects/"+projectID.String()+"/tasks", nil)
	rec := httptest.NewRecorder()

	newTestHandler(nil, nil, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Task `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 1)
}

// ---- DELETE /tasks/{id} ---------------------------------------------------------------

func TestDeleteTask_409_HasEntries(t *testing.T) {
	svc := &mockTaskServicer{
		delete: func(_ context.Context, _ uuid.UUID) error {
			return domain.ErrConflict
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/tasks/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	newTestHandler(nil, nil, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorCode(t, rec))
}
