package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhollstein/timeledger/internal/domain"
)

func TestTaskRepo_Create(t *testing.T) {
	projects, tasks, _ := newTestRepos(t)
	ctx := context.Background()

	project, err := projects.Create(ctx, domain.Project{Name: "Internal Tools"})
	require.NoError(t, err)

	got, err := tasks.Create(ctx, domain.Task{
		ProjectID:   project.ID,
		Title:       "code review",
		Description: "PR reviews across repos",
		Billable:    true,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, got.ID, "ID should be DB-generated UUID")
	assert.Equal(t, project.ID, got.ProjectID)
	assert.Equal(t, "code review", got.Title)
	assert.True(t, got.Billable)
	assert.False(t, got.External)
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")
}

func TestTaskRepo_GetByID_NotFound(t *testing.T) {
	_, tasks, _ := newTestRepos(t)

	_, err := tasks.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskRepo_ListByProjectID_OrderedByTitle(t *testing.T) {
	projects, tasks, _ := newTestRepos(t)
	ctx := context.Background()

	project, err := projects.Create(ctx, domain.Project{Name: "Internal Tools"})
	require.NoError(t, err)

	_, err = tasks.Create(ctx, domain.Task{ProjectID: project.ID, Title: "writing docs"})
	require.NoError(t, err)
	_, err = tasks.Create(ctx, domain.Task{ProjectID: project.ID, Title: "code review"})
	require.NoError(t, err)

	got, err := tasks.ListByProjectID(ctx, project.ID)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "code review", got[0].Title)
	assert.Equal(t, "writing docs", got[1].Title)
}

func TestTaskRepo_ListByProjectID_Empty(t *testing.T) {
	_, tasks, _ := newTestRepos(t)

	got, err := tasks.ListByProjectID(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTaskRepo_Update(t *testing.T) {
	projects, tasks, _ := newTestRepos(t)
	ctx := context.Background()

	created := mustCreateTask(t, projects, tasks)
	created.Title = "pair programming"
	created.External = true

	got, err := tasks.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, "pair programming", got.Title)
	assert.True(t, got.External)
}

func TestTaskRepo_Delete(t *testing.T) {
	projects, tasks, _ := newTestRepos(t)
	ctx := context.Background()

	created := mustCreateTask(t, projects, tasks)

	require.NoError(t, tasks.Delete(ctx, created.ID))

	_, err := tasks.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskRepo_Delete_WithEntries_Conflict(t *testing.T) {
	projects, tasks, entries := newTestRepos(t)
	ctx := context.Background()

	task := mustCreateTask(t, projects, tasks)
	_, err := entries.Create(ctx, entryFixture(uuid.New(), task, baseStart))
	require.NoError(t, err)

	// ON DELETE RESTRICT; the violating delete is last because it aborts the
	// shared transaction.
	err = tasks.Delete(ctx, task.ID)

	assert.ErrorIs(t, err, domain.ErrConflict, "tasks with entries refuse deletion")
}
