package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/tests/testutil"
)

func TestProgress_FollowsTaskStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	// Three unarchived tasks: two top-level plus the subtask.
	_, err := s.UpdateTask(ctx, h.Tasks[1].ID, model.TaskUpdate{Status: ptr(model.TaskStatusCompleted)})
	require.NoError(t, err)

	project, err := s.GetProject(ctx, h.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, project.Progress)

	goal, err := s.GetGoal(ctx, h.Goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, goal.Progress)

	_, err = s.ToggleTaskComplete(ctx, h.Subtask.ID)
	require.NoError(t, err)
	project, err = s.GetProject(ctx, h.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, project.Progress)
}

func TestProgress_IgnoresArchivedRows(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	_, err := s.ToggleTaskComplete(ctx, h.Tasks[1].ID)
	require.NoError(t, err)

	// Archiving the first task and its subtask leaves one completed task.
	_, err = s.ArchiveTaskCascade(ctx, h.Tasks[0].ID)
	require.NoError(t, err)

	project, err := s.GetProject(ctx, h.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, project.Progress)

	empty, err := s.CreateProject(ctx, model.Project{GoalID: h.Goal.ID, Name: "Empty"})
	require.NoError(t, err)

	goal, err := s.GetGoal(ctx, h.Goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, goal.Progress, "average of 100 and 0")

	_, err = s.ArchiveProjectCascade(ctx, empty.ID)
	require.NoError(t, err)
	goal, err = s.GetGoal(ctx, h.Goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, goal.Progress)

	require.NoError(t, s.Restore(ctx, model.KindProject, empty.ID))
	goal, err = s.GetGoal(ctx, h.Goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, goal.Progress)
}

func TestProgress_RecalculateDirectly(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	n, err := s.BulkUpdateTaskStatus(ctx,
		[]string{h.Tasks[0].ID, h.Tasks[1].ID, h.Subtask.ID}, model.TaskStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	p, err := s.RecalculateProjectProgress(ctx, h.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, p)

	g, err := s.RecalculateGoalProgress(ctx, h.Goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, g)

	_, err = s.RecalculateGoalProgress(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
