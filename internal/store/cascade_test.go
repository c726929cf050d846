package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/tests/testutil"
)

func archivedAt(t *testing.T, s *store.SQLiteStore, kind model.Kind, id string) *time.Time {
	t.Helper()
	ctx := context.Background()
	var (
		item model.ListItem
		err  error
	)
	switch kind {
	case model.KindLifeArea:
		item, err = s.GetLifeArea(ctx, id)
	case model.KindGoal:
		item, err = s.GetGoal(ctx, id)
	case model.KindProject:
		item, err = s.GetProject(ctx, id)
	case model.KindTask:
		item, err = s.GetTask(ctx, id)
	case model.KindNote:
		item, err = s.GetNote(ctx, id)
	}
	require.NoError(t, err)
	return item.GetArchivedAt()
}

func TestArchiveGoalCascade_ArchivesSubtreeWithOneTimestamp(t *testing.T) {
	clock := testutil.NewClock()
	s := testutil.NewTestStore(t, store.WithClock(clock.Now))
	h := testutil.SeedHierarchy(t, s)
	clock.Advance(time.Hour)

	result, err := s.ArchiveGoalCascade(context.Background(), h.Goal.ID)
	require.NoError(t, err)

	assert.False(t, result.RootAlreadyArchived)
	assert.True(t, result.ArchivedAt.Equal(clock.T))
	assert.Equal(t, 1, result.Archived[model.KindGoal])
	assert.Equal(t, 1, result.Archived[model.KindProject])
	assert.Equal(t, 3, result.Archived[model.KindTask])
	assert.Equal(t, 3, result.Archived[model.KindNote])
	assert.Equal(t, 8, result.Total())

	members := []struct {
		kind model.Kind
		id   string
	}{
		{model.KindGoal, h.Goal.ID},
		{model.KindProject, h.Project.ID},
		{model.KindTask, h.Tasks[0].ID},
		{model.KindTask, h.Tasks[1].ID},
		{model.KindTask, h.Subtask.ID},
		{model.KindNote, h.Notes[1].ID},
		{model.KindNote, h.Notes[2].ID},
		{model.KindNote, h.Notes[3].ID},
	}
	for _, m := range members {
		at := archivedAt(t, s, m.kind, m.id)
		require.NotNil(t, at, "%s %s should be archived", m.kind, m.id)
		assert.True(t, at.Equal(result.ArchivedAt), "%s %s archived at %v", m.kind, m.id, at)
	}

	assert.Nil(t, archivedAt(t, s, model.KindLifeArea, h.Area.ID), "area must stay active")
	assert.Nil(t, archivedAt(t, s, model.KindNote, h.Notes[0].ID), "area note must stay active")
}

func TestArchiveCascade_PreArchivedDescendantKeepsTimestamp(t *testing.T) {
	clock := testutil.NewClock()
	s := testutil.NewTestStore(t, store.WithClock(clock.Now))
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	clock.Advance(time.Hour)
	first, err := s.ArchiveTaskCascade(ctx, h.Tasks[1].ID)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	second, err := s.ArchiveLifeAreaCascade(ctx, h.Area.ID)
	require.NoError(t, err)
	require.False(t, first.ArchivedAt.Equal(second.ArchivedAt))

	at := archivedAt(t, s, model.KindTask, h.Tasks[1].ID)
	require.NotNil(t, at)
	assert.True(t, at.Equal(first.ArchivedAt))

	at = archivedAt(t, s, model.KindTask, h.Subtask.ID)
	require.NotNil(t, at)
	assert.True(t, at.Equal(second.ArchivedAt))

	assert.Equal(t, 2, second.Archived[model.KindTask], "only previously active tasks are counted")
}

func TestArchiveCascade_AlreadyArchivedRootStillVisitsDescendants(t *testing.T) {
	clock := testutil.NewClock()
	s := testutil.NewTestStore(t, store.WithClock(clock.Now))
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	first, err := s.ArchiveProjectCascade(ctx, h.Project.ID)
	require.NoError(t, err)
	require.NoError(t, s.Restore(ctx, model.KindTask, h.Tasks[0].ID))

	clock.Advance(time.Minute)
	again, err := s.ArchiveProjectCascade(ctx, h.Project.ID)
	require.NoError(t, err)

	assert.True(t, again.RootAlreadyArchived)
	assert.Equal(t, 1, again.Archived[model.KindTask])
	at := archivedAt(t, s, model.KindProject, h.Project.ID)
	require.NotNil(t, at)
	assert.True(t, at.Equal(first.ArchivedAt), "root keeps its original timestamp")
}

func TestArchiveCascade_MissingRootLeavesDatabaseUnchanged(t *testing.T) {
	s := testutil.NewTestStore(t)
	testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	before, err := s.Stats(ctx)
	require.NoError(t, err)

	_, err = s.ArchiveGoalCascade(ctx, "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, model.KindGoal, nf.Kind)

	after, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRestore_DoesNotCascade(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	_, err := s.ArchiveGoalCascade(ctx, h.Goal.ID)
	require.NoError(t, err)
	require.NoError(t, s.Restore(ctx, model.KindGoal, h.Goal.ID))

	assert.Nil(t, archivedAt(t, s, model.KindGoal, h.Goal.ID))
	assert.NotNil(t, archivedAt(t, s, model.KindProject, h.Project.ID))
	assert.NotNil(t, archivedAt(t, s, model.KindTask, h.Tasks[0].ID))
	assert.NotNil(t, archivedAt(t, s, model.KindNote, h.Notes[1].ID))
}

func TestRestore_ActiveRowIsNoOpAndMissingRowIsNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	require.NoError(t, s.Restore(ctx, model.KindProject, h.Project.ID))
	assert.Nil(t, archivedAt(t, s, model.KindProject, h.Project.ID))

	err := s.Restore(ctx, model.KindProject, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHardDelete_BlockedByChildren(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, model.Project{GoalID: h.Goal.ID, Name: "Nutrition"})
	require.NoError(t, err)

	err = s.DeleteGoal(ctx, h.Goal.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConflict)

	var conflict *store.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, model.KindProject, conflict.Dependent)
	assert.Equal(t, 2, conflict.Count)
	assert.Contains(t, err.Error(), "2 projects still associated")

	_, err = s.GetGoal(ctx, h.Goal.ID)
	assert.NoError(t, err, "goal must survive a blocked delete")
}

func TestHardDelete_ArchivedChildrenStillBlock(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	_, err := s.ArchiveTaskCascade(ctx, h.Tasks[0].ID)
	require.NoError(t, err)

	err = s.DeleteTask(ctx, h.Tasks[0].ID)
	var conflict *store.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, model.KindTask, conflict.Dependent)
	assert.Equal(t, 1, conflict.Count)
}

func TestHardDelete_RemovesAttachedNotes(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	require.NoError(t, s.DeleteTask(ctx, h.Subtask.ID))
	_, err := s.GetTask(ctx, h.Subtask.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeleteTask(ctx, h.Tasks[0].ID))
	_, err = s.GetNote(ctx, h.Notes[3].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.DeleteTask(ctx, h.Tasks[0].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestArchiveCascade_ManyTasksSpanInClauseChunks(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	for i := 0; i < 520; i++ {
		_, err := s.CreateTask(ctx, model.Task{ProjectID: &h.Project.ID, Title: "bulk"})
		require.NoError(t, err)
	}

	result, err := s.ArchiveProjectCascade(ctx, h.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, 523, result.Archived[model.KindTask])

	active, err := s.GetTasks(ctx, store.TaskFilter{ProjectID: &h.Project.ID})
	require.NoError(t, err)
	assert.Empty(t, active)
}

// failOn installs a trigger that aborts any statement matching event.
func failOn(t *testing.T, s *store.SQLiteStore, name, event string) {
	t.Helper()
	_, err := s.DB().Exec("CREATE TRIGGER " + name + " " + event +
		" BEGIN SELECT RAISE(ABORT, 'boom'); END")
	require.NoError(t, err)
}

func TestArchiveCascade_FailureAfterRootRollsBack(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	failOn(t, s, "no_note_archive", "BEFORE UPDATE ON notes")

	_, err := s.ArchiveGoalCascade(context.Background(), h.Goal.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrDatabase)

	assert.Nil(t, archivedAt(t, s, model.KindGoal, h.Goal.ID))
	assert.Nil(t, archivedAt(t, s, model.KindProject, h.Project.ID))
	for _, task := range append(h.Tasks, h.Subtask) {
		assert.Nil(t, archivedAt(t, s, model.KindTask, task.ID), task.Title)
	}
}

func TestProgressFailureRollsBackTheChange(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()
	failOn(t, s, "no_progress", "BEFORE UPDATE OF progress ON projects")

	_, err := s.ArchiveTaskCascade(ctx, h.Tasks[1].ID)
	require.Error(t, err)
	assert.Nil(t, archivedAt(t, s, model.KindTask, h.Tasks[1].ID))

	_, err = s.ToggleTaskComplete(ctx, h.Tasks[1].ID)
	require.Error(t, err)
	task, err := s.GetTask(ctx, h.Tasks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusTodo, task.Status)

	_, err = s.BulkUpdateTaskStatus(ctx, []string{h.Tasks[1].ID}, model.TaskStatusCompleted)
	require.Error(t, err)

	_, err = s.CreateTask(ctx, model.Task{ProjectID: &h.Project.ID, Title: "Stretch"})
	require.Error(t, err)
	tasks, err := s.GetTasks(ctx, store.TaskFilter{ProjectID: &h.Project.ID})
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestRestoreAndDeleteFailuresRollBack(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	_, err := s.ArchiveTaskCascade(ctx, h.Tasks[1].ID)
	require.NoError(t, err)
	failOn(t, s, "no_progress", "BEFORE UPDATE OF progress ON projects")

	require.Error(t, s.Restore(ctx, model.KindTask, h.Tasks[1].ID))
	assert.NotNil(t, archivedAt(t, s, model.KindTask, h.Tasks[1].ID))

	require.Error(t, s.HardDelete(ctx, model.KindTask, h.Tasks[1].ID))
	_, err = s.GetTask(ctx, h.Tasks[1].ID)
	assert.NoError(t, err)
}
