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

func TestArchiveBatch_SharesOneTimestamp(t *testing.T) {
	clock := testutil.NewClock()
	s := testutil.NewTestStore(t, store.WithClock(clock.Now))
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()
	clock.Advance(time.Hour)

	res, err := s.ArchiveBatch(ctx, model.KindTask, []string{h.Tasks[0].ID, h.Tasks[1].ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected)
	assert.Equal(t, 3, res.Archived[model.KindTask])
	assert.Equal(t, 1, res.Archived[model.KindNote])

	for _, task := range append(h.Tasks, h.Subtask) {
		at := archivedAt(t, s, model.KindTask, task.ID)
		require.NotNil(t, at, task.Title)
		assert.True(t, at.Equal(clock.T), task.Title)
	}

	p, err := s.GetProject(ctx, h.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Progress)
}

func TestArchiveBatch_MissingIDRollsBackAll(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)

	_, err := s.ArchiveBatch(context.Background(), model.KindTask,
		[]string{h.Tasks[1].ID, "00000000-0000-0000-0000-000000000000"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, archivedAt(t, s, model.KindTask, h.Tasks[1].ID))
}

func TestDeleteBatch(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	_, err := s.DeleteBatch(ctx, model.KindTask, []string{h.Tasks[1].ID, h.Tasks[0].ID})
	var conflict *store.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, h.Tasks[0].ID, conflict.ID)
	_, err = s.GetTask(ctx, h.Tasks[1].ID)
	require.NoError(t, err, "conflict must roll back earlier deletes")

	res, err := s.DeleteBatch(ctx, model.KindTask, []string{h.Subtask.ID, h.Tasks[0].ID, h.Tasks[1].ID})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Affected)

	tasks, err := s.GetTasks(ctx, store.TaskFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestBatch_RejectsDuplicatesAndUnknownKinds(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	_, err := s.ArchiveBatch(ctx, model.KindTask, []string{h.Tasks[0].ID, h.Tasks[0].ID})
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = s.DeleteBatch(ctx, model.Kind("tag"), []string{h.Tasks[0].ID})
	assert.ErrorIs(t, err, store.ErrValidation)

	res, err := s.ArchiveBatch(ctx, model.KindGoal, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Affected)
}

func TestExport(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	tag, err := s.CreateTag(ctx, model.Tag{Name: "gear"})
	require.NoError(t, err)
	require.NoError(t, s.SetTaskTags(ctx, h.Tasks[0].ID, []string{tag.ID}))
	_, err = s.ArchiveTaskCascade(ctx, h.Tasks[0].ID)
	require.NoError(t, err)

	active, err := s.Export(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active.LifeAreas, 1)
	assert.Len(t, active.Goals, 1)
	assert.Len(t, active.Projects, 1)
	require.Len(t, active.Tasks, 1)
	assert.Equal(t, "Long run", active.Tasks[0].Title)
	assert.Len(t, active.Notes, 3)
	assert.Len(t, active.Tags, 1)
	assert.Empty(t, active.TaskTags)
	assert.Equal(t, 7, active.ItemCount)

	all, err := s.Export(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all.Tasks, 3)
	assert.Len(t, all.Notes, 4)
	assert.Equal(t, []store.TaskTag{{TaskID: h.Tasks[0].ID, TagID: tag.ID}}, all.TaskTags)
	assert.Equal(t, 10, all.ItemCount)
}
