package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/tests/testutil"
)

func TestStats_CountsActiveAndArchived(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	_, err := s.ToggleTaskComplete(ctx, h.Tasks[1].ID)
	require.NoError(t, err)
	_, err = s.ArchiveTaskCascade(ctx, h.Tasks[0].ID)
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Active[model.KindLifeArea])
	assert.Equal(t, 1, st.Active[model.KindGoal])
	assert.Equal(t, 1, st.Active[model.KindProject])
	assert.Equal(t, 1, st.Active[model.KindTask])
	assert.Equal(t, 3, st.Active[model.KindNote])
	assert.Equal(t, 1, st.CompletedTasks)
	assert.Equal(t, 3, st.Archived, "task, subtask and the task's note")
}

func TestCleanup_RemovesOldArchivedLeavesFirst(t *testing.T) {
	clock := testutil.NewClock()
	s := testutil.NewTestStore(t, store.WithClock(clock.Now))
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	_, err := s.ArchiveGoalCascade(ctx, h.Goal.ID)
	require.NoError(t, err)

	clock.Advance(10 * 24 * time.Hour)
	res, err := s.Cleanup(ctx, 30, false)
	require.NoError(t, err)
	assert.Zero(t, res.Total(), "nothing is old enough yet")

	clock.Advance(30 * 24 * time.Hour)
	res, err = s.Cleanup(ctx, 30, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Deleted[model.KindNote])
	assert.Equal(t, 3, res.Deleted[model.KindTask])
	assert.Equal(t, 1, res.Deleted[model.KindProject])
	assert.Equal(t, 1, res.Deleted[model.KindGoal])
	assert.Zero(t, res.Deleted[model.KindLifeArea])

	_, err = s.GetLifeArea(ctx, h.Area.ID)
	assert.NoError(t, err)
	_, err = s.GetNote(ctx, h.Notes[0].ID)
	assert.NoError(t, err)
	_, err = s.GetGoal(ctx, h.Goal.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCleanup_KeepsArchivedParentOfActiveChild(t *testing.T) {
	clock := testutil.NewClock()
	s := testutil.NewTestStore(t, store.WithClock(clock.Now))
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	_, err := s.ArchiveProjectCascade(ctx, h.Project.ID)
	require.NoError(t, err)
	require.NoError(t, s.Restore(ctx, model.KindTask, h.Tasks[1].ID))

	clock.Advance(90 * 24 * time.Hour)
	res, err := s.Cleanup(ctx, 30, true)
	require.NoError(t, err)
	assert.True(t, res.Vacuumed)
	assert.Equal(t, 2, res.Deleted[model.KindTask])
	assert.Zero(t, res.Deleted[model.KindProject])

	_, err = s.GetProject(ctx, h.Project.ID)
	assert.NoError(t, err)
	_, err = s.GetTask(ctx, h.Tasks[1].ID)
	assert.NoError(t, err)
}

func TestCleanup_RejectsNegativeDays(t *testing.T) {
	s := testutil.NewTestStore(t)
	_, err := s.Cleanup(context.Background(), -1, false)
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestHealth_ReportsPragmas(t *testing.T) {
	s := testutil.NewTestStore(t)

	report, err := s.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Equal(t, "wal", report.JournalMode)
	assert.True(t, report.ForeignKeys)
	assert.Equal(t, 10000, report.BusyTimeoutMS)
	assert.Equal(t, 1, report.Synchronous, "NORMAL")
	assert.Equal(t, store.Migrations[len(store.Migrations)-1].Version, report.LatestMigration)
	assert.Empty(t, report.Error)
}
