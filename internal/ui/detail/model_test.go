package detail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/evorbrain/internal/keys"
	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/tests/testutil"
)

func TestLoadGoalWithNotes(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)

	e, err := Load(context.Background(), s, model.KindGoal, h.Goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Run a marathon", e.Title)
	assert.Equal(t, "active", e.Status)
	require.NotNil(t, e.Progress)
	require.Len(t, e.Notes, 1)
	assert.Equal(t, "Race options", e.Notes[0].Title)
}

func TestLoadTaskIncludesTagsAndArchivedNotes(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	tag, err := s.CreateTag(ctx, model.Tag{Name: "errand"})
	require.NoError(t, err)
	require.NoError(t, s.SetTaskTags(ctx, h.Tasks[0].ID, []string{tag.ID}))
	_, err = s.ArchiveNote(ctx, h.Notes[3].ID)
	require.NoError(t, err)

	e, err := Load(ctx, s, model.KindTask, h.Tasks[0].ID)
	require.NoError(t, err)
	require.Len(t, e.Tags, 1)
	assert.Equal(t, "errand", e.Tags[0].Name)
	require.Len(t, e.Notes, 1)
	assert.NotNil(t, e.Notes[0].ArchivedAt)
}

func TestLoadErrors(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := Load(context.Background(), s, model.KindProject, "8c0f2a57-2f0d-4a4b-9d55-5f0c1d0b3e21")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = Load(context.Background(), s, model.KindNote, "x")
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestViewRendersLoadedEntity(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)

	m := New(s, keys.DefaultKeyMap(), 100, 40)
	cmd := m.Open(model.KindProject, h.Project.ID)
	assert.Contains(t, m.View(), "Loading")

	m, _ = m.Update(cmd())
	view := m.View()
	assert.Contains(t, view, "Training plan")
	assert.Contains(t, view, "Notes (1)")
	assert.Contains(t, view, "Schedule")
	require.NotNil(t, m.Current())
	assert.Equal(t, h.Project.ID, m.Current().ID)
}
