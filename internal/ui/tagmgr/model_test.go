package tagmgr

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/evorbrain/internal/keys"
	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/tests/testutil"
)

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestManageListsTags(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"errand", "deep-work"} {
		_, err := s.CreateTag(ctx, model.Tag{Name: name})
		require.NoError(t, err)
	}

	m := New(s, keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(m.Init()())
	view := m.View()
	assert.Contains(t, view, "#errand")
	assert.Contains(t, view, "#deep-work")
	assert.NotContains(t, view, "[ ]")

	_, cmd := m.Update(press("enter"))
	assert.Nil(t, cmd, "enter does nothing outside task assignment")

	_, cmd = m.Update(press("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, TagListCloseMsg{}, cmd())
}

func TestAssignToTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	h := testutil.SeedHierarchy(t, s)
	ctx := context.Background()

	a, err := s.CreateTag(ctx, model.Tag{Name: "alpha"})
	require.NoError(t, err)
	b, err := s.CreateTag(ctx, model.Tag{Name: "beta"})
	require.NoError(t, err)
	require.NoError(t, s.SetTaskTags(ctx, h.Tasks[0].ID, []string{a.ID}))

	m := New(s, keys.DefaultKeyMap(), 80, 24)
	cmd := m.AssignTo(h.Tasks[0].ID, h.Tasks[0].Title)
	m, _ = m.Update(cmd())
	assert.True(t, m.checked[a.ID])
	assert.Contains(t, m.View(), `Tags for "Buy shoes"`)
	assert.Contains(t, m.View(), "[x]")

	// Tags are sorted by name: alpha is first. Uncheck it and check beta.
	m, _ = m.Update(press("space"))
	m, _ = m.Update(press("j"))
	m, _ = m.Update(press("space"))
	assert.False(t, m.checked[a.ID])
	assert.True(t, m.checked[b.ID])

	m, cmd = m.Update(press("enter"))
	require.NotNil(t, cmd)
	saved, ok := cmd().(assignmentSavedMsg)
	require.True(t, ok)
	require.NoError(t, saved.err)

	_, cmd = m.Update(saved)
	require.NotNil(t, cmd)

	tags, err := s.GetTagsForTask(ctx, h.Tasks[0].ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "beta", tags[0].Name)
}

func TestDeleteTagCommand(t *testing.T) {
	s := testutil.NewTestStore(t)
	tag, err := s.CreateTag(context.Background(), model.Tag{Name: "old"})
	require.NoError(t, err)

	m := New(s, keys.DefaultKeyMap(), 80, 24)
	msg := m.deleteTag(tag.ID)()
	require.NoError(t, msg.(tagDeletedMsg).err)

	m, _ = m.Update(msg)
	assert.Equal(t, "Tag deleted", m.statusMsg)

	tags, err := s.GetTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestCreateTagCommand(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := New(s, keys.DefaultKeyMap(), 80, 24)
	m.fb.name, m.fb.color = "focus", "#ff0000"

	msg := m.createTag()()
	require.NoError(t, msg.(tagSavedMsg).err)

	tags, err := s.GetTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "focus", tags[0].Name)
}
