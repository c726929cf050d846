package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  CommandMsg
	}{
		{"agenda", CommandMsg{Name: Agenda, Args: []string{}}},
		{"  TODAY ", CommandMsg{Name: Agenda, Args: []string{}}},
		{"q", CommandMsg{Name: Quit, Args: []string{}}},
		{"areas", CommandMsg{Name: Browse, Args: []string{}}},
		{"tags extra words", CommandMsg{Name: Tags, Args: []string{"extra", "words"}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	_, err := Parse("sync")
	assert.ErrorContains(t, err, `unknown command "sync"`)

	_, err = Parse("   ")
	assert.Error(t, err)
}

func TestEnterEmitsParsedCommand(t *testing.T) {
	m := New(80, 24)
	for _, r := range "stats" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: Stats, Args: []string{}}, cmd())
	assert.Empty(t, m.input.Value())
}

func TestEnterOnUnknownShowsError(t *testing.T) {
	m := New(80, 24)
	for _, r := range "nope" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "unknown command")
	assert.Equal(t, "nope", m.input.Value())
}
