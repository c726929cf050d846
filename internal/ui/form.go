package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// FormSize clamps a content area to the size forms are drawn at.
func FormSize(width, height int) (int, int) {
	return min(max(width-4, 40), 100), max(height-4, 10)
}

// StepForm feeds msg to f. Callers inspect the returned form's State
// to learn whether it was completed or aborted.
func StepForm(f *huh.Form, msg tea.Msg) (*huh.Form, tea.Cmd) {
	mdl, cmd := f.Update(msg)
	if next, ok := mdl.(*huh.Form); ok {
		f = next
	}
	return f, cmd
}

// ConfirmForm builds a yes/cancel prompt that writes the answer to value.
func ConfirmForm(title, description, affirmative string, value *bool, width, height int) *huh.Form {
	w, h := FormSize(width, height)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative(affirmative).
				Negative("Cancel").
				Value(value),
		),
	).WithWidth(w).WithHeight(h)
}

// RenderForm pads a form for display; a nil form renders empty.
func RenderForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}
