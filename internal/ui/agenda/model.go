// Package agenda lists the open tasks that need attention now: overdue
// tasks first, then tasks due today.
package agenda

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/evorbrain/internal/keys"
	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/internal/theme"
)

// TasksLoadedMsg is sent when the agenda has been loaded from the store.
type TasksLoadedMsg struct {
	Overdue  []model.Task
	DueToday []model.Task
	Err      error
}

// SelectedTaskMsg is sent when the user opens a task's details.
type SelectedTaskMsg struct {
	TaskID string
}

// ToggledMsg reports the outcome of completing or reopening a task.
type ToggledMsg struct {
	Task *model.Task
	Err  error
}

// Model is the agenda view component.
type Model struct {
	list    list.Model
	store   store.Store
	keys    *keys.KeyMap
	overdue int
	err     error
	width   int
	height  int
}

// New creates a new agenda model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Agenda"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		store:  s,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the agenda.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// OverdueCount is the number of overdue tasks in the last load.
func (m Model) OverdueCount() int {
	return m.overdue
}

// Update handles messages for the agenda view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.overdue = len(msg.Overdue)
		return m, m.list.SetItems(items(msg.Overdue, msg.DueToday))

	case ToggledMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		return m, m.LoadTasks()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// items merges both lists. A task due earlier today is both overdue and
// due today; it is listed once, as overdue.
func items(overdue, today []model.Task) []list.Item {
	seen := make(map[string]bool, len(overdue))
	out := make([]list.Item, 0, len(overdue)+len(today))
	for _, t := range overdue {
		seen[t.ID] = true
		out = append(out, TaskItem{Task: t, Overdue: true})
	}
	for _, t := range today {
		if !seen[t.ID] {
			out = append(out, TaskItem{Task: t})
		}
	}
	return out
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(TaskItem)

	switch {
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Details):
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: item.Task.ID}
		}

	case key.Matches(msg, m.keys.ToggleComplete):
		if !ok {
			return m, nil
		}
		s, id := m.store, item.Task.ID
		return m, func() tea.Msg {
			t, err := s.ToggleTaskComplete(context.Background(), id)
			return ToggledMsg{Task: t, Err: err}
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.LoadTasks()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the agenda.
func (m Model) View() string {
	if m.err != nil {
		return theme.ErrorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Nothing due today.\n\nPress tab to browse the hierarchy.")
	}
	return m.list.View()
}

// Summary is a one-line description for the header.
func (m Model) Summary() string {
	n := len(m.list.Items())
	if m.overdue == 0 {
		return fmt.Sprintf("%d due today", n)
	}
	return strings.Join([]string{
		fmt.Sprintf("%d overdue", m.overdue),
		fmt.Sprintf("%d due today", n-m.overdue),
	}, ", ")
}

// LoadTasks returns a tea.Cmd that queries overdue and due-today tasks.
func (m Model) LoadTasks() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		overdue, err := s.GetOverdueTasks(ctx)
		if err != nil {
			return TasksLoadedMsg{Err: err}
		}
		today, err := s.GetTasksDueToday(ctx)
		if err != nil {
			return TasksLoadedMsg{Err: err}
		}
		return TasksLoadedMsg{Overdue: overdue, DueToday: today}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
