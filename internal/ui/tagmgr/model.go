// Package tagmgr manages the tag list and, when opened for a task, the
// set of tags on that task.
package tagmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/evorbrain/internal/keys"
	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/internal/theme"
	"github.com/nhle/evorbrain/internal/ui"
)

// TagListCloseMsg signals the parent to close the tag view.
type TagListCloseMsg struct{}

// TagChangedMsg signals that tags or a task's tag set were modified.
type TagChangedMsg struct{}

type tagMode int

const (
	modeList tagMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name    string
	color   string
	confirm bool
}

type tagsLoadedMsg struct {
	tags     []model.Tag
	assigned []model.Tag
	err      error
}

type tagSavedMsg struct{ err error }
type tagDeletedMsg struct{ err error }
type assignmentSavedMsg struct{ err error }

// Model is the Bubble Tea model for tag management.
type Model struct {
	mode        tagMode
	store       store.Store
	keys        *keys.KeyMap
	tags        []model.Tag
	selectedIdx int
	form        *huh.Form // new-tag input or delete confirmation, per mode
	fb          *formBindings
	statusMsg   string
	width       int
	height      int

	// Set while assigning tags to a task.
	taskID    string
	taskTitle string
	checked   map[string]bool
}

// New creates a new tag manager model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		store: s,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads tags from the store.
func (m Model) Init() tea.Cmd {
	return m.loadTags()
}

// Manage resets the model to plain tag management.
func (m *Model) Manage() tea.Cmd {
	m.taskID, m.taskTitle, m.checked = "", "", nil
	m.mode = modeList
	m.statusMsg = ""
	return m.loadTags()
}

// AssignTo opens the model for choosing the tags of a task.
func (m *Model) AssignTo(taskID, title string) tea.Cmd {
	m.taskID, m.taskTitle = taskID, title
	m.checked = map[string]bool{}
	m.mode = modeList
	m.statusMsg = ""
	return m.loadTags()
}

// Capturing reports whether a form has keyboard focus.
func (m Model) Capturing() bool {
	return m.mode != modeList
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tagsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.tags = msg.tags
		if m.taskID != "" {
			m.checked = make(map[string]bool, len(msg.assigned))
			for _, t := range msg.assigned {
				m.checked[t.ID] = true
			}
		}
		if m.selectedIdx >= len(m.tags) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.tags) - 1
		}
		return m, nil

	case tagSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Tag saved"
		}
		m.mode = modeList
		return m, tea.Batch(m.reloadKeepingChecks(), func() tea.Msg { return TagChangedMsg{} })

	case tagDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Tag deleted"
		}
		m.mode = modeList
		return m, tea.Batch(m.loadTags(), func() tea.Msg { return TagChangedMsg{} })

	case assignmentSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		return m, tea.Batch(
			func() tea.Msg { return TagChangedMsg{} },
			func() tea.Msg { return TagListCloseMsg{} },
		)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.mode == modeList {
		return m.handleListKey(msg)
	}
	return m.updateActiveForm(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return TagListCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.tags) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.tags)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.tags) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.tags) - 1
			}
		}
		return m, nil

	case msg.String() == " ":
		if m.taskID == "" || len(m.tags) == 0 {
			return m, nil
		}
		id := m.tags[m.selectedIdx].ID
		m.checked[id] = !m.checked[id]
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if m.taskID == "" {
			return m, nil
		}
		return m, m.saveAssignment()

	case key.Matches(msg, m.keys.New):
		m.fb.name = ""
		m.fb.color = "#6BCB77"
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(m.tags) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.form = ui.ConfirmForm(
			fmt.Sprintf("Delete tag %q?", m.tags[m.selectedIdx].Name),
			"This tag will be removed from all tasks.",
			"Yes, delete",
			&m.fb.confirm, m.width, m.height,
		)
		m.mode = modeConfirmDelete
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	w, h := ui.FormSize(m.width, m.height)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Tag name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Color").
				Placeholder("#6BCB77").
				Value(&m.fb.color),
		),
	).WithWidth(w).WithHeight(h)
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.mode == modeList {
		return m, nil
	}
	f, cmd := ui.StepForm(m.form, msg)
	m.form = f

	switch f.State {
	case huh.StateCompleted:
		if m.mode == modeForm {
			return m, m.createTag()
		}
		if m.fb.confirm && m.selectedIdx < len(m.tags) {
			return m, m.deleteTag(m.tags[m.selectedIdx].ID)
		}
		m.mode = modeList
	case huh.StateAborted:
		m.mode = modeList
	default:
		return m, cmd
	}
	return m, nil
}

// View renders the tag manager.
func (m Model) View() string {
	if m.mode == modeList {
		return m.viewList()
	}
	return ui.RenderForm(m.form)
}

func (m Model) viewList() string {
	var b strings.Builder

	title := "Tags"
	if m.taskID != "" {
		title = fmt.Sprintf("Tags for %q", m.taskTitle)
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.tags) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No tags yet. Press 'n' to create one."))
	} else {
		for i, t := range m.tags {
			label := "#" + t.Name
			if t.Color != "" {
				label = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render(label)
			}
			if m.taskID != "" {
				box := "[ ]"
				if m.checked[t.ID] {
					box = "[x]"
				}
				label = box + " " + label
			}

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	hints := "n new | d delete | esc back"
	if m.taskID != "" {
		hints = "space toggle | enter save | n new | d delete | esc cancel"
	}
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(hints))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) loadTags() tea.Cmd {
	s, taskID := m.store, m.taskID
	return func() tea.Msg {
		ctx := context.Background()
		tags, err := s.GetTags(ctx)
		if err != nil {
			return tagsLoadedMsg{err: err}
		}
		msg := tagsLoadedMsg{tags: tags}
		if taskID != "" {
			msg.assigned, msg.err = s.GetTagsForTask(ctx, taskID)
		}
		return msg
	}
}

// reloadKeepingChecks reloads the tag list without discarding
// unsaved checkbox changes.
func (m Model) reloadKeepingChecks() tea.Cmd {
	s := m.store
	var assigned []model.Tag
	for id, on := range m.checked {
		if on {
			assigned = append(assigned, model.Tag{ID: id})
		}
	}
	return func() tea.Msg {
		tags, err := s.GetTags(context.Background())
		return tagsLoadedMsg{tags: tags, assigned: assigned, err: err}
	}
}

func (m Model) createTag() tea.Cmd {
	s := m.store
	fb := *m.fb
	return func() tea.Msg {
		_, err := s.CreateTag(context.Background(), model.Tag{Name: fb.name, Color: fb.color})
		return tagSavedMsg{err: err}
	}
}

func (m Model) deleteTag(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.DeleteTag(context.Background(), id)
		return tagDeletedMsg{err: err}
	}
}

func (m Model) saveAssignment() tea.Cmd {
	s, taskID := m.store, m.taskID
	ids := make([]string, 0, len(m.tags))
	for _, t := range m.tags {
		if m.checked[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return func() tea.Msg {
		return assignmentSavedMsg{err: s.SetTaskTags(context.Background(), taskID, ids)}
	}
}
