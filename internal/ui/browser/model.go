// Package browser is the drill-down view over the life area → goal →
// project → task hierarchy.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

// ChangedMsg signals that entities were created, updated, archived,
// restored or deleted.
type ChangedMsg struct{}

// OpenDetailMsg asks the parent to show the detail view for an entity.
type OpenDetailMsg struct {
	Kind model.Kind
	ID   string
}

// EditTagsMsg asks the parent to open the tag picker for a task.
type EditTagsMsg struct {
	TaskID string
	Title  string
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmArchive
	modeConfirmDelete
)

type rowsLoadedMsg struct {
	level Level
	rows  []Row
	err   error
}

// doneMsg reports the outcome of a write.
type doneMsg struct {
	status string
	err    error
}

// Model is the Bubble Tea model for browsing and editing the hierarchy.
type Model struct {
	mode         mode
	store        store.Store
	keys         *keys.KeyMap
	now          func() time.Time
	path         []Level
	rows         []Row
	selected     []int // cursor per level, parallel to path
	showArchived bool
	editingID    string
	form         *huh.Form
	confirmForm  *huh.Form
	fb           *formBindings
	statusMsg    string
	width        int
	height       int
}

// New creates a browser positioned at the life area list.
func New(s store.Store, k *keys.KeyMap, showArchived bool, width, height int) Model {
	return Model{
		mode:         modeList,
		store:        s,
		keys:         k,
		now:          time.Now,
		path:         []Level{Root},
		selected:     []int{0},
		showArchived: showArchived,
		fb:           &formBindings{},
		width:        width,
		height:       height,
	}
}

// Init loads the current level.
func (m Model) Init() tea.Cmd {
	return m.Refresh()
}

// Refresh reloads the rows of the current level.
func (m Model) Refresh() tea.Cmd {
	s, lv, archived, now := m.store, m.level(), m.showArchived, m.now()
	return func() tea.Msg {
		rows, err := LoadRows(context.Background(), s, lv, archived, now)
		return rowsLoadedMsg{level: lv, rows: rows, err: err}
	}
}

// Capturing reports whether a form has keyboard focus, so the parent
// must not treat keys as global shortcuts.
func (m Model) Capturing() bool {
	return m.mode != modeList
}

// ShowArchived reports whether archived rows are listed.
func (m Model) ShowArchived() bool {
	return m.showArchived
}

// ToggleArchived flips archived visibility and reloads.
func (m *Model) ToggleArchived() tea.Cmd {
	m.showArchived = !m.showArchived
	return m.Refresh()
}

// Breadcrumb returns the labels of the drill-down path.
func (m Model) Breadcrumb() []string {
	out := make([]string, len(m.path))
	for i, lv := range m.path {
		out[i] = lv.Label
	}
	return out
}

func (m Model) level() Level {
	return m.path[len(m.path)-1]
}

func (m Model) cursor() int {
	return m.selected[len(m.selected)-1]
}

func (m *Model) setCursor(i int) {
	m.selected[len(m.selected)-1] = i
}

func (m Model) current() (Row, bool) {
	i := m.cursor()
	if i < 0 || i >= len(m.rows) {
		return Row{}, false
	}
	return m.rows[i], true
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case rowsLoadedMsg:
		// Ignore results for a level the user already left.
		if msg.level != m.level() {
			return m, nil
		}
		if msg.err != nil {
			m.statusMsg = "Error: " + msg.err.Error()
			return m, nil
		}
		m.rows = msg.rows
		if m.cursor() >= len(m.rows) {
			m.setCursor(max(len(m.rows)-1, 0))
		}
		return m, nil

	case doneMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = describeError(msg.err)
			return m, m.Refresh()
		}
		m.statusMsg = msg.status
		return m, tea.Batch(m.Refresh(), func() tea.Msg { return ChangedMsg{} })

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
	row, ok := m.current()

	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.rows) > 0 {
			m.setCursor((m.cursor() + 1) % len(m.rows))
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.rows) > 0 {
			m.setCursor((m.cursor() - 1 + len(m.rows)) % len(m.rows))
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if !ok {
			return m, nil
		}
		m.path = append(m.path, childLevel(row))
		m.selected = append(m.selected, 0)
		m.rows = nil
		m.statusMsg = ""
		return m, m.Refresh()

	case key.Matches(msg, m.keys.Back):
		if len(m.path) == 1 {
			return m, nil
		}
		m.path = m.path[:len(m.path)-1]
		m.selected = m.selected[:len(m.selected)-1]
		m.rows = nil
		m.statusMsg = ""
		return m, m.Refresh()

	case key.Matches(msg, m.keys.ShowArchived):
		cmd := m.ToggleArchived()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Refresh()

	case key.Matches(msg, m.keys.New):
		m.editingID = ""
		m.fb.reset(m.level().Kind, nil)
		return m.openForm()

	case !ok:
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		if row.Archived {
			m.statusMsg = "Restore it first to edit."
			return m, nil
		}
		m.editingID = row.ID
		m.fb.reset(row.Kind, &row)
		return m.openForm()

	case key.Matches(msg, m.keys.Details):
		return m, func() tea.Msg { return OpenDetailMsg{Kind: row.Kind, ID: row.ID} }

	case key.Matches(msg, m.keys.Tags):
		if row.Kind != model.KindTask {
			return m, nil
		}
		return m, func() tea.Msg { return EditTagsMsg{TaskID: row.ID, Title: row.Title} }

	case key.Matches(msg, m.keys.ToggleComplete):
		if row.Kind != model.KindTask || row.Archived {
			return m, nil
		}
		return m, m.toggleComplete(row)

	case key.Matches(msg, m.keys.Archive):
		if row.Archived {
			m.statusMsg = "Already archived."
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = ui.ConfirmForm(
			fmt.Sprintf("Archive %s %q?", row.Kind.Label(), row.Title),
			cascadeSummary(row.Kind),
			"Yes, archive",
			&m.fb.confirm, m.width, m.height,
		)
		m.mode = modeConfirmArchive
		return m, m.confirmForm.Init()

	case key.Matches(msg, m.keys.Restore):
		if !row.Archived {
			return m, nil
		}
		return m, m.restore(row)

	case key.Matches(msg, m.keys.Delete):
		m.fb.confirm = false
		m.confirmForm = ui.ConfirmForm(
			fmt.Sprintf("Delete %s %q permanently?", row.Kind.Label(), row.Title),
			"This cannot be undone. Items with children cannot be deleted.",
			"Yes, delete",
			&m.fb.confirm, m.width, m.height,
		)
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) openForm() (Model, tea.Cmd) {
	verb := "New"
	if m.editingID != "" {
		verb = "Edit"
	}
	kind := m.level().Kind
	w, h := ui.FormSize(m.width, m.height)
	m.form = huh.NewForm(
		huh.NewGroup(m.fb.fields(kind)...).
			Title(verb + " " + kind.Label()),
	).WithWidth(w).WithHeight(h)
	m.mode = modeForm
	return m, m.form.Init()
}

// updateActiveForm drives whichever form the current mode shows and acts
// once it completes or is aborted.
func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	var f *huh.Form
	switch m.mode {
	case modeForm:
		f = m.form
	case modeConfirmArchive, modeConfirmDelete:
		f = m.confirmForm
	}
	if f == nil {
		return m, nil
	}

	f, cmd := ui.StepForm(f, msg)
	if m.mode == modeForm {
		m.form = f
	} else {
		m.confirmForm = f
	}

	switch f.State {
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	case huh.StateCompleted:
		if m.mode == modeForm {
			return m, m.save()
		}
		row, ok := m.current()
		if !m.fb.confirm || !ok {
			m.mode = modeList
			return m, nil
		}
		if m.mode == modeConfirmArchive {
			return m, m.archive(row)
		}
		return m, m.delete(row)
	}
	return m, cmd
}

// View renders the browser.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return ui.RenderForm(m.form)
	case modeConfirmArchive, modeConfirmDelete:
		return ui.RenderForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	lv := m.level()
	title := pluralLabel(lv.Kind)
	if lv.ParentKind == model.KindTask {
		title = "Subtasks"
	}
	if m.showArchived {
		title += " (including archived)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render(fmt.Sprintf("No %s yet. Press 'n' to create one.", strings.ToLower(title))))
	}
	for i, r := range m.rows {
		label := renderRow(r)
		if i == m.cursor() {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func renderRow(r Row) string {
	var parts []string
	switch {
	case r.Kind == model.KindLifeArea:
		icon := r.Icon
		if icon == "" {
			icon = "📁"
		}
		parts = append(parts, icon+"  "+r.Title)
	case r.Kind == model.KindTask:
		box := "○"
		if r.Status == string(model.TaskStatusCompleted) {
			box = "✓"
		}
		parts = append(parts, box+" "+r.Title)
	default:
		parts = append(parts, r.Title)
	}
	if r.Status != "" {
		parts = append(parts, theme.StatusStyle(r.Status).UnsetPadding().Render(strings.ReplaceAll(r.Status, "_", " ")))
	}
	if r.Priority != "" && r.Priority != model.PriorityMedium {
		parts = append(parts, theme.PriorityStyle(r.Priority).Render(string(r.Priority)))
	}
	if r.Progress != nil {
		parts = append(parts, fmt.Sprintf("%s %d%%", theme.ProgressBar(*r.Progress, 10), *r.Progress))
	}
	if r.Due != nil {
		due := "due " + formatDate(r.Due)
		if r.Overdue {
			due = theme.OverdueStyle.Render(due)
		}
		parts = append(parts, due)
	}

	label := strings.Join(parts, "  ")
	if r.Archived {
		return theme.DimmedStyle.Render(label) + " (archived)"
	}
	return label
}

func pluralLabel(k model.Kind) string {
	switch k {
	case model.KindLifeArea:
		return "Life areas"
	case model.KindGoal:
		return "Goals"
	case model.KindProject:
		return "Projects"
	default:
		return "Tasks"
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// describeError turns store errors into a one-line status.
func describeError(err error) string {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return fmt.Sprintf("Cannot delete: %d %s item(s) still beneath it. Archive it instead.",
			conflict.Count, conflict.Dependent.Label())
	}
	return "Error: " + err.Error()
}

func (m Model) save() tea.Cmd {
	s, lv, editID, fb := m.store, m.level(), m.editingID, *m.fb
	return func() tea.Msg {
		err := save(context.Background(), s, lv, editID, fb)
		verb := "Created"
		if editID != "" {
			verb = "Saved"
		}
		return doneMsg{status: fmt.Sprintf("%s %s %q.", verb, lv.Kind.Label(), strings.TrimSpace(fb.title)), err: err}
	}
}

func (m Model) archive(r Row) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		res, err := s.ArchiveCascade(context.Background(), r.Kind, r.ID)
		if err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{status: fmt.Sprintf("Archived %q and %d item(s) beneath it.", r.Title, res.Total()-1)}
	}
}

func (m Model) restore(r Row) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.Restore(context.Background(), r.Kind, r.ID)
		return doneMsg{status: fmt.Sprintf("Restored %q. Items beneath it stay archived.", r.Title), err: err}
	}
}

func (m Model) delete(r Row) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.HardDelete(context.Background(), r.Kind, r.ID)
		return doneMsg{status: fmt.Sprintf("Deleted %q.", r.Title), err: err}
	}
}

func (m Model) toggleComplete(r Row) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		t, err := s.ToggleTaskComplete(context.Background(), r.ID)
		if err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{status: fmt.Sprintf("%q is now %s.", t.Title, strings.ReplaceAll(string(t.Status), "_", " "))}
	}
}
