package detail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/evorbrain/internal/keys"
	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/internal/theme"
)

const dateLayout = "2006-01-02"

// BackMsg signals the parent to navigate back to the previous view.
type BackMsg struct{}

// DetailLoadedMsg carries the loaded entity or the error that prevented
// loading it.
type DetailLoadedMsg struct {
	Entity *Entity
	Err    error
}

// Entity is a display-ready view of any hierarchy item with the notes
// attached to it.
type Entity struct {
	Kind        model.Kind
	ID          string
	Title       string
	Status      string
	Priority    model.Priority
	Progress    *int
	Description string
	Fields      [][2]string
	Tags        []model.Tag
	Notes       []model.Note
	Archived    bool
}

// Load reads one entity and its notes, including archived notes.
func Load(ctx context.Context, s store.Store, kind model.Kind, id string) (*Entity, error) {
	e := &Entity{Kind: kind, ID: id}
	switch kind {
	case model.KindLifeArea:
		a, err := s.GetLifeArea(ctx, id)
		if err != nil {
			return nil, err
		}
		e.Title = strings.TrimSpace(a.Icon + " " + a.Name)
		e.Description = a.Description
		e.Archived = a.ArchivedAt != nil
		e.Fields = [][2]string{{"Color", a.Color}, {"Created", stamp(a.CreatedAt)}}
	case model.KindGoal:
		g, err := s.GetGoal(ctx, id)
		if err != nil {
			return nil, err
		}
		e.Title, e.Description = g.Title, g.Description
		e.Status, e.Priority, e.Progress = string(g.Status), g.Priority, &g.Progress
		e.Archived = g.ArchivedAt != nil
		e.Fields = [][2]string{{"Target", date(g.TargetDate)}, {"Completed", date(g.CompletedAt)}, {"Created", stamp(g.CreatedAt)}}
	case model.KindProject:
		p, err := s.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		e.Title, e.Description = p.Name, p.Description
		e.Status, e.Priority, e.Progress = string(p.Status), p.Priority, &p.Progress
		e.Archived = p.ArchivedAt != nil
		e.Fields = [][2]string{{"Start", date(p.StartDate)}, {"Due", date(p.DueDate)}, {"Completed", date(p.CompletedAt)}, {"Created", stamp(p.CreatedAt)}}
	case model.KindTask:
		t, err := s.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		e.Title, e.Description = t.Title, t.Description
		e.Status, e.Priority, e.Tags = string(t.Status), t.Priority, t.Tags
		e.Archived = t.ArchivedAt != nil
		e.Fields = [][2]string{
			{"Due", date(t.DueDate)},
			{"Estimate", minutes(t.EstimatedMinutes)},
			{"Actual", minutes(t.ActualMinutes)},
			{"Repeats", deref(t.RecurrenceRule)},
			{"Completed", date(t.CompletedAt)},
			{"Created", stamp(t.CreatedAt)},
		}
	default:
		return nil, fmt.Errorf("%w: cannot show details of %s", store.ErrValidation, kind)
	}

	notes, err := s.GetNotes(ctx, store.NoteFilter{ParentKind: kind, ParentID: id, IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	e.Notes = notes
	return e, nil
}

// Model is the entity detail view component.
type Model struct {
	entity   *Entity
	err      error
	viewport viewport.Model
	store    store.Store
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(s store.Store, keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		store:    s,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Open marks the view as loading and returns the command that loads the
// entity.
func (m *Model) Open(kind model.Kind, id string) tea.Cmd {
	m.loading = true
	m.err = nil
	s := m.store
	return func() tea.Msg {
		e, err := Load(context.Background(), s, kind, id)
		return DetailLoadedMsg{Entity: e, Err: err}
	}
}

// Current returns the displayed entity, or nil.
func (m Model) Current() *Entity {
	return m.entity
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.entity = msg.Entity
		m.err = msg.Err
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg {
				return BackMsg{}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	centered := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return centered.Render("Loading...")
	case m.err != nil:
		return centered.Foreground(theme.ColorRed).Render(m.err.Error())
	case m.entity == nil:
		return centered.Render("Nothing selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.entity == nil {
		return ""
	}

	e := m.entity
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	if e.Archived {
		titleStyle = titleStyle.Inherit(theme.DimmedStyle)
	}
	sections = append(sections, titleStyle.Render(e.Title))

	badges := []string{theme.KindStyle(e.Kind).Render(strings.ToUpper(e.Kind.Label()))}
	if e.Status != "" {
		badges = append(badges, theme.StatusStyle(e.Status).Render(e.Status))
	}
	if e.Priority != "" {
		badges = append(badges, theme.PriorityStyle(e.Priority).Render(string(e.Priority)))
	}
	if e.Archived {
		badges = append(badges, theme.DimmedStyle.UnsetStrikethrough().Render("archived"))
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	if e.Progress != nil {
		sections = append(sections, fmt.Sprintf("%s  %s %d%%",
			metaStyle.Render("Progress:"), theme.ProgressBar(*e.Progress, 20), *e.Progress))
	}
	for _, f := range e.Fields {
		if f[1] == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("%s  %s",
			metaStyle.Render(fmt.Sprintf("%-10s", f[0]+":")), valStyle.Render(f[1])))
	}
	if len(e.Tags) > 0 {
		names := make([]string, len(e.Tags))
		for i, t := range e.Tags {
			names[i] = "#" + t.Name
		}
		sections = append(sections, fmt.Sprintf("%s  %s",
			metaStyle.Render(fmt.Sprintf("%-10s", "Tags:")), valStyle.Render(strings.Join(names, " "))))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	italic := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)

	sections = append(sections, "", separator, "", headerStyle.Render("Description"))
	if e.Description == "" {
		sections = append(sections, italic.Render("No description"))
	} else {
		sections = append(sections, e.Description)
	}

	sections = append(sections, "", separator, "",
		headerStyle.Render(fmt.Sprintf("Notes (%d)", len(e.Notes))))
	if len(e.Notes) == 0 {
		sections = append(sections, italic.Render("No notes"))
	}
	noteTitle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	for _, n := range e.Notes {
		header := noteTitle.Render(n.Title) + "  " + metaStyle.Render(stamp(n.UpdatedAt))
		body := n.Content
		if n.ArchivedAt != nil {
			header = theme.DimmedStyle.Render(n.Title) + "  " + metaStyle.Render("archived")
			body = metaStyle.Render(body)
		}
		sections = append(sections, header)
		if body != "" {
			sections = append(sections, body)
		}
		sections = append(sections, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(dateLayout)
}

func stamp(t time.Time) string {
	return t.Local().Format(dateLayout + " 15:04")
}

func minutes(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%dm", *n)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
