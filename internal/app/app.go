// Package app holds the root Bubble Tea model. It routes messages
// between the hierarchy browser, the agenda and the overlays.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/evorbrain/internal/keys"
	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/internal/ui"
	"github.com/nhle/evorbrain/internal/ui/agenda"
	"github.com/nhle/evorbrain/internal/ui/browser"
	"github.com/nhle/evorbrain/internal/ui/command"
	"github.com/nhle/evorbrain/internal/ui/detail"
	helpview "github.com/nhle/evorbrain/internal/ui/help"
	"github.com/nhle/evorbrain/internal/ui/tagmgr"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBrowser ViewState = iota
	ViewAgenda
	ViewDetail
	ViewHelp
	ViewCommand
	ViewTags
)

type statsMsg struct {
	stats *store.Stats
	err   error
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the persistence layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	// mainView is the browser or the agenda, whichever the overlays
	// return to.
	mainView    ViewState
	layout      ui.Layout
	store       store.Store
	logger      *slog.Logger
	keys        *keys.KeyMap
	browser     browser.Model
	agenda      agenda.Model
	detail      detail.Model
	helpView    helpview.Model
	commandView command.Model
	tagView     tagmgr.Model
	ready       bool
	statusMsg   string
}

// New creates a new root application model with the given store.
func New(s store.Store, logger *slog.Logger, showArchived bool) Model {
	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewBrowser,
		mainView:    ViewBrowser,
		store:       s,
		logger:      logger,
		keys:        k,
		browser:     browser.New(s, k, showArchived, 80, 24),
		agenda:      agenda.New(s, k, 80, 24),
		detail:      detail.New(s, k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		tagView:     tagmgr.New(s, k, 80, 24),
	}
}

// Init loads the hierarchy root and the agenda.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.browser.Init(),
		m.agenda.Init(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.browser.SetSize(w, h)
		m.agenda.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.tagView.SetSize(w, h)
		return m, nil

	case agenda.TasksLoadedMsg, agenda.ToggledMsg:
		var cmd tea.Cmd
		m.agenda, cmd = m.agenda.Update(msg)
		if _, ok := msg.(agenda.ToggledMsg); ok {
			return m, tea.Batch(cmd, m.browser.Refresh())
		}
		return m, cmd

	case agenda.SelectedTaskMsg:
		cmd := m.openDetail(model.KindTask, msg.TaskID)
		return m, cmd

	case browser.OpenDetailMsg:
		cmd := m.openDetail(msg.Kind, msg.ID)
		return m, cmd

	case browser.EditTagsMsg:
		m.previousView = m.currentView
		m.currentView = ViewTags
		cmd := m.tagView.AssignTo(msg.TaskID, msg.Title)
		return m, cmd

	case browser.ChangedMsg:
		return m, m.agenda.LoadTasks()

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = m.mainView
		return m, nil

	case tagmgr.TagListCloseMsg:
		m.currentView = m.mainView
		return m, nil

	case tagmgr.TagChangedMsg:
		return m, tea.Batch(m.browser.Refresh(), m.agenda.LoadTasks())

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(msg)
		return m, cmd

	case statsMsg:
		if msg.err != nil {
			m.statusMsg = "Error: " + msg.err.Error()
			return m, nil
		}
		st := msg.stats
		m.statusMsg = fmt.Sprintf("%d areas, %d goals, %d projects, %d tasks (%d overdue), %d notes, %d archived",
			st.Active[model.KindLifeArea], st.Active[model.KindGoal], st.Active[model.KindProject],
			st.Active[model.KindTask], st.OverdueTasks, st.Active[model.KindNote], st.Archived)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
		m.statusMsg = ""
		return m.updateActiveView(msg)
	}

	// The browser owns the async results of its own commands, so it sees
	// every non-key message even while an overlay is showing.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.browser, cmd = m.browser.Update(msg)
	cmds = append(cmds, cmd)
	if m.currentView != ViewBrowser {
		var next tea.Model
		next, cmd = m.updateActiveView(msg)
		m = next.(Model)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// capturing reports whether the active view is consuming raw text.
func (m Model) capturing() bool {
	switch m.currentView {
	case ViewBrowser:
		return m.browser.Capturing()
	case ViewTags:
		return m.tagView.Capturing()
	case ViewCommand:
		return true
	}
	return false
}

// handleGlobalKey processes keys that work regardless of the active
// view. It reports false when the key belongs to the view.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if m.currentView == ViewCommand && msg.String() == "esc" {
		m.currentView = m.previousView
		return nil, true
	}
	if m.capturing() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewBrowser || m.currentView == ViewAgenda {
			return tea.Quit, true
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true

	case key.Matches(msg, m.keys.SwitchView):
		switch m.currentView {
		case ViewBrowser:
			m.showMain(ViewAgenda)
			return m.agenda.LoadTasks(), true
		case ViewAgenda:
			m.showMain(ViewBrowser)
			return m.browser.Refresh(), true
		}

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
	}
	return nil, false
}

func (m *Model) showMain(v ViewState) {
	m.currentView = v
	m.mainView = v
	m.statusMsg = ""
}

func (m *Model) openDetail(kind model.Kind, id string) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewDetail
	return m.detail.Open(kind, id)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewBrowser:
		m.browser, cmd = m.browser.Update(msg)
	case ViewAgenda:
		m.agenda, cmd = m.agenda.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTags:
		m.tagView, cmd = m.tagView.Update(msg)
	}

	return m, cmd
}

// executeCommand runs a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	m.logger.Debug("command", "name", c.Name, "args", c.Args)

	switch c.Name {
	case command.Browse:
		m.showMain(ViewBrowser)
		return m.browser.Refresh()
	case command.Agenda:
		m.showMain(ViewAgenda)
		return m.agenda.LoadTasks()
	case command.Tags:
		m.previousView = m.mainView
		m.currentView = ViewTags
		return m.tagView.Manage()
	case command.Archived:
		cmd := m.browser.ToggleArchived()
		if m.browser.ShowArchived() {
			m.statusMsg = "Showing archived items"
		} else {
			m.statusMsg = "Hiding archived items"
		}
		return cmd
	case command.Refresh:
		return tea.Batch(m.browser.Refresh(), m.agenda.LoadTasks())
	case command.Stats:
		s := m.store
		return func() tea.Msg {
			st, err := s.Stats(context.Background())
			return statsMsg{stats: st, err: err}
		}
	case command.Help:
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case command.Quit:
		return tea.Quit
	}
	return nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	summary := m.agenda.Summary()
	header := m.layout.RenderHeader(m.title(len(summary)+4), summary)
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// title returns the header title, leaving reserve columns for the
// summary.
func (m Model) title(reserve int) string {
	switch m.currentView {
	case ViewAgenda:
		return "evorbrain › agenda"
	case ViewDetail:
		if e := m.detail.Current(); e != nil {
			return ui.Breadcrumb([]string{"evorbrain", e.Kind.Label(), e.Title}, m.layout.Width-reserve)
		}
	case ViewTags:
		return "evorbrain › tags"
	}
	return ui.Breadcrumb(append([]string{"evorbrain"}, m.browser.Breadcrumb()...), m.layout.Width-reserve)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewBrowser:
		return m.browser.View()
	case ViewAgenda:
		return m.agenda.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTags:
		return m.tagView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" && (m.currentView == ViewBrowser || m.currentView == ViewAgenda) {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | j/k scroll"
	case ViewTags:
		return "n new | d delete | esc back"
	case ViewAgenda:
		return "q quit | ? help | enter details | x toggle done | tab browse | : command"
	default:
		if m.browser.Capturing() {
			return "enter submit | esc cancel"
		}
		return "q quit | ? help | enter open | esc back | n new | a archive | tab agenda | : command"
	}
}
