package agenda

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task    model.Task
	Overdue bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	return strings.Join([]string{string(i.Task.Status), string(i.Task.Priority)}, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering agenda rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single agenda line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(TaskItem)
	if !ok {
		return
	}
	t := it.Task

	prefix := "○"
	if t.Status == model.TaskStatusCompleted {
		prefix = "✓"
	}

	statusBadge := theme.StatusStyle(string(t.Status)).Render(strings.ReplaceAll(string(t.Status), "_", " "))
	priBadge := theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority))

	due := ""
	if t.DueDate != nil {
		if it.Overdue {
			due = theme.OverdueStyle.Render(" OVERDUE " + t.DueDate.Local().Format("Jan 02"))
		} else {
			due = theme.HelpStyle.Render(" " + t.DueDate.Local().Format("15:04"))
		}
	}

	tags := ""
	if len(t.Tags) > 0 {
		names := make([]string, 0, len(t.Tags))
		for _, tag := range t.Tags {
			names = append(names, tag.Name)
		}
		// Show at most 2 tags to avoid overflow.
		if len(names) > 2 {
			names = append(names[:2], "…")
		}
		tags = theme.HelpStyle.Render(" #" + strings.Join(names, ","))
	}

	line := fmt.Sprintf("%s %s %s %s%s%s", prefix, statusBadge, priBadge, t.Title, tags, due)
	if t.Status == model.TaskStatusCompleted {
		line = theme.DimmedStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// priorityLabel returns a short label for the given priority level.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "P1"
	case model.PriorityHigh:
		return "P2"
	case model.PriorityMedium:
		return "P3"
	case model.PriorityLow:
		return "P4"
	default:
		return "P?"
	}
}
