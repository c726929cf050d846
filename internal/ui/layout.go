package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/evorbrain/internal/theme"
)

// Layout splits the terminal into a one-line header, the active view and
// a one-line status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the width given to the active view.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left between the header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-2, 0)
}

// RenderHeader renders the breadcrumb title on the left and a summary,
// such as the agenda counts, flush right.
func (l Layout) RenderHeader(title, summary string) string {
	return l.bar(theme.HeaderStyle, title, summary)
}

// RenderStatusBar renders the bottom line of key hints or status text.
func (l Layout) RenderStatusBar(hints string) string {
	return l.bar(theme.StatusBarStyle, hints, "")
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// bar renders left and right segments in style and pads the gap between
// them with the style's background so the line spans the full width.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	segs := []string{style.Render(left)}
	if right != "" {
		segs = append(segs, style.Render(right))
	}
	used := 0
	for _, s := range segs {
		used += lipgloss.Width(s)
	}
	fill := lipgloss.NewStyle().
		Width(max(l.Width-used, 0)).
		Background(style.GetBackground()).
		Render("")
	segs = append(segs[:1], append([]string{fill}, segs[1:]...)...)
	return lipgloss.JoinHorizontal(lipgloss.Top, segs...)
}

const crumbSep = " › "

// Breadcrumb joins path segments and drops leading segments until the
// result fits in width, marking the cut with an ellipsis.
func Breadcrumb(parts []string, width int) string {
	for i := 0; i < len(parts); i++ {
		s := strings.Join(parts[i:], crumbSep)
		if i > 0 {
			s = "…" + crumbSep + s
		}
		if width <= 0 || lipgloss.Width(s) <= width {
			return s
		}
	}
	if len(parts) == 0 {
		return ""
	}
	last := []rune(parts[len(parts)-1])
	if width > 1 && len(last) > width {
		return string(last[:width-1]) + "…"
	}
	return string(last)
}
