package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/internal/theme"
)

const dateLayout = "2006-01-02"

var (
	labelStyle = lipgloss.NewStyle().Foreground(theme.ColorGray)
	titleStyle = lipgloss.NewStyle().Bold(true)
	emptyStyle = lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
)

// emit writes v as indented JSON in --json mode and otherwise calls human.
func (e *env) emit(v any, human func(w io.Writer)) error {
	if e.flags.jsonMode {
		return writeJSON(e.stdout, v)
	}
	human(e.stdout)
	return nil
}

// done prints a one-line confirmation.
func (e *env) done(format string, args ...any) {
	fmt.Fprintln(e.stdout, theme.SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

// optDate is fmtDate with an empty result for nil so printFields skips
// the row.
func optDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmtDate(t)
}

// printTable renders rows under headers. Archived rows are dimmed.
func printTable(w io.Writer, headers []string, rows [][]string, archived []bool, noun string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, emptyStyle.Render(fmt.Sprintf("No %s found.", noun)))
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(theme.ColorBlue)
			}
			if row >= 0 && row < len(archived) && archived[row] {
				return s.Inherit(theme.DimmedStyle)
			}
			return s
		})
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "Total: %d %s\n", len(rows), noun)
}

// printFields renders label/value pairs for a single entity.
func printFields(w io.Writer, title string, kind model.Kind, fields [][2]string) {
	fmt.Fprintln(w, theme.KindStyle(kind).Render(strings.ToUpper(kind.Label()))+" "+titleStyle.Render(title))
	printPairs(w, fields)
}

// printPairs aligns labels and skips empty values.
func printPairs(w io.Writer, fields [][2]string) {
	width := 0
	for _, f := range fields {
		if len(f[0]) > width {
			width = len(f[0])
		}
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-*s", width+1, f[0]+":")), f[1])
	}
}

func statusCell(status string) string {
	return theme.StatusStyle(status).UnsetPadding().Render(status)
}

func priorityCell(p model.Priority) string {
	return theme.PriorityStyle(p).Render(string(p))
}

func progressCell(pct int) string {
	return fmt.Sprintf("%s %3d%%", theme.ProgressBar(pct, 10), pct)
}

func printCascade(w io.Writer, r *store.CascadeResult) {
	if r.RootAlreadyArchived {
		fmt.Fprintf(w, "%s %s was already archived.\n", r.Kind.Label(), shortID(r.ID))
	}
	printArchived(w, r.Archived)
}

// printArchived summarizes per-kind archive counts.
func printArchived(w io.Writer, counts map[model.Kind]int) {
	var parts []string
	for _, k := range model.Kinds {
		if n := counts[k]; n > 0 {
			noun := k.Label()
			if n != 1 {
				noun = pluralLabel(k)
			}
			parts = append(parts, fmt.Sprintf("%d %s", n, noun))
		}
	}
	if len(parts) == 0 {
		fmt.Fprintln(w, "Nothing new to archive.")
		return
	}
	fmt.Fprintln(w, theme.SuccessStyle.Render("Archived "+strings.Join(parts, ", ")+"."))
}

func pluralLabel(k model.Kind) string {
	if k == model.KindLifeArea {
		return "life areas"
	}
	return k.Label() + "s"
}
