package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
)

func newNoteCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes"},
		Short:   "Manage notes attached to life areas, goals, projects and tasks",
	}
	archive := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a note",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			res, err := s.ArchiveNote(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return e.emit(res, func(w io.Writer) { printCascade(w, res) })
		},
	}
	cmd.AddCommand(
		newNoteCreateCmd(e),
		newNoteListCmd(e),
		newNoteGetCmd(e),
		newNoteSearchCmd(e),
		newNoteUpdateCmd(e),
		archive,
		newRestoreCmd(e, model.KindNote),
		newDeleteCmd(e, model.KindNote),
	)
	return cmd
}

func newNoteCreateCmd(e *env) *cobra.Command {
	var note model.Note
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a note",
		Example: `  evorbrain note create --title "Shoe sizes" --content "EU 43" --task 88e1...`,
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			note.LifeAreaID = stringFlag(fs, "area")
			note.GoalID = stringFlag(fs, "goal")
			note.ProjectID = stringFlag(fs, "project")
			note.TaskID = stringFlag(fs, "task")

			s, err := e.db()
			if err != nil {
				return err
			}
			created, err := s.CreateNote(ctxOf(cmd), note)
			if err != nil {
				return err
			}
			return e.emit(created, func(w io.Writer) { printNote(w, created) })
		},
	}
	cmd.Flags().StringVar(&note.Title, "title", "", "title (required)")
	cmd.Flags().StringVar(&note.Content, "content", "", "body text")
	cmd.Flags().String("area", "", "attach to a life area")
	cmd.Flags().String("goal", "", "attach to a goal")
	cmd.Flags().String("project", "", "attach to a project")
	cmd.Flags().String("task", "", "attach to a task")
	return cmd
}

func newNoteListCmd(e *env) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, optionally those attached to one entity",
		Example: `  evorbrain note list
  evorbrain note list --kind goal --parent 7ab2...`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.NoteFilter{IncludeArchived: archived || e.cfg.Display.ShowArchived}
			fs := cmd.Flags()
			kind, parent := stringFlag(fs, "kind"), stringFlag(fs, "parent")
			if (kind == nil) != (parent == nil) {
				return userErrorf("--kind and --parent must be used together")
			}
			if kind != nil {
				k, err := model.ParseKind(*kind)
				if err != nil {
					return usageError{err}
				}
				filter.ParentKind, filter.ParentID = k, *parent
			}

			s, err := e.db()
			if err != nil {
				return err
			}
			notes, err := s.GetNotes(ctxOf(cmd), filter)
			if err != nil {
				return err
			}
			return e.emit(notes, func(w io.Writer) { printNotes(w, notes) })
		},
	}
	cmd.Flags().String("kind", "", "parent kind: area, goal, project or task")
	cmd.Flags().String("parent", "", "parent id")
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived notes")
	return cmd
}

func newNoteGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a note",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			note, err := s.GetNote(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return e.emit(note, func(w io.Writer) { printNote(w, note) })
		},
	}
}

func newNoteSearchCmd(e *env) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "search <text>...",
		Short: "Find notes whose title or content contains text",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			notes, err := s.SearchNotes(ctxOf(cmd), strings.Join(args, " "), archived)
			if err != nil {
				return err
			}
			return e.emit(notes, func(w io.Writer) { printNotes(w, notes) })
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived notes")
	return cmd
}

func newNoteUpdateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the title or content of a note",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upd := model.NoteUpdate{
				Title:   stringFlag(cmd.Flags(), "title"),
				Content: stringFlag(cmd.Flags(), "content"),
			}
			s, err := e.db()
			if err != nil {
				return err
			}
			note, err := s.UpdateNote(ctxOf(cmd), args[0], upd)
			if err != nil {
				return err
			}
			return e.emit(note, func(w io.Writer) { printNote(w, note) })
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("content", "", "new content")
	return cmd
}

func printNotes(w io.Writer, notes []model.Note) {
	rows := make([][]string, len(notes))
	dim := make([]bool, len(notes))
	for i, n := range notes {
		rows[i] = []string{
			shortID(n.ID), truncate(n.Title, 30), attachedTo(&n),
			truncate(strings.ReplaceAll(n.Content, "\n", " "), 40), archivedMark(n.ArchivedAt),
		}
		dim[i] = n.ArchivedAt != nil
	}
	printTable(w, []string{"ID", "TITLE", "ATTACHED TO", "CONTENT", ""}, rows, dim, "notes")
}

func printNote(w io.Writer, n *model.Note) {
	printFields(w, n.Title, model.KindNote, [][2]string{
		{"ID", n.ID},
		{"Attached to", attachedTo(n)},
		{"Updated", n.UpdatedAt.Local().Format("2006-01-02 15:04")},
		{"Archived", archivedMark(n.ArchivedAt)},
	})
	if n.Content != "" {
		fmt.Fprintf(w, "\n%s\n", n.Content)
	}
}

func attachedTo(n *model.Note) string {
	var parts []string
	for _, p := range []struct {
		kind model.Kind
		id   *string
	}{
		{model.KindLifeArea, n.LifeAreaID},
		{model.KindGoal, n.GoalID},
		{model.KindProject, n.ProjectID},
		{model.KindTask, n.TaskID},
	} {
		if p.id != nil {
			parts = append(parts, p.kind.Label()+" "+shortID(*p.id))
		}
	}
	return strings.Join(parts, ", ")
}
