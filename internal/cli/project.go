package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
)

func newProjectCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(e),
		newProjectListCmd(e),
		newProjectGetCmd(e),
		newProjectUpdateCmd(e),
		newProjectProgressCmd(e),
		newArchiveCmd(e, model.KindProject),
		newRestoreCmd(e, model.KindProject),
		newDeleteCmd(e, model.KindProject),
	)
	return cmd
}

func projectStatusFlag(cmd *cobra.Command) (*model.ProjectStatus, error) {
	s := stringFlag(cmd.Flags(), "status")
	if s == nil {
		return nil, nil
	}
	st, err := model.ParseProjectStatus(*s)
	if err != nil {
		return nil, usageError{err}
	}
	return &st, nil
}

func newProjectCreateCmd(e *env) *cobra.Command {
	var project model.Project
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a project under a goal",
		Example: `  evorbrain project create --goal 7ab2... --name "Training plan" --start 2025-03-01 --due 2025-09-30`,
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			var err error
			if project.StartDate, err = dateFlag(fs, "start"); err != nil {
				return err
			}
			if project.DueDate, err = dateFlag(fs, "due"); err != nil {
				return err
			}
			st, err := projectStatusFlag(cmd)
			if err != nil {
				return err
			}
			if st != nil {
				project.Status = *st
			}
			p, err := priorityFlag(fs)
			if err != nil {
				return err
			}
			if p != nil {
				project.Priority = *p
			}

			s, err := e.db()
			if err != nil {
				return err
			}
			created, err := s.CreateProject(ctxOf(cmd), project)
			if err != nil {
				return err
			}
			return e.emit(created, func(w io.Writer) { printProject(w, created) })
		},
	}
	cmd.Flags().StringVar(&project.GoalID, "goal", "", "goal id (required)")
	cmd.Flags().StringVar(&project.Name, "name", "", "name (required)")
	cmd.Flags().StringVar(&project.Description, "description", "", "description")
	cmd.Flags().String("status", "", "planning, active, on_hold, completed or cancelled (default planning)")
	cmd.Flags().String("priority", "", "low, medium, high or critical (default medium)")
	cmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	return cmd
}

func newProjectListCmd(e *env) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.ProjectFilter{
				GoalID:          stringFlag(cmd.Flags(), "goal"),
				IncludeArchived: archived || e.cfg.Display.ShowArchived,
			}
			var err error
			if filter.Status, err = projectStatusFlag(cmd); err != nil {
				return err
			}
			s, err := e.db()
			if err != nil {
				return err
			}
			projects, err := s.GetProjects(ctxOf(cmd), filter)
			if err != nil {
				return err
			}
			return e.emit(projects, func(w io.Writer) {
				rows := make([][]string, len(projects))
				dim := make([]bool, len(projects))
				for i, p := range projects {
					rows[i] = []string{
						shortID(p.ID), truncate(p.Name, 40), statusCell(string(p.Status)),
						priorityCell(p.Priority), progressCell(p.Progress), fmtDate(p.DueDate),
						archivedMark(p.ArchivedAt),
					}
					dim[i] = p.ArchivedAt != nil
				}
				printTable(w, []string{"ID", "NAME", "STATUS", "PRIORITY", "PROGRESS", "DUE", ""}, rows, dim, "projects")
			})
		},
	}
	cmd.Flags().String("goal", "", "only projects under this goal")
	cmd.Flags().String("status", "", "only projects with this status")
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived projects")
	return cmd
}

func newProjectGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a project",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			project, err := s.GetProject(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return e.emit(project, func(w io.Writer) { printProject(w, project) })
		},
	}
}

func newProjectUpdateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a project",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			upd := model.ProjectUpdate{
				Name:        stringFlag(fs, "name"),
				Description: stringFlag(fs, "description"),
			}
			var err error
			if upd.Status, err = projectStatusFlag(cmd); err != nil {
				return err
			}
			if upd.Priority, err = priorityFlag(fs); err != nil {
				return err
			}
			if upd.StartDate, err = dateFlag(fs, "start"); err != nil {
				return err
			}
			if upd.DueDate, err = dateFlag(fs, "due"); err != nil {
				return err
			}

			s, err := e.db()
			if err != nil {
				return err
			}
			project, err := s.UpdateProject(ctxOf(cmd), args[0], upd)
			if err != nil {
				return err
			}
			return e.emit(project, func(w io.Writer) { printProject(w, project) })
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("status", "", "new status")
	cmd.Flags().String("priority", "", "new priority")
	cmd.Flags().String("start", "", "new start date (YYYY-MM-DD)")
	cmd.Flags().String("due", "", "new due date (YYYY-MM-DD)")
	return cmd
}

func newProjectProgressCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <id>",
		Short: "Recalculate a project's progress from its tasks",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			pct, err := s.RecalculateProjectProgress(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return e.emit(map[string]any{"id": args[0], "progress": pct}, func(io.Writer) {
				e.done("Project %s progress: %s", shortID(args[0]), progressCell(pct))
			})
		},
	}
}

func printProject(w io.Writer, p *model.Project) {
	printFields(w, p.Name, model.KindProject, [][2]string{
		{"ID", p.ID},
		{"Goal", p.GoalID},
		{"Description", p.Description},
		{"Status", statusCell(string(p.Status))},
		{"Priority", priorityCell(p.Priority)},
		{"Progress", progressCell(p.Progress)},
		{"Start", optDate(p.StartDate)},
		{"Due", optDate(p.DueDate)},
		{"Completed", optDate(p.CompletedAt)},
		{"Archived", archivedMark(p.ArchivedAt)},
	})
}
