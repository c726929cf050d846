package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
)

func newGoalCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "goal",
		Aliases: []string{"goals"},
		Short:   "Manage goals",
	}
	cmd.AddCommand(
		newGoalCreateCmd(e),
		newGoalListCmd(e),
		newGoalGetCmd(e),
		newGoalUpdateCmd(e),
		newGoalProgressCmd(e),
		newArchiveCmd(e, model.KindGoal),
		newRestoreCmd(e, model.KindGoal),
		newDeleteCmd(e, model.KindGoal),
	)
	return cmd
}

func goalStatusFlag(cmd *cobra.Command) (*model.GoalStatus, error) {
	s := stringFlag(cmd.Flags(), "status")
	if s == nil {
		return nil, nil
	}
	st, err := model.ParseGoalStatus(*s)
	if err != nil {
		return nil, usageError{err}
	}
	return &st, nil
}

func newGoalCreateCmd(e *env) *cobra.Command {
	var goal model.Goal
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a goal under a life area",
		Example: `  evorbrain goal create --area 1f0c... --title "Run a marathon" --target 2025-10-01`,
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if goal.TargetDate, err = dateFlag(cmd.Flags(), "target"); err != nil {
				return err
			}
			if st, err := goalStatusFlag(cmd); err != nil {
				return err
			} else if st != nil {
				goal.Status = *st
			}
			if p, err := priorityFlag(cmd.Flags()); err != nil {
				return err
			} else if p != nil {
				goal.Priority = *p
			}

			s, err := e.db()
			if err != nil {
				return err
			}
			created, err := s.CreateGoal(ctxOf(cmd), goal)
			if err != nil {
				return err
			}
			return e.emit(created, func(w io.Writer) { printGoal(w, created) })
		},
	}
	cmd.Flags().StringVar(&goal.LifeAreaID, "area", "", "life area id (required)")
	cmd.Flags().StringVar(&goal.Title, "title", "", "title (required)")
	cmd.Flags().StringVar(&goal.Description, "description", "", "description")
	cmd.Flags().String("status", "", "active, paused, completed or cancelled (default active)")
	cmd.Flags().String("priority", "", "low, medium, high or critical (default medium)")
	cmd.Flags().String("target", "", "target date (YYYY-MM-DD)")
	return cmd
}

func newGoalListCmd(e *env) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List goals",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.GoalFilter{
				LifeAreaID:      stringFlag(cmd.Flags(), "area"),
				IncludeArchived: archived || e.cfg.Display.ShowArchived,
			}
			var err error
			if filter.Status, err = goalStatusFlag(cmd); err != nil {
				return err
			}
			s, err := e.db()
			if err != nil {
				return err
			}
			goals, err := s.GetGoals(ctxOf(cmd), filter)
			if err != nil {
				return err
			}
			return e.emit(goals, func(w io.Writer) {
				rows := make([][]string, len(goals))
				dim := make([]bool, len(goals))
				for i, g := range goals {
					rows[i] = []string{
						shortID(g.ID), truncate(g.Title, 40), statusCell(string(g.Status)),
						priorityCell(g.Priority), progressCell(g.Progress), fmtDate(g.TargetDate),
						archivedMark(g.ArchivedAt),
					}
					dim[i] = g.ArchivedAt != nil
				}
				printTable(w, []string{"ID", "TITLE", "STATUS", "PRIORITY", "PROGRESS", "TARGET", ""}, rows, dim, "goals")
			})
		},
	}
	cmd.Flags().String("area", "", "only goals in this life area")
	cmd.Flags().String("status", "", "only goals with this status")
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived goals")
	return cmd
}

func newGoalGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a goal",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			goal, err := s.GetGoal(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return e.emit(goal, func(w io.Writer) { printGoal(w, goal) })
		},
	}
}

func newGoalUpdateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a goal",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			upd := model.GoalUpdate{
				Title:       stringFlag(fs, "title"),
				Description: stringFlag(fs, "description"),
				Progress:    intFlag(fs, "progress"),
			}
			var err error
			if upd.Status, err = goalStatusFlag(cmd); err != nil {
				return err
			}
			if upd.Priority, err = priorityFlag(fs); err != nil {
				return err
			}
			if upd.TargetDate, err = dateFlag(fs, "target"); err != nil {
				return err
			}

			s, err := e.db()
			if err != nil {
				return err
			}
			goal, err := s.UpdateGoal(ctxOf(cmd), args[0], upd)
			if err != nil {
				return err
			}
			return e.emit(goal, func(w io.Writer) { printGoal(w, goal) })
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("status", "", "new status")
	cmd.Flags().String("priority", "", "new priority")
	cmd.Flags().String("target", "", "new target date (YYYY-MM-DD)")
	cmd.Flags().Int("progress", 0, "override progress (0-100)")
	return cmd
}

func newGoalProgressCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <id>",
		Short: "Recalculate a goal's progress from its projects",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			pct, err := s.RecalculateGoalProgress(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return e.emit(map[string]any{"id": args[0], "progress": pct}, func(w io.Writer) {
				e.done("Goal %s progress: %s", shortID(args[0]), progressCell(pct))
			})
		},
	}
}

func printGoal(w io.Writer, g *model.Goal) {
	printFields(w, g.Title, model.KindGoal, [][2]string{
		{"ID", g.ID},
		{"Life area", g.LifeAreaID},
		{"Description", g.Description},
		{"Status", statusCell(string(g.Status))},
		{"Priority", priorityCell(g.Priority)},
		{"Progress", progressCell(g.Progress)},
		{"Target", fmtDate(g.TargetDate)},
		{"Completed", optDate(g.CompletedAt)},
		{"Archived", archivedMark(g.ArchivedAt)},
	})
}
