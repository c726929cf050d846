package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/internal/theme"
)

func newTaskCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage tasks and subtasks",
	}
	cmd.AddCommand(
		newTaskCreateCmd(e),
		newTaskListCmd(e),
		newTaskGetCmd(e),
		newTaskUpdateCmd(e),
		newTaskCompleteCmd(e),
		newTaskDueCmd(e),
		newTaskOverdueCmd(e),
		newTaskBulkStatusCmd(e),
		newTaskTagCmd(e),
		newArchiveCmd(e, model.KindTask),
		newRestoreCmd(e, model.KindTask),
		newDeleteCmd(e, model.KindTask),
	)
	return cmd
}

func taskStatusFlag(cmd *cobra.Command) (*model.TaskStatus, error) {
	s := stringFlag(cmd.Flags(), "status")
	if s == nil {
		return nil, nil
	}
	st, err := model.ParseTaskStatus(*s)
	if err != nil {
		return nil, usageError{err}
	}
	return &st, nil
}

func newTaskCreateCmd(e *env) *cobra.Command {
	var task model.Task
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task, optionally inside a project or under a parent task",
		Example: `  evorbrain task create --title "Buy shoes" --project 3c9d... --due 2025-03-20
  evorbrain task create --title "Measure feet" --parent 88e1...
  evorbrain task create --title "Water plants" --rrule "FREQ=WEEKLY;BYDAY=SA"`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			task.ProjectID = stringFlag(fs, "project")
			task.ParentTaskID = stringFlag(fs, "parent")
			task.RecurrenceRule = stringFlag(fs, "rrule")
			task.EstimatedMinutes = intFlag(fs, "estimate")

			var err error
			if task.DueDate, err = dateFlag(fs, "due"); err != nil {
				return err
			}
			st, err := taskStatusFlag(cmd)
			if err != nil {
				return err
			}
			if st != nil {
				task.Status = *st
			}
			p, err := priorityFlag(fs)
			if err != nil {
				return err
			}
			if p != nil {
				task.Priority = *p
			}

			s, err := e.db()
			if err != nil {
				return err
			}
			created, err := s.CreateTask(ctxOf(cmd), task)
			if err != nil {
				return err
			}
			return e.emit(created, func(w io.Writer) { printTask(w, created) })
		},
	}
	cmd.Flags().StringVar(&task.Title, "title", "", "title (required)")
	cmd.Flags().StringVar(&task.Description, "description", "", "description")
	cmd.Flags().String("project", "", "project id")
	cmd.Flags().String("parent", "", "parent task id; the subtask joins the parent's project")
	cmd.Flags().String("status", "", "todo, in_progress, completed or cancelled (default todo)")
	cmd.Flags().String("priority", "", "low, medium, high or critical (default medium)")
	cmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().Int("estimate", 0, "estimated minutes")
	cmd.Flags().String("rrule", "", "recurrence rule, e.g. FREQ=DAILY")
	return cmd
}

func newTaskListCmd(e *env) *cobra.Command {
	var archived, topLevel bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			filter := store.TaskFilter{
				ProjectID:       stringFlag(fs, "project"),
				ParentTaskID:    stringFlag(fs, "parent"),
				TopLevel:        topLevel,
				IncludeArchived: archived || e.cfg.Display.ShowArchived,
			}
			var err error
			if filter.Status, err = taskStatusFlag(cmd); err != nil {
				return err
			}
			if filter.Priority, err = priorityFlag(fs); err != nil {
				return err
			}
			s, err := e.db()
			if err != nil {
				return err
			}
			tasks, err := s.GetTasks(ctxOf(cmd), filter)
			if err != nil {
				return err
			}
			return e.emit(tasks, func(w io.Writer) { printTasks(w, tasks, "tasks") })
		},
	}
	cmd.Flags().String("project", "", "only tasks in this project")
	cmd.Flags().String("parent", "", "only subtasks of this task")
	cmd.Flags().BoolVar(&topLevel, "top-level", false, "only tasks without a parent")
	cmd.Flags().String("status", "", "only tasks with this status")
	cmd.Flags().String("priority", "", "only tasks with this priority")
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived tasks")
	return cmd
}

func newTaskGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a task",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			task, err := s.GetTask(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return e.emit(task, func(w io.Writer) { printTask(w, task) })
		},
	}
}

func newTaskUpdateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Long:  "Change fields of a task. Pass --rrule \"\" to clear the recurrence rule and --clear-due to drop the due date.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			upd := model.TaskUpdate{
				Title:            stringFlag(fs, "title"),
				Description:      stringFlag(fs, "description"),
				EstimatedMinutes: intFlag(fs, "estimate"),
				ActualMinutes:    intFlag(fs, "actual"),
				RecurrenceRule:   stringFlag(fs, "rrule"),
			}
			var err error
			if upd.Status, err = taskStatusFlag(cmd); err != nil {
				return err
			}
			if upd.Priority, err = priorityFlag(fs); err != nil {
				return err
			}
			if upd.DueDate, err = dateFlag(fs, "due"); err != nil {
				return err
			}
			upd.ClearDueDate, _ = fs.GetBool("clear-due")
			if upd.ClearDueDate && upd.DueDate != nil {
				return userErrorf("--due and --clear-due cannot be combined")
			}

			s, err := e.db()
			if err != nil {
				return err
			}
			task, err := s.UpdateTask(ctxOf(cmd), args[0], upd)
			if err != nil {
				return err
			}
			return e.emit(task, func(w io.Writer) { printTask(w, task) })
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("status", "", "new status")
	cmd.Flags().String("priority", "", "new priority")
	cmd.Flags().String("due", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().Bool("clear-due", false, "remove the due date")
	cmd.Flags().Int("estimate", 0, "estimated minutes")
	cmd.Flags().Int("actual", 0, "actual minutes spent")
	cmd.Flags().String("rrule", "", "recurrence rule")
	return cmd
}

func newTaskCompleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "complete <id>",
		Aliases: []string{"toggle", "done"},
		Short:   "Toggle a task between completed and todo",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			task, err := s.ToggleTaskComplete(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return e.emit(task, func(io.Writer) {
				e.done("Task %q is now %s.", task.Title, task.Status)
			})
		},
	}
}

func newTaskDueCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "due",
		Aliases: []string{"today"},
		Short:   "List open tasks due today",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			tasks, err := s.GetTasksDueToday(ctxOf(cmd))
			if err != nil {
				return err
			}
			return e.emit(tasks, func(w io.Writer) { printTasks(w, tasks, "tasks due today") })
		},
	}
}

func newTaskOverdueCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List open tasks past their due date",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			tasks, err := s.GetOverdueTasks(ctxOf(cmd))
			if err != nil {
				return err
			}
			return e.emit(tasks, func(w io.Writer) { printTasks(w, tasks, "overdue tasks") })
		},
	}
}

func newTaskBulkStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-status <status> <id>...",
		Short: "Set the status of several tasks at once",
		Long:  "Set the status of several tasks in one transaction. If any id is unknown nothing changes.",
		Args:  minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := model.ParseTaskStatus(args[0])
			if err != nil {
				return usageError{err}
			}
			s, err := e.db()
			if err != nil {
				return err
			}
			n, err := s.BulkUpdateTaskStatus(ctxOf(cmd), args[1:], status)
			if err != nil {
				return err
			}
			return e.emit(map[string]any{"updated": n, "status": status}, func(io.Writer) {
				e.done("Set %d task(s) to %s.", n, status)
			})
		},
	}
}

func newTaskTagCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <task-id> [tag-id]...",
		Short: "Replace the tags of a task; no tag ids clears them",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			ctx := ctxOf(cmd)
			if err := s.SetTaskTags(ctx, args[0], args[1:]); err != nil {
				return err
			}
			tags, err := s.GetTagsForTask(ctx, args[0])
			if err != nil {
				return err
			}
			return e.emit(tags, func(io.Writer) {
				e.done("Task %s tags: %s", shortID(args[0]), tagNames(tags))
			})
		},
	}
}

func printTasks(w io.Writer, tasks []model.Task, noun string) {
	now := time.Now()
	rows := make([][]string, len(tasks))
	dim := make([]bool, len(tasks))
	for i, t := range tasks {
		title := truncate(t.Title, 40)
		if t.ParentTaskID != nil {
			title = "↳ " + title
		}
		due := fmtDate(t.DueDate)
		if t.IsOverdue(now) {
			due = theme.OverdueStyle.Render(due)
		}
		rows[i] = []string{
			shortID(t.ID), title, statusCell(string(t.Status)), priorityCell(t.Priority),
			due, tagNames(t.Tags), archivedMark(t.ArchivedAt),
		}
		dim[i] = t.ArchivedAt != nil
	}
	printTable(w, []string{"ID", "TITLE", "STATUS", "PRIORITY", "DUE", "TAGS", ""}, rows, dim, noun)
}

func printTask(w io.Writer, t *model.Task) {
	fields := [][2]string{
		{"ID", t.ID},
		{"Project", deref(t.ProjectID)},
		{"Parent task", deref(t.ParentTaskID)},
		{"Description", t.Description},
		{"Status", statusCell(string(t.Status))},
		{"Priority", priorityCell(t.Priority)},
		{"Due", optDate(t.DueDate)},
		{"Estimate", minutes(t.EstimatedMinutes)},
		{"Actual", minutes(t.ActualMinutes)},
		{"Repeats", deref(t.RecurrenceRule)},
		{"Tags", tagNames(t.Tags)},
		{"Completed", optDate(t.CompletedAt)},
		{"Archived", archivedMark(t.ArchivedAt)},
	}
	printFields(w, t.Title, model.KindTask, fields)
}

func tagNames(tags []model.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = "#" + t.Name
	}
	return strings.Join(names, " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func minutes(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%dm", *n)
}
