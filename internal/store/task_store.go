package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/validate"
)

const taskOrder = `
	ORDER BY CASE status
		WHEN 'todo' THEN 1
		WHEN 'in_progress' THEN 2
		WHEN 'completed' THEN 3
		WHEN 'cancelled' THEN 4
	END,
	CASE priority
		WHEN 'critical' THEN 1
		WHEN 'high' THEN 2
		WHEN 'medium' THEN 3
		WHEN 'low' THEN 4
	END,
	due_date IS NULL, due_date, created_at`

// openTask matches tasks that still need doing.
const openTask = "archived_at IS NULL AND status NOT IN ('completed', 'cancelled')"

// CreateTask inserts a new task. A subtask inherits its parent's project.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	title, err := validate.Name("title", task.Title)
	if err != nil {
		return nil, err
	}
	if task.Status == "" {
		task.Status = model.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if err := validate.Join(
		validate.OptionalID("project_id", task.ProjectID),
		validate.OptionalID("parent_task_id", task.ParentTaskID),
		validate.Text("description", task.Description, validate.MaxTaskDescriptionLength),
		validate.Minutes("estimated_minutes", task.EstimatedMinutes),
		validate.Minutes("actual_minutes", task.ActualMinutes),
		validate.RecurrenceRule(task.RecurrenceRule),
		checkTaskStatus(task.Status),
		checkPriority(task.Priority),
	); err != nil {
		return nil, err
	}

	if task.ParentTaskID != nil {
		parent, err := s.GetTask(ctx, *task.ParentTaskID)
		if err != nil {
			return nil, err
		}
		if parent.ArchivedAt != nil {
			return nil, fmt.Errorf("%w: task %s is archived", ErrValidation, parent.ID)
		}
		if task.ProjectID == nil {
			task.ProjectID = parent.ProjectID
		} else if parent.ProjectID == nil || *parent.ProjectID != *task.ProjectID {
			return nil, &validate.Error{Field: "project_id", Message: "must match the parent task's project"}
		}
	}
	if task.ProjectID != nil {
		if err := requireActive(ctx, s.db, model.KindProject, *task.ProjectID); err != nil {
			return nil, err
		}
	}

	task.Title = title
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.DueDate = utc(task.DueDate)
	task.ArchivedAt = nil
	task.CompletedAt = nil
	if task.Status == model.TaskStatusCompleted {
		task.CompletedAt = &now
	}

	err = s.inTx(ctx, "task", func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
		INSERT INTO tasks (
			id, project_id, parent_task_id, title, description, status, priority,
			due_date, estimated_minutes, actual_minutes, recurrence_rule,
			completed_at, created_at, updated_at
		) VALUES (
			:id, :project_id, :parent_task_id, :title, :description, :status, :priority,
			:due_date, :estimated_minutes, :actual_minutes, :recurrence_rule,
			:completed_at, :created_at, :updated_at
		)`, task)
		if err != nil {
			return dbErr("creating task", err)
		}
		if task.ProjectID == nil {
			return nil
		}
		_, err = projectProgress(ctx, tx, now, *task.ProjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask retrieves a single task by ID with its tags.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := s.db.GetContext(ctx, &task, "SELECT * FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(model.KindTask, id)
	}
	if err != nil {
		return nil, dbErr(fmt.Sprintf("getting task %s", id), err)
	}

	tags, err := s.GetTagsForTask(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Tags = tags
	return &task, nil
}

// GetTasks retrieves tasks matching filter, open work first and then by
// priority and due date.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	var conditions []string
	var args []any

	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.ParentTaskID != nil {
		conditions = append(conditions, "parent_task_id = ?")
		args = append(args, *filter.ParentTaskID)
	} else if filter.TopLevel {
		conditions = append(conditions, "parent_task_id IS NULL")
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *filter.Priority)
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "archived_at IS NULL")
	}

	query := "SELECT * FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += taskOrder

	return s.selectTasks(ctx, query, args...)
}

// GetTasksDueToday returns open tasks due during the current local day.
func (s *SQLiteStore) GetTasksDueToday(ctx context.Context) ([]model.Task, error) {
	start, end := dayBounds(s.now())
	return s.selectTasks(ctx,
		"SELECT * FROM tasks WHERE "+openTask+" AND due_date >= ? AND due_date < ?"+taskOrder,
		start, end)
}

// GetOverdueTasks returns open tasks whose due date has passed.
func (s *SQLiteStore) GetOverdueTasks(ctx context.Context) ([]model.Task, error) {
	return s.selectTasks(ctx,
		"SELECT * FROM tasks WHERE "+openTask+" AND due_date < ?"+taskOrder,
		s.now())
}

// UpdateTask applies the non-nil fields of upd. Status changes refresh
// the progress of the task's project.
func (s *SQLiteStore) UpdateTask(ctx context.Context, id string, upd model.TaskUpdate) (*model.Task, error) {
	if upd.Empty() {
		return nil, &validate.Error{Field: "update", Message: "at least one field must be provided"}
	}

	now := s.now()
	var sets []string
	var args []any
	if upd.Title != nil {
		title, err := validate.Name("title", *upd.Title)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "title = ?")
		args = append(args, title)
	}
	if upd.Description != nil {
		if err := validate.Text("description", *upd.Description, validate.MaxTaskDescriptionLength); err != nil {
			return nil, err
		}
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Status != nil {
		if err := checkTaskStatus(*upd.Status); err != nil {
			return nil, err
		}
		sets = append(sets, "status = ?", completedAtClause)
		args = append(args, *upd.Status, *upd.Status, now)
	}
	if upd.Priority != nil {
		if err := checkPriority(*upd.Priority); err != nil {
			return nil, err
		}
		sets = append(sets, "priority = ?")
		args = append(args, *upd.Priority)
	}
	switch {
	case upd.ClearDueDate:
		sets = append(sets, "due_date = NULL")
	case upd.DueDate != nil:
		sets = append(sets, "due_date = ?")
		args = append(args, upd.DueDate.UTC())
	}
	if upd.EstimatedMinutes != nil {
		if err := validate.Minutes("estimated_minutes", upd.EstimatedMinutes); err != nil {
			return nil, err
		}
		sets = append(sets, "estimated_minutes = ?")
		args = append(args, *upd.EstimatedMinutes)
	}
	if upd.ActualMinutes != nil {
		if err := validate.Minutes("actual_minutes", upd.ActualMinutes); err != nil {
			return nil, err
		}
		sets = append(sets, "actual_minutes = ?")
		args = append(args, *upd.ActualMinutes)
	}
	if upd.RecurrenceRule != nil {
		if err := validate.RecurrenceRule(upd.RecurrenceRule); err != nil {
			return nil, err
		}
		// An empty rule clears recurrence.
		var rule any
		if *upd.RecurrenceRule != "" {
			rule = *upd.RecurrenceRule
		}
		sets = append(sets, "recurrence_rule = ?")
		args = append(args, rule)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	err := s.inTx(ctx, "task update", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return dbErr(fmt.Sprintf("updating task %s", id), err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return notFound(model.KindTask, id)
		}
		if upd.Status == nil {
			return nil
		}
		return refreshProgress(ctx, tx, now, model.KindTask, id)
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(ctx, id)
}

// ToggleTaskComplete flips a task between completed and todo.
func (s *SQLiteStore) ToggleTaskComplete(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	next := model.TaskStatusCompleted
	if task.Status == model.TaskStatusCompleted {
		next = model.TaskStatusTodo
	}
	return s.UpdateTask(ctx, id, model.TaskUpdate{Status: &next})
}

// BulkUpdateTaskStatus sets status on every task in ids in one
// transaction. Any missing ID aborts the whole batch.
func (s *SQLiteStore) BulkUpdateTaskStatus(ctx context.Context, ids []string, status model.TaskStatus) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := checkTaskStatus(status); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, dbErr("beginning transaction", err)
	}
	defer tx.Rollback()

	now := s.now()
	projects := map[string]bool{}
	for _, id := range ids {
		var projectID sql.NullString
		err := tx.GetContext(ctx, &projectID, "SELECT project_id FROM tasks WHERE id = ?", id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, notFound(model.KindTask, id)
		}
		if err != nil {
			return 0, dbErr(fmt.Sprintf("looking up task %s", id), err)
		}
		if projectID.Valid {
			projects[projectID.String] = true
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET status = ?, "+completedAtClause+", updated_at = ? WHERE id = ?",
			status, status, now, now, id); err != nil {
			return 0, dbErr(fmt.Sprintf("updating task %s", id), err)
		}
	}

	for projectID := range projects {
		if _, err := projectProgress(ctx, tx, now, projectID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, dbErr("committing bulk update", err)
	}
	s.logger.Info("bulk status update", "tasks", len(ids), "status", status)
	return len(ids), nil
}

// DeleteTask hard-deletes a task that has no subtasks.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	return s.HardDelete(ctx, model.KindTask, id)
}

func (s *SQLiteStore) selectTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, dbErr("querying tasks", err)
	}
	if err := s.attachTags(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// dayBounds returns the UTC instants that open and close the local day
// containing now.
func dayBounds(now time.Time) (time.Time, time.Time) {
	local := now.Local()
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

func checkTaskStatus(st model.TaskStatus) error {
	if _, err := model.ParseTaskStatus(string(st)); err != nil {
		return &validate.Error{Field: "status", Message: err.Error()}
	}
	return nil
}
