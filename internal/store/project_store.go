package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/validate"
)

const projectOrder = `
	ORDER BY CASE status
		WHEN 'active' THEN 1
		WHEN 'planning' THEN 2
		WHEN 'on_hold' THEN 3
		WHEN 'completed' THEN 4
		WHEN 'cancelled' THEN 5
	END,
	start_date IS NULL, start_date, name`

// CreateProject inserts a new project under an active goal.
func (s *SQLiteStore) CreateProject(ctx context.Context, project model.Project) (*model.Project, error) {
	name, err := validate.Name("name", project.Name)
	if err != nil {
		return nil, err
	}
	if project.Status == "" {
		project.Status = model.ProjectStatusPlanning
	}
	if project.Priority == "" {
		project.Priority = model.PriorityMedium
	}
	if err := validate.Join(
		validate.ID("goal_id", project.GoalID),
		validate.Description(project.Description),
		validate.DateRange(project.StartDate, project.DueDate),
		checkProjectStatus(project.Status),
		checkPriority(project.Priority),
	); err != nil {
		return nil, err
	}
	if err := requireActive(ctx, s.db, model.KindGoal, project.GoalID); err != nil {
		return nil, err
	}

	project.Name = name
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := s.now()
	project.CreatedAt = now
	project.UpdatedAt = now
	project.StartDate = utc(project.StartDate)
	project.DueDate = utc(project.DueDate)
	project.Progress = 0
	project.ArchivedAt = nil
	project.CompletedAt = nil
	if project.Status == model.ProjectStatusCompleted {
		project.CompletedAt = &now
	}

	err = s.inTx(ctx, "project", func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
		INSERT INTO projects (
			id, goal_id, name, description, status, priority,
			start_date, due_date, progress, completed_at, created_at, updated_at
		) VALUES (
			:id, :goal_id, :name, :description, :status, :priority,
			:start_date, :due_date, :progress, :completed_at, :created_at, :updated_at
		)`, project)
		if err != nil {
			return dbErr("creating project", err)
		}
		_, err = goalProgress(ctx, tx, now, project.GoalID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject retrieves a single project by ID, archived or not.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := s.db.GetContext(ctx, &project, "SELECT * FROM projects WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(model.KindProject, id)
	}
	if err != nil {
		return nil, dbErr(fmt.Sprintf("getting project %s", id), err)
	}
	return &project, nil
}

// GetProjects retrieves projects matching filter, active first.
func (s *SQLiteStore) GetProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	var conditions []string
	var args []any

	if filter.GoalID != nil {
		conditions = append(conditions, "goal_id = ?")
		args = append(args, *filter.GoalID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "archived_at IS NULL")
	}

	query := "SELECT * FROM projects"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += projectOrder

	projects := []model.Project{}
	if err := s.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, dbErr("querying projects", err)
	}
	return projects, nil
}

// UpdateProject applies the non-nil fields of upd.
func (s *SQLiteStore) UpdateProject(ctx context.Context, id string, upd model.ProjectUpdate) (*model.Project, error) {
	if upd.Empty() {
		return nil, &validate.Error{Field: "update", Message: "at least one field must be provided"}
	}

	current, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	start, due := current.StartDate, current.DueDate
	if upd.StartDate != nil {
		start = upd.StartDate
	}
	if upd.DueDate != nil {
		due = upd.DueDate
	}
	if err := validate.DateRange(start, due); err != nil {
		return nil, err
	}

	now := s.now()
	var sets []string
	var args []any
	if upd.Name != nil {
		name, err := validate.Name("name", *upd.Name)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "name = ?")
		args = append(args, name)
	}
	if upd.Description != nil {
		if err := validate.Description(*upd.Description); err != nil {
			return nil, err
		}
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Status != nil {
		if err := checkProjectStatus(*upd.Status); err != nil {
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
	if upd.StartDate != nil {
		sets = append(sets, "start_date = ?")
		args = append(args, upd.StartDate.UTC())
	}
	if upd.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, upd.DueDate.UTC())
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, dbErr(fmt.Sprintf("updating project %s", id), err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, notFound(model.KindProject, id)
	}
	return s.GetProject(ctx, id)
}

// DeleteProject hard-deletes a project that has no tasks.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	return s.HardDelete(ctx, model.KindProject, id)
}

func checkProjectStatus(st model.ProjectStatus) error {
	if _, err := model.ParseProjectStatus(string(st)); err != nil {
		return &validate.Error{Field: "status", Message: err.Error()}
	}
	return nil
}
