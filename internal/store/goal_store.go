package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/validate"
)

const goalOrder = `
	ORDER BY CASE status
		WHEN 'active' THEN 1
		WHEN 'paused' THEN 2
		WHEN 'completed' THEN 3
		WHEN 'cancelled' THEN 4
	END,
	target_date IS NULL, target_date, title`

// CreateGoal inserts a new goal under an active life area.
func (s *SQLiteStore) CreateGoal(ctx context.Context, goal model.Goal) (*model.Goal, error) {
	title, err := validate.Name("title", goal.Title)
	if err != nil {
		return nil, err
	}
	if goal.Status == "" {
		goal.Status = model.GoalStatusActive
	}
	if goal.Priority == "" {
		goal.Priority = model.PriorityMedium
	}
	if err := validate.Join(
		validate.ID("life_area_id", goal.LifeAreaID),
		validate.Description(goal.Description),
		validate.Progress(goal.Progress),
		checkGoalStatus(goal.Status),
		checkPriority(goal.Priority),
	); err != nil {
		return nil, err
	}
	if err := requireActive(ctx, s.db, model.KindLifeArea, goal.LifeAreaID); err != nil {
		return nil, err
	}

	goal.Title = title
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	now := s.now()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	goal.TargetDate = utc(goal.TargetDate)
	goal.ArchivedAt = nil
	goal.CompletedAt = nil
	if goal.Status == model.GoalStatusCompleted {
		goal.CompletedAt = &now
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO goals (
			id, life_area_id, title, description, status, priority,
			target_date, progress, completed_at, created_at, updated_at
		) VALUES (
			:id, :life_area_id, :title, :description, :status, :priority,
			:target_date, :progress, :completed_at, :created_at, :updated_at
		)`, goal)
	if err != nil {
		return nil, dbErr("creating goal", err)
	}
	return &goal, nil
}

// GetGoal retrieves a single goal by ID, archived or not.
func (s *SQLiteStore) GetGoal(ctx context.Context, id string) (*model.Goal, error) {
	var goal model.Goal
	err := s.db.GetContext(ctx, &goal, "SELECT * FROM goals WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(model.KindGoal, id)
	}
	if err != nil {
		return nil, dbErr(fmt.Sprintf("getting goal %s", id), err)
	}
	return &goal, nil
}

// GetGoals retrieves goals matching filter, active first, then by
// nearest target date.
func (s *SQLiteStore) GetGoals(ctx context.Context, filter GoalFilter) ([]model.Goal, error) {
	var conditions []string
	var args []any

	if filter.LifeAreaID != nil {
		conditions = append(conditions, "life_area_id = ?")
		args = append(args, *filter.LifeAreaID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "archived_at IS NULL")
	}

	query := "SELECT * FROM goals"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += goalOrder

	goals := []model.Goal{}
	if err := s.db.SelectContext(ctx, &goals, query, args...); err != nil {
		return nil, dbErr("querying goals", err)
	}
	return goals, nil
}

// UpdateGoal applies the non-nil fields of upd. Moving to completed
// stamps completed_at; moving away clears it.
func (s *SQLiteStore) UpdateGoal(ctx context.Context, id string, upd model.GoalUpdate) (*model.Goal, error) {
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
		if err := validate.Description(*upd.Description); err != nil {
			return nil, err
		}
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Status != nil {
		if err := checkGoalStatus(*upd.Status); err != nil {
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
	if upd.TargetDate != nil {
		sets = append(sets, "target_date = ?")
		args = append(args, upd.TargetDate.UTC())
	}
	if upd.Progress != nil {
		if err := validate.Progress(*upd.Progress); err != nil {
			return nil, err
		}
		sets = append(sets, "progress = ?")
		args = append(args, *upd.Progress)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE goals SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, dbErr(fmt.Sprintf("updating goal %s", id), err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, notFound(model.KindGoal, id)
	}
	return s.GetGoal(ctx, id)
}

// DeleteGoal hard-deletes a goal that has no projects.
func (s *SQLiteStore) DeleteGoal(ctx context.Context, id string) error {
	return s.HardDelete(ctx, model.KindGoal, id)
}

// completedAtClause keeps an existing completed_at, stamps a new one on
// entering the completed status and clears it otherwise. It takes the
// new status and the current time as arguments.
const completedAtClause = `completed_at = CASE WHEN ? = 'completed' THEN COALESCE(completed_at, ?) ELSE NULL END`

// utc normalizes an optional timestamp so stored values compare as text.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func checkGoalStatus(st model.GoalStatus) error {
	if _, err := model.ParseGoalStatus(string(st)); err != nil {
		return &validate.Error{Field: "status", Message: err.Error()}
	}
	return nil
}

func checkPriority(p model.Priority) error {
	if _, err := model.ParsePriority(string(p)); err != nil {
		return &validate.Error{Field: "priority", Message: err.Error()}
	}
	return nil
}
