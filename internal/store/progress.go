package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/evorbrain/internal/model"
)

type ref struct {
	kind model.Kind
	id   string
}

// progressParent returns the entity whose progress depends on kind/id:
// a task's project or a project's goal.
func progressParent(ctx context.Context, q sqlx.QueryerContext, kind model.Kind, id string) (*ref, error) {
	var (
		parent sql.NullString
		query  string
		pkind  model.Kind
	)
	switch kind {
	case model.KindTask:
		query, pkind = "SELECT project_id FROM tasks WHERE id = ?", model.KindProject
	case model.KindProject:
		query, pkind = "SELECT goal_id FROM projects WHERE id = ?", model.KindGoal
	default:
		return nil, nil
	}

	err := sqlx.GetContext(ctx, q, &parent, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr(fmt.Sprintf("looking up parent of %s %s", kind.Label(), id), err)
	}
	if !parent.Valid {
		return nil, nil
	}
	return &ref{kind: pkind, id: parent.String}, nil
}

// refreshProgress recalculates the progress that depends on kind/id
// after it was created, archived, restored or changed status. It runs on
// q so callers can keep it inside their transaction.
func refreshProgress(ctx context.Context, q sqlx.ExtContext, now time.Time, kind model.Kind, id string) error {
	parent, err := progressParent(ctx, q, kind, id)
	if err != nil || parent == nil {
		return err
	}
	return recalculate(ctx, q, now, parent.kind, parent.id)
}

func recalculate(ctx context.Context, q sqlx.ExtContext, now time.Time, kind model.Kind, id string) error {
	switch kind {
	case model.KindProject:
		_, err := projectProgress(ctx, q, now, id)
		return err
	case model.KindGoal:
		_, err := goalProgress(ctx, q, now, id)
		return err
	}
	return nil
}

// RecalculateProjectProgress sets a project's progress to the share of
// its unarchived tasks that are completed, then updates its goal.
func (s *SQLiteStore) RecalculateProjectProgress(ctx context.Context, projectID string) (int, error) {
	var progress int
	err := s.inTx(ctx, "recalculating progress", func(tx *sqlx.Tx) error {
		var err error
		progress, err = projectProgress(ctx, tx, s.now(), projectID)
		return err
	})
	return progress, err
}

// RecalculateGoalProgress sets a goal's progress to the rounded average
// progress of its unarchived projects.
func (s *SQLiteStore) RecalculateGoalProgress(ctx context.Context, goalID string) (int, error) {
	return goalProgress(ctx, s.db, s.now(), goalID)
}

func projectProgress(ctx context.Context, q sqlx.ExtContext, now time.Time, projectID string) (int, error) {
	var counts struct {
		Total int `db:"total"`
		Done  int `db:"done"`
	}
	err := sqlx.GetContext(ctx, q, &counts, `
		SELECT COUNT(*) AS total,
		       COUNT(CASE WHEN status = 'completed' THEN 1 END) AS done
		FROM tasks
		WHERE project_id = ? AND archived_at IS NULL`, projectID)
	if err != nil {
		return 0, dbErr(fmt.Sprintf("counting tasks of project %s", projectID), err)
	}

	progress := 0
	if counts.Total > 0 {
		progress = int(math.Round(float64(counts.Done) * 100 / float64(counts.Total)))
	}

	result, err := q.ExecContext(ctx,
		"UPDATE projects SET progress = ?, updated_at = ? WHERE id = ?",
		progress, now, projectID)
	if err != nil {
		return 0, dbErr(fmt.Sprintf("updating progress of project %s", projectID), err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return 0, notFound(model.KindProject, projectID)
	}

	if err := refreshProgress(ctx, q, now, model.KindProject, projectID); err != nil {
		return 0, err
	}
	return progress, nil
}

func goalProgress(ctx context.Context, q sqlx.ExtContext, now time.Time, goalID string) (int, error) {
	var avg sql.NullFloat64
	err := sqlx.GetContext(ctx, q, &avg,
		"SELECT AVG(progress) FROM projects WHERE goal_id = ? AND archived_at IS NULL", goalID)
	if err != nil {
		return 0, dbErr(fmt.Sprintf("averaging projects of goal %s", goalID), err)
	}

	progress := 0
	if avg.Valid {
		progress = int(math.Round(avg.Float64))
	}

	result, err := q.ExecContext(ctx,
		"UPDATE goals SET progress = ?, updated_at = ? WHERE id = ?",
		progress, now, goalID)
	if err != nil {
		return 0, dbErr(fmt.Sprintf("updating progress of goal %s", goalID), err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return 0, notFound(model.KindGoal, goalID)
	}
	return progress, nil
}
