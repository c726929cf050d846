package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/validate"
)

// CreateTag inserts a new tag. Names are unique regardless of case.
func (s *SQLiteStore) CreateTag(ctx context.Context, tag model.Tag) (*model.Tag, error) {
	name, err := validate.Name("name", tag.Name)
	if err != nil {
		return nil, err
	}
	if err := validate.Color(tag.Color); err != nil {
		return nil, err
	}
	tag.Name = name
	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}
	tag.CreatedAt = s.now()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)",
		tag.ID, tag.Name, tag.Color, tag.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, &validate.Error{Field: "name", Message: fmt.Sprintf("tag %q already exists", name)}
		}
		return nil, dbErr("creating tag", err)
	}
	return &tag, nil
}

// GetTags returns all tags sorted by name.
func (s *SQLiteStore) GetTags(ctx context.Context) ([]model.Tag, error) {
	tags := []model.Tag{}
	if err := s.db.SelectContext(ctx, &tags, "SELECT * FROM tags ORDER BY name COLLATE NOCASE"); err != nil {
		return nil, dbErr("querying tags", err)
	}
	return tags, nil
}

// DeleteTag removes a tag. CASCADE on task_tags removes associations.
func (s *SQLiteStore) DeleteTag(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return dbErr(fmt.Sprintf("deleting tag %s", id), err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: tag %s", ErrNotFound, id)
	}
	return nil
}

// SetTaskTags replaces all tags on a task with tagIDs.
func (s *SQLiteStore) SetTaskTags(ctx context.Context, taskID string, tagIDs []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbErr("beginning transaction", err)
	}
	defer tx.Rollback()

	found, _, err := exists(ctx, tx, model.KindTask, taskID)
	if err != nil {
		return err
	}
	if !found {
		return notFound(model.KindTask, taskID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM task_tags WHERE task_id = ?", taskID); err != nil {
		return dbErr(fmt.Sprintf("clearing tags for task %s", taskID), err)
	}

	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)",
			taskID, tagID,
		); err != nil {
			if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
				return fmt.Errorf("%w: tag %s", ErrNotFound, tagID)
			}
			return dbErr(fmt.Sprintf("adding tag %s to task %s", tagID, taskID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return dbErr("committing task tags", err)
	}
	return nil
}

// GetTagsForTask returns the tags attached to a task.
func (s *SQLiteStore) GetTagsForTask(ctx context.Context, taskID string) ([]model.Tag, error) {
	tags := []model.Tag{}
	err := s.db.SelectContext(ctx, &tags, `
		SELECT t.* FROM tags t
		JOIN task_tags tt ON tt.tag_id = t.id
		WHERE tt.task_id = ?
		ORDER BY t.name COLLATE NOCASE`, taskID)
	if err != nil {
		return nil, dbErr(fmt.Sprintf("querying tags for task %s", taskID), err)
	}
	return tags, nil
}

// attachTags batch-loads tags for tasks.
func (s *SQLiteStore) attachTags(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	idx := make(map[string]int, len(tasks))
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		idx[t.ID] = i
		ids[i] = t.ID
	}

	type row struct {
		TaskID string `db:"task_id"`
		model.Tag
	}
	for _, chunk := range chunks(ids) {
		query, args, err := sqlx.In(`
			SELECT tt.task_id, t.id, t.name, t.color, t.created_at
			FROM task_tags tt
			JOIN tags t ON t.id = tt.tag_id
			WHERE tt.task_id IN (?)
			ORDER BY t.name COLLATE NOCASE`, chunk)
		if err != nil {
			return fmt.Errorf("building tag query: %w", err)
		}
		var rows []row
		if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
			return dbErr("loading task tags", err)
		}
		for _, r := range rows {
			i := idx[r.TaskID]
			tasks[i].Tags = append(tasks[i].Tags, r.Tag)
		}
	}
	return nil
}
