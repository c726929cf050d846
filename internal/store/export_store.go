package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/evorbrain/internal/model"
)

// TaskTag is one row of task_tags.
type TaskTag struct {
	TaskID string `json:"task_id" db:"task_id"`
	TagID  string `json:"tag_id" db:"tag_id"`
}

// Export is a full dump of the database, oldest rows first.
type Export struct {
	ExportedAt      time.Time `json:"exported_at"`
	IncludeArchived bool      `json:"include_archived"`
	ItemCount       int       `json:"item_count"`

	LifeAreas []model.LifeArea `json:"life_areas"`
	Goals     []model.Goal     `json:"goals"`
	Projects  []model.Project  `json:"projects"`
	Tasks     []model.Task     `json:"tasks"`
	Notes     []model.Note     `json:"notes"`
	Tags      []model.Tag      `json:"tags"`
	TaskTags  []TaskTag        `json:"task_tags"`
}

// Export reads every entity table in one transaction so the dump is
// consistent. Archived rows, and tag links of archived tasks, are left
// out unless includeArchived is set. Tags themselves are never archived.
func (s *SQLiteStore) Export(ctx context.Context, includeArchived bool) (*Export, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, dbErr("beginning transaction", err)
	}
	defer tx.Rollback()

	ex := &Export{
		ExportedAt:      s.now(),
		IncludeArchived: includeArchived,
		LifeAreas:       []model.LifeArea{},
		Goals:           []model.Goal{},
		Projects:        []model.Project{},
		Tasks:           []model.Task{},
		Notes:           []model.Note{},
		Tags:            []model.Tag{},
		TaskTags:        []TaskTag{},
	}

	where := " WHERE archived_at IS NULL"
	if includeArchived {
		where = ""
	}
	dumps := []struct {
		kind model.Kind
		dest any
	}{
		{model.KindLifeArea, &ex.LifeAreas},
		{model.KindGoal, &ex.Goals},
		{model.KindProject, &ex.Projects},
		{model.KindTask, &ex.Tasks},
		{model.KindNote, &ex.Notes},
	}
	for _, d := range dumps {
		if err := tx.SelectContext(ctx, d.dest,
			"SELECT * FROM "+tables[d.kind]+where+" ORDER BY created_at, id"); err != nil {
			return nil, dbErr(fmt.Sprintf("exporting %s", plural(d.kind)), err)
		}
	}

	if err := tx.SelectContext(ctx, &ex.Tags, "SELECT * FROM tags ORDER BY created_at, id"); err != nil {
		return nil, dbErr("exporting tags", err)
	}
	if err := exportTaskTags(ctx, tx, includeArchived, &ex.TaskTags); err != nil {
		return nil, err
	}

	ex.ItemCount = len(ex.LifeAreas) + len(ex.Goals) + len(ex.Projects) + len(ex.Tasks) + len(ex.Notes)
	s.logger.Debug("exported", "items", ex.ItemCount, "include_archived", includeArchived)
	return ex, nil
}

func exportTaskTags(ctx context.Context, tx *sqlx.Tx, includeArchived bool, dest *[]TaskTag) error {
	query := "SELECT task_id, tag_id FROM task_tags ORDER BY task_id, tag_id"
	if !includeArchived {
		query = `
			SELECT tt.task_id, tt.tag_id FROM task_tags tt
			JOIN tasks t ON t.id = tt.task_id
			WHERE t.archived_at IS NULL
			ORDER BY tt.task_id, tt.tag_id`
	}
	if err := tx.SelectContext(ctx, dest, query); err != nil {
		return dbErr("exporting task tags", err)
	}
	return nil
}
