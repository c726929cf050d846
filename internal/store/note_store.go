package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/validate"
)

// noteParents pairs each parent kind with the note field that holds it.
func noteParents(n *model.Note) map[model.Kind]*string {
	return map[model.Kind]*string{
		model.KindLifeArea: n.LifeAreaID,
		model.KindGoal:     n.GoalID,
		model.KindProject:  n.ProjectID,
		model.KindTask:     n.TaskID,
	}
}

// CreateNote inserts a note. Each parent reference that is set must
// point at an existing row.
func (s *SQLiteStore) CreateNote(ctx context.Context, note model.Note) (*model.Note, error) {
	title, err := validate.Name("title", note.Title)
	if err != nil {
		return nil, err
	}
	if err := validate.Text("content", note.Content, validate.MaxNoteContentLength); err != nil {
		return nil, err
	}
	parents := noteParents(&note)
	for _, kind := range model.Kinds {
		col, ok := noteColumns[kind]
		if !ok {
			continue
		}
		id := parents[kind]
		if id == nil {
			continue
		}
		if err := validate.ID(col, *id); err != nil {
			return nil, err
		}
		found, _, err := exists(ctx, s.db, kind, *id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, notFound(kind, *id)
		}
	}

	note.Title = title
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	now := s.now()
	note.CreatedAt = now
	note.UpdatedAt = now
	note.ArchivedAt = nil

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO notes (
			id, title, content, life_area_id, goal_id, project_id, task_id,
			created_at, updated_at
		) VALUES (
			:id, :title, :content, :life_area_id, :goal_id, :project_id, :task_id,
			:created_at, :updated_at
		)`, note)
	if err != nil {
		return nil, dbErr("creating note", err)
	}
	return &note, nil
}

// GetNote retrieves a single note by ID.
func (s *SQLiteStore) GetNote(ctx context.Context, id string) (*model.Note, error) {
	var note model.Note
	err := s.db.GetContext(ctx, &note, "SELECT * FROM notes WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(model.KindNote, id)
	}
	if err != nil {
		return nil, dbErr(fmt.Sprintf("getting note %s", id), err)
	}
	return &note, nil
}

// GetNotes lists notes, newest first, optionally restricted to those
// attached to one parent.
func (s *SQLiteStore) GetNotes(ctx context.Context, filter NoteFilter) ([]model.Note, error) {
	var conditions []string
	var args []any

	if filter.ParentKind != "" {
		col, ok := noteColumns[filter.ParentKind]
		if !ok {
			return nil, &validate.Error{Field: "parent_kind", Message: fmt.Sprintf("notes cannot attach to %s", filter.ParentKind.Label())}
		}
		conditions = append(conditions, col+" = ?")
		args = append(args, filter.ParentID)
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "archived_at IS NULL")
	}

	query := "SELECT * FROM notes"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY updated_at DESC, title"

	notes := []model.Note{}
	if err := s.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, dbErr("querying notes", err)
	}
	return notes, nil
}

// SearchNotes matches query as a substring of title or content.
func (s *SQLiteStore) SearchNotes(ctx context.Context, query string, includeArchived bool) ([]model.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &validate.Error{Field: "query", Message: "must not be empty"}
	}
	pattern := likePattern(query)

	q := `SELECT * FROM notes WHERE (title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`
	if !includeArchived {
		q += " AND archived_at IS NULL"
	}
	q += " ORDER BY updated_at DESC, title"

	notes := []model.Note{}
	if err := s.db.SelectContext(ctx, &notes, q, pattern, pattern); err != nil {
		return nil, dbErr("searching notes", err)
	}
	return notes, nil
}

// UpdateNote applies the non-nil fields of upd.
func (s *SQLiteStore) UpdateNote(ctx context.Context, id string, upd model.NoteUpdate) (*model.Note, error) {
	if upd.Empty() {
		return nil, &validate.Error{Field: "update", Message: "at least one field must be provided"}
	}

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
	if upd.Content != nil {
		if err := validate.Text("content", *upd.Content, validate.MaxNoteContentLength); err != nil {
			return nil, err
		}
		sets = append(sets, "content = ?")
		args = append(args, *upd.Content)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now(), id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, dbErr(fmt.Sprintf("updating note %s", id), err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, notFound(model.KindNote, id)
	}
	return s.GetNote(ctx, id)
}

// ArchiveNote archives a single note. Notes have no descendants.
func (s *SQLiteStore) ArchiveNote(ctx context.Context, id string) (*CascadeResult, error) {
	return s.ArchiveCascade(ctx, model.KindNote, id)
}

// DeleteNote hard-deletes a note.
func (s *SQLiteStore) DeleteNote(ctx context.Context, id string) error {
	return s.HardDelete(ctx, model.KindNote, id)
}
