package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/evorbrain/internal/model"
)

// edge is one parent → child link of the entity hierarchy. fk is the
// column on the child's table that holds the parent's ID.
type edge struct {
	parent model.Kind
	child  model.Kind
	fk     string
}

// hierarchy lists every parent → child link. Archive walks it breadth
// first from any root, and hard delete uses it to count dependents.
var hierarchy = []edge{
	{parent: model.KindLifeArea, child: model.KindGoal, fk: "life_area_id"},
	{parent: model.KindGoal, child: model.KindProject, fk: "goal_id"},
	{parent: model.KindProject, child: model.KindTask, fk: "project_id"},
	{parent: model.KindTask, child: model.KindTask, fk: "parent_task_id"},
}

// noteColumns maps each kind notes can attach to onto its column in notes.
var noteColumns = map[model.Kind]string{
	model.KindLifeArea: "life_area_id",
	model.KindGoal:     "goal_id",
	model.KindProject:  "project_id",
	model.KindTask:     "task_id",
}

// CascadeResult reports what an archive cascade changed.
type CascadeResult struct {
	Kind       model.Kind `json:"kind"`
	ID         string     `json:"id"`
	ArchivedAt time.Time  `json:"archived_at"`

	// RootAlreadyArchived is set when the root kept its earlier
	// archived_at. Descendants are still visited.
	RootAlreadyArchived bool `json:"root_already_archived"`

	// Archived counts rows newly archived per kind, root included.
	Archived map[model.Kind]int `json:"archived"`
}

// Total returns the number of rows newly archived.
func (r *CascadeResult) Total() int {
	n := 0
	for _, c := range r.Archived {
		n += c
	}
	return n
}

type level struct {
	kind model.Kind
	ids  []string
}

// ArchiveCascade archives the entity kind/id together with everything
// beneath it in the hierarchy and every note attached along the way.
// All rows get the same archived_at. Rows that are already archived keep
// their original timestamp. The whole operation is one transaction.
func (s *SQLiteStore) ArchiveCascade(ctx context.Context, kind model.Kind, id string) (*CascadeResult, error) {
	var result *CascadeResult
	err := s.inTx(ctx, "archive", func(tx *sqlx.Tx) error {
		var err error
		result, err = archiveTx(ctx, tx, s.now(), kind, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("archived",
		"kind", kind, "id", id,
		"rows", result.Total(),
		"root_already_archived", result.RootAlreadyArchived,
	)
	return result, nil
}

// archiveTx is ArchiveCascade on an open transaction. Progress that
// depends on the root is refreshed before it returns.
func archiveTx(ctx context.Context, tx *sqlx.Tx, now time.Time, kind model.Kind, id string) (*CascadeResult, error) {
	table, ok := tables[kind]
	if !ok {
		return nil, fmt.Errorf("archiving: unknown kind %q", kind)
	}

	result := &CascadeResult{
		Kind:       kind,
		ID:         id,
		ArchivedAt: now,
		Archived:   map[model.Kind]int{},
	}

	found, _, err := exists(ctx, tx, kind, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(kind, id)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE "+table+" SET archived_at = ?, updated_at = ? WHERE id = ? AND archived_at IS NULL",
		now, now, id)
	if err != nil {
		return nil, dbErr(fmt.Sprintf("archiving %s %s", kind.Label(), id), err)
	}
	n, _ := res.RowsAffected()
	result.Archived[kind] += int(n)
	result.RootAlreadyArchived = n == 0

	visited := map[model.Kind]map[string]bool{kind: {id: true}}
	traversed := map[model.Kind][]string{kind: {id}}
	queue := []level{{kind: kind, ids: []string{id}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, e := range hierarchy {
			if e.parent != cur.kind {
				continue
			}
			childTable := tables[e.child]

			children, err := selectIn(ctx, tx,
				"SELECT id FROM "+childTable+" WHERE "+e.fk+" IN (?)", cur.ids)
			if err != nil {
				return nil, dbErr(fmt.Sprintf("collecting %s under %s", plural(e.child), cur.kind.Label()), err)
			}

			if visited[e.child] == nil {
				visited[e.child] = map[string]bool{}
			}
			var fresh []string
			for _, cid := range children {
				if !visited[e.child][cid] {
					visited[e.child][cid] = true
					fresh = append(fresh, cid)
				}
			}
			if len(fresh) == 0 {
				continue
			}

			n, err := execIn(ctx, tx,
				"UPDATE "+childTable+" SET archived_at = ?, updated_at = ? WHERE archived_at IS NULL AND id IN (?)",
				[]any{now, now}, fresh)
			if err != nil {
				return nil, dbErr(fmt.Sprintf("archiving %s", plural(e.child)), err)
			}
			result.Archived[e.child] += n
			traversed[e.child] = append(traversed[e.child], fresh...)
			queue = append(queue, level{kind: e.child, ids: fresh})
		}
	}

	for _, k := range model.Kinds {
		col, ok := noteColumns[k]
		if !ok || len(traversed[k]) == 0 {
			continue
		}
		n, err := execIn(ctx, tx,
			"UPDATE notes SET archived_at = ?, updated_at = ? WHERE archived_at IS NULL AND "+col+" IN (?)",
			[]any{now, now}, traversed[k])
		if err != nil {
			return nil, dbErr(fmt.Sprintf("archiving notes of %s", plural(k)), err)
		}
		result.Archived[model.KindNote] += n
	}

	if err := refreshProgress(ctx, tx, now, kind, id); err != nil {
		return nil, err
	}
	return result, nil
}

// ArchiveLifeAreaCascade archives a life area with its goals, projects,
// tasks and notes.
func (s *SQLiteStore) ArchiveLifeAreaCascade(ctx context.Context, id string) (*CascadeResult, error) {
	return s.ArchiveCascade(ctx, model.KindLifeArea, id)
}

// ArchiveGoalCascade archives a goal with its projects, tasks and notes.
func (s *SQLiteStore) ArchiveGoalCascade(ctx context.Context, id string) (*CascadeResult, error) {
	return s.ArchiveCascade(ctx, model.KindGoal, id)
}

// ArchiveProjectCascade archives a project with its tasks and notes.
func (s *SQLiteStore) ArchiveProjectCascade(ctx context.Context, id string) (*CascadeResult, error) {
	return s.ArchiveCascade(ctx, model.KindProject, id)
}

// ArchiveTaskCascade archives a task with its subtasks and notes.
func (s *SQLiteStore) ArchiveTaskCascade(ctx context.Context, id string) (*CascadeResult, error) {
	return s.ArchiveCascade(ctx, model.KindTask, id)
}

// Restore clears archived_at on exactly kind/id. Descendants that were
// archived with it stay archived. Restoring an active row is a no-op.
func (s *SQLiteStore) Restore(ctx context.Context, kind model.Kind, id string) error {
	table, ok := tables[kind]
	if !ok {
		return fmt.Errorf("restoring: unknown kind %q", kind)
	}

	restored := false
	err := s.inTx(ctx, "restore", func(tx *sqlx.Tx) error {
		now := s.now()
		result, err := tx.ExecContext(ctx,
			"UPDATE "+table+" SET archived_at = NULL, updated_at = ? WHERE id = ? AND archived_at IS NOT NULL",
			now, id)
		if err != nil {
			return dbErr(fmt.Sprintf("restoring %s %s", kind.Label(), id), err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			found, _, err := exists(ctx, tx, kind, id)
			if err != nil {
				return err
			}
			if !found {
				return notFound(kind, id)
			}
			return nil
		}
		restored = true
		return refreshProgress(ctx, tx, now, kind, id)
	})
	if err != nil {
		return err
	}
	if restored {
		s.logger.Info("restored", "kind", kind, "id", id)
	}
	return nil
}

// HardDelete physically removes kind/id. It fails with a *ConflictError
// if any row of a child kind still references it, archived or not.
// Attached notes are removed with it.
func (s *SQLiteStore) HardDelete(ctx context.Context, kind model.Kind, id string) error {
	err := s.inTx(ctx, "delete", func(tx *sqlx.Tx) error {
		return deleteTx(ctx, tx, s.now(), kind, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("deleted", "kind", kind, "id", id)
	return nil
}

func deleteTx(ctx context.Context, tx *sqlx.Tx, now time.Time, kind model.Kind, id string) error {
	table, ok := tables[kind]
	if !ok {
		return fmt.Errorf("deleting: unknown kind %q", kind)
	}

	found, _, err := exists(ctx, tx, kind, id)
	if err != nil {
		return err
	}
	if !found {
		return notFound(kind, id)
	}

	for _, e := range hierarchy {
		if e.parent != kind {
			continue
		}
		var count int
		if err := tx.GetContext(ctx, &count,
			"SELECT COUNT(*) FROM "+tables[e.child]+" WHERE "+e.fk+" = ?", id); err != nil {
			return dbErr(fmt.Sprintf("counting %s of %s %s", plural(e.child), kind.Label(), id), err)
		}
		if count > 0 {
			return &ConflictError{Kind: kind, ID: id, Dependent: e.child, Count: count}
		}
	}

	parent, err := progressParent(ctx, tx, kind, id)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return dbErr(fmt.Sprintf("deleting %s %s", kind.Label(), id), err)
	}
	if parent != nil {
		return recalculate(ctx, tx, now, parent.kind, parent.id)
	}
	return nil
}
