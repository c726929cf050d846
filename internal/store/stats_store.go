package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/evorbrain/internal/model"
)

// Stats summarizes the contents of the database.
type Stats struct {
	Active         map[model.Kind]int `json:"active"`
	CompletedTasks int                `json:"completed_tasks"`
	OverdueTasks   int                `json:"overdue_tasks"`
	Archived       int                `json:"archived"`
}

// Stats counts active rows per kind, completed and overdue tasks, and
// archived rows across all kinds.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Active: map[model.Kind]int{}}
	for _, kind := range model.Kinds {
		var counts struct {
			Active   int `db:"active"`
			Archived int `db:"archived"`
		}
		err := s.db.GetContext(ctx, &counts, `
			SELECT COUNT(CASE WHEN archived_at IS NULL THEN 1 END) AS active,
			       COUNT(archived_at) AS archived
			FROM `+tables[kind])
		if err != nil {
			return nil, dbErr(fmt.Sprintf("counting %s", plural(kind)), err)
		}
		st.Active[kind] = counts.Active
		st.Archived += counts.Archived
	}

	if err := s.db.GetContext(ctx, &st.CompletedTasks,
		"SELECT COUNT(*) FROM tasks WHERE archived_at IS NULL AND status = 'completed'"); err != nil {
		return nil, dbErr("counting completed tasks", err)
	}
	if err := s.db.GetContext(ctx, &st.OverdueTasks,
		"SELECT COUNT(*) FROM tasks WHERE "+openTask+" AND due_date < ?", s.now()); err != nil {
		return nil, dbErr("counting overdue tasks", err)
	}
	return st, nil
}

// CleanupResult reports how many archived rows Cleanup removed.
type CleanupResult struct {
	Cutoff   time.Time          `json:"cutoff"`
	Deleted  map[model.Kind]int `json:"deleted"`
	Vacuumed bool               `json:"vacuumed"`
}

// Total returns the number of rows deleted.
func (r *CleanupResult) Total() int {
	n := 0
	for _, c := range r.Deleted {
		n += c
	}
	return n
}

// Cleanup hard-deletes rows archived more than olderThanDays days ago,
// leaves first. A row that still has children of any state is kept. With
// vacuum set the database file is compacted afterwards.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThanDays int, vacuum bool) (*CleanupResult, error) {
	if olderThanDays < 0 {
		return nil, fmt.Errorf("%w: older-than days must not be negative", ErrValidation)
	}
	result := &CleanupResult{
		Cutoff:  s.now().AddDate(0, 0, -olderThanDays),
		Deleted: map[model.Kind]int{},
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, dbErr("beginning transaction", err)
	}
	defer tx.Rollback()

	del := func(kind model.Kind, guard string) (int, error) {
		q := "DELETE FROM " + tables[kind] + " WHERE archived_at IS NOT NULL AND archived_at < ?"
		if guard != "" {
			q += " AND NOT EXISTS (" + guard + ")"
		}
		res, err := tx.ExecContext(ctx, q, result.Cutoff)
		if err != nil {
			return 0, dbErr(fmt.Sprintf("cleaning up %s", plural(kind)), err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	}

	n, err := del(model.KindNote, "")
	if err != nil {
		return nil, err
	}
	result.Deleted[model.KindNote] = n

	// Subtask chains are removed one level per pass.
	for {
		n, err := del(model.KindTask, "SELECT 1 FROM tasks c WHERE c.parent_task_id = tasks.id")
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		result.Deleted[model.KindTask] += n
	}

	steps := []struct {
		kind  model.Kind
		guard string
	}{
		{model.KindProject, "SELECT 1 FROM tasks c WHERE c.project_id = projects.id"},
		{model.KindGoal, "SELECT 1 FROM projects c WHERE c.goal_id = goals.id"},
		{model.KindLifeArea, "SELECT 1 FROM goals c WHERE c.life_area_id = life_areas.id"},
	}
	for _, step := range steps {
		n, err := del(step.kind, step.guard)
		if err != nil {
			return nil, err
		}
		result.Deleted[step.kind] = n
	}

	if err := tx.Commit(); err != nil {
		return nil, dbErr("committing cleanup", err)
	}
	s.logger.Info("cleanup finished", "cutoff", result.Cutoff, "deleted", result.Total())

	if vacuum {
		if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
			return result, dbErr("vacuuming database", err)
		}
		result.Vacuumed = true
	}
	return result, nil
}

// HealthReport describes the state of the database connection.
type HealthReport struct {
	OK              bool          `json:"ok"`
	Latency         time.Duration `json:"latency"`
	JournalMode     string        `json:"journal_mode"`
	ForeignKeys     bool          `json:"foreign_keys"`
	Synchronous     int           `json:"synchronous"`
	BusyTimeoutMS   int           `json:"busy_timeout_ms"`
	UserVersion     int           `json:"user_version"`
	LatestMigration int64         `json:"latest_migration"`
	Error           string        `json:"error,omitempty"`
}

// Health pings the database, round-trips an empty transaction and reads
// the connection pragmas. A failed check is reported in the returned
// report as well as the error.
func (s *SQLiteStore) Health(ctx context.Context) (*HealthReport, error) {
	report := &HealthReport{}
	fail := func(err error) (*HealthReport, error) {
		report.Error = err.Error()
		return report, err
	}

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return fail(dbErr("pinging database", err))
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fail(dbErr("beginning transaction", err))
	}
	if err := tx.Commit(); err != nil {
		return fail(dbErr("committing transaction", err))
	}
	report.Latency = time.Since(start)

	// Pragmas are per connection, so read them all from one.
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fail(dbErr("acquiring connection", err))
	}
	defer conn.Close()

	var fk int
	pragmas := []struct {
		name string
		dest any
	}{
		{"journal_mode", &report.JournalMode},
		{"foreign_keys", &fk},
		{"synchronous", &report.Synchronous},
		{"busy_timeout", &report.BusyTimeoutMS},
		{"user_version", &report.UserVersion},
	}
	for _, p := range pragmas {
		if err := conn.GetContext(ctx, p.dest, "PRAGMA "+p.name); err != nil {
			return fail(dbErr("reading pragma "+p.name, err))
		}
	}
	report.ForeignKeys = fk == 1

	latest, _, err := s.ledger.LatestVersion(ctx)
	if err != nil {
		return fail(err)
	}
	report.LatestMigration = latest
	report.OK = true
	return report, nil
}
