package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
)

// NewTestStore creates a file-backed SQLiteStore in a temp directory with
// all migrations applied. A file is used rather than ":memory:" because
// every pooled connection must see the same database. The store is
// closed when the test completes.
func NewTestStore(t *testing.T, opts ...store.Option) *store.SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLiteStore(path, opts...)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Clock is a settable time source for store.WithClock.
type Clock struct {
	T time.Time
}

// NewClock returns a clock fixed at a known instant.
func NewClock() *Clock {
	return &Clock{T: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return c.T }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Hierarchy is one branch of seeded fixtures.
type Hierarchy struct {
	Area    *model.LifeArea
	Goal    *model.Goal
	Project *model.Project
	Tasks   []*model.Task
	Subtask *model.Task
	Notes   []*model.Note
}

// SeedHierarchy creates an area with one goal, one project, two tasks, a
// subtask under the first task and a note at every level.
func SeedHierarchy(t *testing.T, s *store.SQLiteStore) *Hierarchy {
	t.Helper()
	ctx := context.Background()
	h := &Hierarchy{}

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}

	var err error
	h.Area, err = s.CreateLifeArea(ctx, model.LifeArea{Name: "Health", Color: "#22aa66"})
	must(err)
	h.Goal, err = s.CreateGoal(ctx, model.Goal{LifeAreaID: h.Area.ID, Title: "Run a marathon"})
	must(err)
	h.Project, err = s.CreateProject(ctx, model.Project{GoalID: h.Goal.ID, Name: "Training plan"})
	must(err)

	for _, title := range []string{"Buy shoes", "Long run"} {
		task, err := s.CreateTask(ctx, model.Task{ProjectID: &h.Project.ID, Title: title})
		must(err)
		h.Tasks = append(h.Tasks, task)
	}
	h.Subtask, err = s.CreateTask(ctx, model.Task{ParentTaskID: &h.Tasks[0].ID, Title: "Measure feet"})
	must(err)

	notes := []model.Note{
		{Title: "Why", LifeAreaID: &h.Area.ID},
		{Title: "Race options", GoalID: &h.Goal.ID},
		{Title: "Schedule", ProjectID: &h.Project.ID},
		{Title: "Shoe sizes", TaskID: &h.Tasks[0].ID},
	}
	for _, n := range notes {
		note, err := s.CreateNote(ctx, n)
		must(err)
		h.Notes = append(h.Notes, note)
	}
	return h
}
