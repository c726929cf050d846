package store

import (
	"context"

	"github.com/nhle/evorbrain/internal/migrate"
	"github.com/nhle/evorbrain/internal/model"
)

// GoalFilter controls which goals GetGoals returns.
type GoalFilter struct {
	LifeAreaID      *string
	Status          *model.GoalStatus
	IncludeArchived bool
}

// ProjectFilter controls which projects GetProjects returns.
type ProjectFilter struct {
	GoalID          *string
	Status          *model.ProjectStatus
	IncludeArchived bool
}

// TaskFilter controls which tasks GetTasks returns.
type TaskFilter struct {
	ProjectID    *string
	ParentTaskID *string
	TopLevel     bool // only tasks without a parent; ignored when ParentTaskID is set
	Status       *model.TaskStatus
	Priority     *model.Priority

	IncludeArchived bool
}

// NoteFilter restricts GetNotes to notes attached to ParentKind/ParentID.
// A zero ParentKind lists every note.
type NoteFilter struct {
	ParentKind      model.Kind
	ParentID        string
	IncludeArchived bool
}

// Store defines the persistence interface for the life area → goal →
// project → task hierarchy and the notes and tags attached to it.
type Store interface {
	// === Life areas ===

	CreateLifeArea(ctx context.Context, area model.LifeArea) (*model.LifeArea, error)
	GetLifeArea(ctx context.Context, id string) (*model.LifeArea, error)
	GetLifeAreas(ctx context.Context, includeArchived bool) ([]model.LifeArea, error)
	UpdateLifeArea(ctx context.Context, id string, upd model.LifeAreaUpdate) (*model.LifeArea, error)
	ReorderLifeAreas(ctx context.Context, ids []string) error
	DeleteLifeArea(ctx context.Context, id string) error

	// === Goals ===

	CreateGoal(ctx context.Context, goal model.Goal) (*model.Goal, error)
	GetGoal(ctx context.Context, id string) (*model.Goal, error)
	GetGoals(ctx context.Context, filter GoalFilter) ([]model.Goal, error)
	UpdateGoal(ctx context.Context, id string, upd model.GoalUpdate) (*model.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	RecalculateGoalProgress(ctx context.Context, id string) (int, error)

	// === Projects ===

	CreateProject(ctx context.Context, project model.Project) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	GetProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	UpdateProject(ctx context.Context, id string, upd model.ProjectUpdate) (*model.Project, error)
	DeleteProject(ctx context.Context, id string) error
	RecalculateProjectProgress(ctx context.Context, id string) (int, error)

	// === Tasks ===

	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTasksDueToday(ctx context.Context) ([]model.Task, error)
	GetOverdueTasks(ctx context.Context) ([]model.Task, error)
	UpdateTask(ctx context.Context, id string, upd model.TaskUpdate) (*model.Task, error)
	ToggleTaskComplete(ctx context.Context, id string) (*model.Task, error)
	BulkUpdateTaskStatus(ctx context.Context, ids []string, status model.TaskStatus) (int, error)
	DeleteTask(ctx context.Context, id string) error

	// === Notes ===

	CreateNote(ctx context.Context, note model.Note) (*model.Note, error)
	GetNote(ctx context.Context, id string) (*model.Note, error)
	GetNotes(ctx context.Context, filter NoteFilter) ([]model.Note, error)
	SearchNotes(ctx context.Context, query string, includeArchived bool) ([]model.Note, error)
	UpdateNote(ctx context.Context, id string, upd model.NoteUpdate) (*model.Note, error)
	ArchiveNote(ctx context.Context, id string) (*CascadeResult, error)
	DeleteNote(ctx context.Context, id string) error

	// === Tags ===

	CreateTag(ctx context.Context, tag model.Tag) (*model.Tag, error)
	GetTags(ctx context.Context) ([]model.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	SetTaskTags(ctx context.Context, taskID string, tagIDs []string) error
	GetTagsForTask(ctx context.Context, taskID string) ([]model.Tag, error)

	// === Archive, restore and delete across kinds ===

	ArchiveCascade(ctx context.Context, kind model.Kind, id string) (*CascadeResult, error)
	ArchiveLifeAreaCascade(ctx context.Context, id string) (*CascadeResult, error)
	ArchiveGoalCascade(ctx context.Context, id string) (*CascadeResult, error)
	ArchiveProjectCascade(ctx context.Context, id string) (*CascadeResult, error)
	ArchiveTaskCascade(ctx context.Context, id string) (*CascadeResult, error)
	Restore(ctx context.Context, kind model.Kind, id string) error
	HardDelete(ctx context.Context, kind model.Kind, id string) error
	ArchiveBatch(ctx context.Context, kind model.Kind, ids []string) (*BatchResult, error)
	DeleteBatch(ctx context.Context, kind model.Kind, ids []string) (*BatchResult, error)

	// === Maintenance ===

	Stats(ctx context.Context) (*Stats, error)
	Cleanup(ctx context.Context, olderThanDays int, vacuum bool) (*CleanupResult, error)
	Health(ctx context.Context) (*HealthReport, error)
	Export(ctx context.Context, includeArchived bool) (*Export, error)
	Ledger() *migrate.Ledger

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
