package store

import "github.com/nhle/evorbrain/internal/migrate"

// Migrations is the ordered list of schema migrations. Released entries
// must never be edited; add a new version instead.
var Migrations = []migrate.Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: `
CREATE TABLE life_areas (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	icon        TEXT NOT NULL DEFAULT '',
	sort_order  INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	archived_at DATETIME
);

CREATE TABLE goals (
	id           TEXT PRIMARY KEY,
	life_area_id TEXT NOT NULL REFERENCES life_areas(id),
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'active'
		CHECK (status IN ('active', 'completed', 'paused', 'cancelled')),
	priority     TEXT NOT NULL DEFAULT 'medium'
		CHECK (priority IN ('low', 'medium', 'high', 'critical')),
	target_date  DATETIME,
	progress     INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
	completed_at DATETIME,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL,
	archived_at  DATETIME
);

CREATE TABLE projects (
	id           TEXT PRIMARY KEY,
	goal_id      TEXT NOT NULL REFERENCES goals(id),
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'planning'
		CHECK (status IN ('planning', 'active', 'completed', 'on_hold', 'cancelled')),
	priority     TEXT NOT NULL DEFAULT 'medium'
		CHECK (priority IN ('low', 'medium', 'high', 'critical')),
	start_date   DATETIME,
	due_date     DATETIME,
	progress     INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
	completed_at DATETIME,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL,
	archived_at  DATETIME
);

CREATE TABLE tasks (
	id                TEXT PRIMARY KEY,
	project_id        TEXT REFERENCES projects(id),
	parent_task_id    TEXT REFERENCES tasks(id),
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'todo'
		CHECK (status IN ('todo', 'in_progress', 'completed', 'cancelled')),
	priority          TEXT NOT NULL DEFAULT 'medium'
		CHECK (priority IN ('low', 'medium', 'high', 'critical')),
	due_date          DATETIME,
	estimated_minutes INTEGER,
	actual_minutes    INTEGER,
	recurrence_rule   TEXT,
	completed_at      DATETIME,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL,
	archived_at       DATETIME
);

CREATE TABLE notes (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	life_area_id TEXT REFERENCES life_areas(id) ON DELETE CASCADE,
	goal_id      TEXT REFERENCES goals(id) ON DELETE CASCADE,
	project_id   TEXT REFERENCES projects(id) ON DELETE CASCADE,
	task_id      TEXT REFERENCES tasks(id) ON DELETE CASCADE,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL,
	archived_at  DATETIME
);

CREATE INDEX idx_life_areas_archived ON life_areas(archived_at);
CREATE INDEX idx_goals_life_area ON goals(life_area_id);
CREATE INDEX idx_goals_archived ON goals(archived_at);
CREATE INDEX idx_projects_goal ON projects(goal_id);
CREATE INDEX idx_projects_archived ON projects(archived_at);
CREATE INDEX idx_tasks_project ON tasks(project_id);
CREATE INDEX idx_tasks_parent ON tasks(parent_task_id);
CREATE INDEX idx_tasks_due_date ON tasks(due_date);
CREATE INDEX idx_tasks_archived ON tasks(archived_at);
CREATE INDEX idx_notes_life_area ON notes(life_area_id);
CREATE INDEX idx_notes_goal ON notes(goal_id);
CREATE INDEX idx_notes_project ON notes(project_id);
CREATE INDEX idx_notes_task ON notes(task_id);
CREATE INDEX idx_notes_archived ON notes(archived_at);
`,
		Down: `
DROP TABLE IF EXISTS notes;
DROP TABLE IF EXISTS tasks;
DROP TABLE IF EXISTS projects;
DROP TABLE IF EXISTS goals;
DROP TABLE IF EXISTS life_areas;
`,
	},
	{
		Version:     2,
		Description: "Add tags system",
		Up: `
CREATE TABLE tags (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE COLLATE NOCASE,
	color      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE task_tags (
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, tag_id)
);

CREATE INDEX idx_task_tags_tag ON task_tags(tag_id);
`,
		Down: `
DROP TABLE IF EXISTS task_tags;
DROP TABLE IF EXISTS tags;
`,
	},
}
