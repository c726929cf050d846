package model

import "time"

// Note is free-form text attached to at most one entity of each kind.
type Note struct {
	ID         string     `json:"id" db:"id"`
	Title      string     `json:"title" db:"title"`
	Content    string     `json:"content" db:"content"`
	LifeAreaID *string    `json:"life_area_id,omitempty" db:"life_area_id"`
	GoalID     *string    `json:"goal_id,omitempty" db:"goal_id"`
	ProjectID  *string    `json:"project_id,omitempty" db:"project_id"`
	TaskID     *string    `json:"task_id,omitempty" db:"task_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

// NoteUpdate carries the fields to change. Nil fields are left as-is.
type NoteUpdate struct {
	Title   *string
	Content *string
}

// Empty reports whether no field is set.
func (u NoteUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil
}
