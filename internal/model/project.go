package model

import "time"

// Project belongs to a goal and groups tasks.
type Project struct {
	ID          string        `json:"id" db:"id"`
	GoalID      string        `json:"goal_id" db:"goal_id"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description" db:"description"`
	Status      ProjectStatus `json:"status" db:"status"`
	Priority    Priority      `json:"priority" db:"priority"`
	StartDate   *time.Time    `json:"start_date,omitempty" db:"start_date"`
	DueDate     *time.Time    `json:"due_date,omitempty" db:"due_date"`
	Progress    int           `json:"progress" db:"progress"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
	ArchivedAt  *time.Time    `json:"archived_at,omitempty" db:"archived_at"`
}

// ProjectUpdate carries the fields to change. Nil fields are left as-is.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *ProjectStatus
	Priority    *Priority
	StartDate   *time.Time
	DueDate     *time.Time
}

// Empty reports whether no field is set.
func (u ProjectUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.StartDate == nil && u.DueDate == nil
}
