package model

import "time"

// Goal belongs to a life area and groups projects.
type Goal struct {
	ID          string     `json:"id" db:"id"`
	LifeAreaID  string     `json:"life_area_id" db:"life_area_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      GoalStatus `json:"status" db:"status"`
	Priority    Priority   `json:"priority" db:"priority"`
	TargetDate  *time.Time `json:"target_date,omitempty" db:"target_date"`
	Progress    int        `json:"progress" db:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

// GoalUpdate carries the fields to change. Nil fields are left as-is.
type GoalUpdate struct {
	Title       *string
	Description *string
	Status      *GoalStatus
	Priority    *Priority
	TargetDate  *time.Time
	Progress    *int
}

// Empty reports whether no field is set.
func (u GoalUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.TargetDate == nil && u.Progress == nil
}
