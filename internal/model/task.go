package model

import "time"

// Task is a unit of work. ProjectID is nil for standalone tasks and
// ParentTaskID is set for subtasks.
type Task struct {
	ID               string     `json:"id" db:"id"`
	ProjectID        *string    `json:"project_id,omitempty" db:"project_id"`
	ParentTaskID     *string    `json:"parent_task_id,omitempty" db:"parent_task_id"`
	Title            string     `json:"title" db:"title"`
	Description      string     `json:"description" db:"description"`
	Status           TaskStatus `json:"status" db:"status"`
	Priority         Priority   `json:"priority" db:"priority"`
	DueDate          *time.Time `json:"due_date,omitempty" db:"due_date"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty" db:"estimated_minutes"`
	ActualMinutes    *int       `json:"actual_minutes,omitempty" db:"actual_minutes"`
	RecurrenceRule   *string    `json:"recurrence_rule,omitempty" db:"recurrence_rule"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt       *time.Time `json:"archived_at,omitempty" db:"archived_at"`

	// Tags is populated by queries that join with task_tags.
	Tags []Tag `json:"tags,omitempty" db:"-"`
}

// IsOverdue reports whether the task has a due date in the past and is
// still open.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled {
		return false
	}
	return t.DueDate.Before(now)
}

// TaskUpdate carries the fields to change. Nil fields are left as-is.
type TaskUpdate struct {
	Title            *string
	Description      *string
	Status           *TaskStatus
	Priority         *Priority
	DueDate          *time.Time
	EstimatedMinutes *int
	ActualMinutes    *int
	RecurrenceRule   *string

	// ClearDueDate removes the due date and takes precedence over DueDate.
	ClearDueDate bool
}

// Empty reports whether no field is set.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.DueDate == nil && u.EstimatedMinutes == nil &&
		u.ActualMinutes == nil && u.RecurrenceRule == nil && !u.ClearDueDate
}
