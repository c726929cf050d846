package model

import "time"

// LifeArea is the top of the hierarchy, e.g. "Health" or "Career".
type LifeArea struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Color       string     `json:"color" db:"color"`
	Icon        string     `json:"icon" db:"icon"`
	SortOrder   int        `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

// LifeAreaUpdate carries the fields to change. Nil fields are left as-is.
type LifeAreaUpdate struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
}

// Empty reports whether no field is set.
func (u LifeAreaUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Color == nil && u.Icon == nil
}
