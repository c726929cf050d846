package model

import "time"

// ListItem is the common interface for rows shown in the hierarchy browser.
// Every entity kind implements it.
type ListItem interface {
	GetID() string
	GetKind() Kind
	GetTitle() string
	GetDescription() string
	GetStatus() string
	GetPriority() Priority
	GetArchivedAt() *time.Time
	IsArchived() bool
}

// LifeArea implements ListItem.

func (a LifeArea) GetID() string             { return a.ID }
func (a LifeArea) GetKind() Kind             { return KindLifeArea }
func (a LifeArea) GetTitle() string          { return a.Name }
func (a LifeArea) GetDescription() string    { return a.Description }
func (a LifeArea) GetStatus() string         { return "" }
func (a LifeArea) GetPriority() Priority     { return "" }
func (a LifeArea) GetArchivedAt() *time.Time { return a.ArchivedAt }
func (a LifeArea) IsArchived() bool          { return a.ArchivedAt != nil }

// Goal implements ListItem.

func (g Goal) GetID() string             { return g.ID }
func (g Goal) GetKind() Kind             { return KindGoal }
func (g Goal) GetTitle() string          { return g.Title }
func (g Goal) GetDescription() string    { return g.Description }
func (g Goal) GetStatus() string         { return string(g.Status) }
func (g Goal) GetPriority() Priority     { return g.Priority }
func (g Goal) GetArchivedAt() *time.Time { return g.ArchivedAt }
func (g Goal) IsArchived() bool          { return g.ArchivedAt != nil }

// Project implements ListItem.

func (p Project) GetID() string             { return p.ID }
func (p Project) GetKind() Kind             { return KindProject }
func (p Project) GetTitle() string          { return p.Name }
func (p Project) GetDescription() string    { return p.Description }
func (p Project) GetStatus() string         { return string(p.Status) }
func (p Project) GetPriority() Priority     { return p.Priority }
func (p Project) GetArchivedAt() *time.Time { return p.ArchivedAt }
func (p Project) IsArchived() bool          { return p.ArchivedAt != nil }

// Task implements ListItem.

func (t Task) GetID() string             { return t.ID }
func (t Task) GetKind() Kind             { return KindTask }
func (t Task) GetTitle() string          { return t.Title }
func (t Task) GetDescription() string    { return t.Description }
func (t Task) GetStatus() string         { return string(t.Status) }
func (t Task) GetPriority() Priority     { return t.Priority }
func (t Task) GetArchivedAt() *time.Time { return t.ArchivedAt }
func (t Task) IsArchived() bool          { return t.ArchivedAt != nil }

// Note implements ListItem.

func (n Note) GetID() string             { return n.ID }
func (n Note) GetKind() Kind             { return KindNote }
func (n Note) GetTitle() string          { return n.Title }
func (n Note) GetDescription() string    { return n.Content }
func (n Note) GetStatus() string         { return "" }
func (n Note) GetPriority() Priority     { return "" }
func (n Note) GetArchivedAt() *time.Time { return n.ArchivedAt }
func (n Note) IsArchived() bool          { return n.ArchivedAt != nil }
