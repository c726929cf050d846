package browser

import (
	"context"
	"strings"
	"time"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
)

// Level is one step of the drill-down path. The root level lists life
// areas and has no parent.
type Level struct {
	Kind       model.Kind // kind of the listed rows
	ParentKind model.Kind
	ParentID   string
	Label      string // breadcrumb text
}

// Root is the life area listing.
var Root = Level{Kind: model.KindLifeArea, Label: "Life areas"}

// childLevel returns the level listing r's children.
func childLevel(r Row) Level {
	lv := Level{ParentKind: r.Kind, ParentID: r.ID, Label: r.Title}
	switch r.Kind {
	case model.KindLifeArea:
		lv.Kind = model.KindGoal
	case model.KindGoal:
		lv.Kind = model.KindProject
	default:
		lv.Kind = model.KindTask
	}
	return lv
}

// Row is one listed entity. Entity holds the underlying model value
// for prefilling edit forms.
type Row struct {
	Kind     model.Kind
	ID       string
	Title    string
	Icon     string
	Status   string
	Priority model.Priority
	Progress *int
	Due      *time.Time
	Archived bool
	Overdue  bool
	Entity   any
}

// rowFrom fills the fields every kind shares. entity is the pointer
// kept for prefilling edit forms.
func rowFrom(item model.ListItem, entity any) Row {
	return Row{
		Kind:     item.GetKind(),
		ID:       item.GetID(),
		Title:    item.GetTitle(),
		Status:   item.GetStatus(),
		Priority: item.GetPriority(),
		Archived: item.IsArchived(),
		Entity:   entity,
	}
}

// LoadRows lists the children of lv's parent.
func LoadRows(ctx context.Context, s store.Store, lv Level, showArchived bool, now time.Time) ([]Row, error) {
	var rows []Row
	switch lv.Kind {
	case model.KindLifeArea:
		areas, err := s.GetLifeAreas(ctx, showArchived)
		if err != nil {
			return nil, err
		}
		for i := range areas {
			r := rowFrom(areas[i], &areas[i])
			r.Icon = areas[i].Icon
			rows = append(rows, r)
		}

	case model.KindGoal:
		goals, err := s.GetGoals(ctx, store.GoalFilter{LifeAreaID: &lv.ParentID, IncludeArchived: showArchived})
		if err != nil {
			return nil, err
		}
		for i := range goals {
			g := &goals[i]
			r := rowFrom(*g, g)
			r.Progress, r.Due = &g.Progress, g.TargetDate
			rows = append(rows, r)
		}

	case model.KindProject:
		projects, err := s.GetProjects(ctx, store.ProjectFilter{GoalID: &lv.ParentID, IncludeArchived: showArchived})
		if err != nil {
			return nil, err
		}
		for i := range projects {
			p := &projects[i]
			r := rowFrom(*p, p)
			r.Progress, r.Due = &p.Progress, p.DueDate
			rows = append(rows, r)
		}

	case model.KindTask:
		filter := store.TaskFilter{IncludeArchived: showArchived}
		if lv.ParentKind == model.KindTask {
			filter.ParentTaskID = &lv.ParentID
		} else {
			filter.ProjectID = &lv.ParentID
			filter.TopLevel = true
		}
		tasks, err := s.GetTasks(ctx, filter)
		if err != nil {
			return nil, err
		}
		for i := range tasks {
			t := &tasks[i]
			r := rowFrom(*t, t)
			r.Due = t.DueDate
			r.Overdue = !r.Archived && t.IsOverdue(now)
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// cascadeSummary describes what archiving a row of kind k sweeps along.
func cascadeSummary(k model.Kind) string {
	var below []string
	switch k {
	case model.KindLifeArea:
		below = []string{"goals", "projects", "tasks"}
	case model.KindGoal:
		below = []string{"projects", "tasks"}
	case model.KindProject:
		below = []string{"tasks"}
	case model.KindTask:
		below = []string{"subtasks"}
	}
	below = append(below, "notes")
	if len(below) == 1 {
		return "Its " + below[0] + " are archived too."
	}
	return "Its " + strings.Join(below[:len(below)-1], ", ") + " and " + below[len(below)-1] + " are archived too."
}
