package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/store"
)

const dateLayout = "2006-01-02"

// formBindings holds the values huh writes into. It is shared by
// pointer so the form keeps writing to the same fields after the model
// is copied.
type formBindings struct {
	title       string
	description string
	color       string
	icon        string
	status      string
	priority    string
	date        string
	confirm     bool
}

// reset fills fb from row, or with defaults for a new entity of kind.
func (fb *formBindings) reset(kind model.Kind, row *Row) {
	*fb = formBindings{priority: string(model.PriorityMedium)}
	switch kind {
	case model.KindLifeArea:
		fb.color, fb.icon = "#5B9BD5", "📁"
	case model.KindGoal:
		fb.status = string(model.GoalStatusActive)
	case model.KindProject:
		fb.status = string(model.ProjectStatusPlanning)
	case model.KindTask:
		fb.status = string(model.TaskStatusTodo)
	}
	if row == nil {
		return
	}

	switch e := row.Entity.(type) {
	case *model.LifeArea:
		fb.title, fb.description, fb.color, fb.icon = e.Name, e.Description, e.Color, e.Icon
	case *model.Goal:
		fb.title, fb.description = e.Title, e.Description
		fb.status, fb.priority, fb.date = string(e.Status), string(e.Priority), formatDate(e.TargetDate)
	case *model.Project:
		fb.title, fb.description = e.Name, e.Description
		fb.status, fb.priority, fb.date = string(e.Status), string(e.Priority), formatDate(e.DueDate)
	case *model.Task:
		fb.title, fb.description = e.Title, e.Description
		fb.status, fb.priority, fb.date = string(e.Status), string(e.Priority), formatDate(e.DueDate)
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(dateLayout)
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("use YYYY-MM-DD")
	}
	return &t, nil
}

func options[T ~string](values []T) []huh.Option[string] {
	opts := make([]huh.Option[string], len(values))
	for i, v := range values {
		opts[i] = huh.NewOption(strings.ReplaceAll(string(v), "_", " "), string(v))
	}
	return opts
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// fields returns the inputs for kind bound to fb.
func (fb *formBindings) fields(kind model.Kind) []huh.Field {
	label := "Title"
	if kind == model.KindLifeArea || kind == model.KindProject {
		label = "Name"
	}
	fields := []huh.Field{
		huh.NewInput().
			Title(label).
			Value(&fb.title).
			Validate(required),
		huh.NewText().
			Title("Description").
			Placeholder("Optional").
			Value(&fb.description),
	}

	if kind == model.KindLifeArea {
		return append(fields,
			huh.NewInput().Title("Color").Placeholder("#5B9BD5").Value(&fb.color),
			huh.NewInput().Title("Icon").Placeholder("📁").Value(&fb.icon),
		)
	}

	var statuses []huh.Option[string]
	dateLabel := "Due date"
	switch kind {
	case model.KindGoal:
		statuses = options(model.GoalStatuses)
		dateLabel = "Target date"
	case model.KindProject:
		statuses = options(model.ProjectStatuses)
	case model.KindTask:
		statuses = options(model.TaskStatuses)
	}
	return append(fields,
		huh.NewSelect[string]().Title("Status").Options(statuses...).Value(&fb.status),
		huh.NewSelect[string]().Title("Priority").Options(options(model.Priorities)...).Value(&fb.priority),
		huh.NewInput().
			Title(dateLabel).
			Placeholder("YYYY-MM-DD").
			Value(&fb.date).
			Validate(func(s string) error {
				_, err := parseDate(s)
				return err
			}),
	)
}

// save creates a child of lv's parent, or updates editID when set.
func save(ctx context.Context, s store.Store, lv Level, editID string, fb formBindings) error {
	date, err := parseDate(fb.date)
	if err != nil {
		return err
	}
	priority := model.Priority(fb.priority)

	switch lv.Kind {
	case model.KindLifeArea:
		if editID != "" {
			_, err = s.UpdateLifeArea(ctx, editID, model.LifeAreaUpdate{
				Name: &fb.title, Description: &fb.description, Color: &fb.color, Icon: &fb.icon,
			})
			return err
		}
		_, err = s.CreateLifeArea(ctx, model.LifeArea{
			Name: fb.title, Description: fb.description, Color: fb.color, Icon: fb.icon,
		})
		return err

	case model.KindGoal:
		status := model.GoalStatus(fb.status)
		if editID != "" {
			_, err = s.UpdateGoal(ctx, editID, model.GoalUpdate{
				Title: &fb.title, Description: &fb.description, Status: &status,
				Priority: &priority, TargetDate: date,
			})
			return err
		}
		_, err = s.CreateGoal(ctx, model.Goal{
			LifeAreaID: lv.ParentID, Title: fb.title, Description: fb.description,
			Status: status, Priority: priority, TargetDate: date,
		})
		return err

	case model.KindProject:
		status := model.ProjectStatus(fb.status)
		if editID != "" {
			_, err = s.UpdateProject(ctx, editID, model.ProjectUpdate{
				Name: &fb.title, Description: &fb.description, Status: &status,
				Priority: &priority, DueDate: date,
			})
			return err
		}
		_, err = s.CreateProject(ctx, model.Project{
			GoalID: lv.ParentID, Name: fb.title, Description: fb.description,
			Status: status, Priority: priority, DueDate: date,
		})
		return err

	case model.KindTask:
		status := model.TaskStatus(fb.status)
		if editID != "" {
			_, err = s.UpdateTask(ctx, editID, model.TaskUpdate{
				Title: &fb.title, Description: &fb.description, Status: &status,
				Priority: &priority, DueDate: date, ClearDueDate: date == nil,
			})
			return err
		}
		task := model.Task{
			Title: fb.title, Description: fb.description,
			Status: status, Priority: priority, DueDate: date,
		}
		parent := lv.ParentID
		if lv.ParentKind == model.KindTask {
			task.ParentTaskID = &parent
		} else {
			task.ProjectID = &parent
		}
		_, err = s.CreateTask(ctx, task)
		return err
	}
	return fmt.Errorf("%w: cannot create %s here", store.ErrValidation, lv.Kind)
}
