package model

import "fmt"

// Kind identifies one level of the Life Area → Goal → Project → Task
// hierarchy, plus the Note attachments that hang off any of them.
type Kind string

const (
	KindLifeArea Kind = "life_area"
	KindGoal     Kind = "goal"
	KindProject  Kind = "project"
	KindTask     Kind = "task"
	KindNote     Kind = "note"
)

// Kinds lists the hierarchy levels from the root down.
var Kinds = []Kind{KindLifeArea, KindGoal, KindProject, KindTask, KindNote}

// ParseKind accepts the canonical names plus the short CLI aliases.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "life_area", "area", "life-area":
		return KindLifeArea, nil
	case "goal":
		return KindGoal, nil
	case "project":
		return KindProject, nil
	case "task":
		return KindTask, nil
	case "note":
		return KindNote, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Label returns a human-readable name for the kind.
func (k Kind) Label() string {
	switch k {
	case KindLifeArea:
		return "life area"
	default:
		return string(k)
	}
}
