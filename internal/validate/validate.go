// Package validate holds the field rules applied before any database write.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field limits.
const (
	MaxNameLength            = 100
	MaxDescriptionLength     = 500
	MaxTaskDescriptionLength = 2000
	MaxNoteContentLength     = 50000
	MaxRecurrenceRuleLength  = 500
	MaxMinutes               = 10080 // one week
)

// ErrInvalid is wrapped by every *Error.
var ErrInvalid = errors.New("validation failed")

// Error describes a single rejected field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalid.
func (e *Error) Unwrap() error { return ErrInvalid }

func invalid(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

var hexColor = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// Name trims s and checks it is a usable name or title. The trimmed
// value is returned.
func Name(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid(field, "cannot be empty")
	}
	if n := utf8.RuneCountInString(s); n > MaxNameLength {
		return "", invalid(field, "must be at most %d characters, got %d", MaxNameLength, n)
	}
	if strings.ContainsAny(s, "\x00\r") {
		return "", invalid(field, "contains invalid characters")
	}
	return s, nil
}

// Text checks free-form text against a length limit.
func Text(field, s string, max int) error {
	if n := utf8.RuneCountInString(s); n > max {
		return invalid(field, "must be at most %d characters, got %d", max, n)
	}
	if strings.ContainsRune(s, 0) {
		return invalid(field, "contains invalid characters")
	}
	return nil
}

// Description applies the default description limit.
func Description(s string) error {
	return Text("description", s, MaxDescriptionLength)
}

// Color accepts an empty string or a #rgb / #rrggbb hex color.
func Color(s string) error {
	if s == "" || hexColor.MatchString(s) {
		return nil
	}
	return invalid("color", "must be a hex color like #3B82F6 or #FFF")
}

// ID checks s is a UUID.
func ID(field, s string) error {
	if _, err := uuid.Parse(s); err != nil {
		return invalid(field, "must be a valid UUID")
	}
	return nil
}

// OptionalID checks s is nil or a UUID.
func OptionalID(field string, s *string) error {
	if s == nil {
		return nil
	}
	return ID(field, *s)
}

// DateRange checks start is not after end when both are set.
func DateRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return invalid("start_date", "must not be after the due date")
	}
	return nil
}

// Progress checks a percentage.
func Progress(p int) error {
	if p < 0 || p > 100 {
		return invalid("progress", "must be between 0 and 100, got %d", p)
	}
	return nil
}

// Minutes checks an optional time estimate.
func Minutes(field string, m *int) error {
	if m == nil {
		return nil
	}
	if *m < 0 || *m > MaxMinutes {
		return invalid(field, "must be between 0 and %d, got %d", MaxMinutes, *m)
	}
	return nil
}

var frequencies = map[string]bool{
	"DAILY":   true,
	"WEEKLY":  true,
	"MONTHLY": true,
	"YEARLY":  true,
}

// RecurrenceRule checks the supported RRULE subset: a FREQ part first,
// followed by optional semicolon-separated KEY=VALUE parts.
func RecurrenceRule(rule *string) error {
	if rule == nil || *rule == "" {
		return nil
	}
	r := *rule
	if len(r) > MaxRecurrenceRuleLength {
		return invalid("recurrence_rule", "must be at most %d characters", MaxRecurrenceRuleLength)
	}
	if !strings.HasPrefix(r, "FREQ=") {
		return invalid("recurrence_rule", "must start with FREQ=")
	}

	parts := strings.Split(r, ";")
	freq := strings.TrimPrefix(parts[0], "FREQ=")
	if !frequencies[freq] {
		return invalid("recurrence_rule", "unsupported frequency %q", freq)
	}
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" || v == "" {
			return invalid("recurrence_rule", "malformed part %q", p)
		}
	}
	return nil
}

// Join returns the first non-nil error. It keeps call sites that check
// several fields in a row on one line each.
func Join(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
