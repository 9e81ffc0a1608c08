// Package validate holds the form validation rules for the task editor.
// Failures here never reach the network; the TUI annotates the offending
// field with the returned message.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/todochimp/chimp/internal/model"
)

// DateLayout is the wire format for due dates in the form. Comparison is by
// date string, so "today" never trips the in-the-past rule regardless of the
// local clock's time of day.
const DateLayout = "2006-01-02"

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Title enforces the 3..100 character rule.
func Title(title string) error {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return errors.New("Title is required")
	case len(title) < 3:
		return errors.New("Title must be at least 3 characters")
	case len(title) > 100:
		return errors.New("Title must be at most 100 characters")
	}
	return nil
}

// DueDate rejects dates strictly before today. Empty is fine; a value that is
// not a date at all is also rejected.
func DueDate(due string, now time.Time) error {
	due = strings.TrimSpace(due)
	if due == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, due); err != nil {
		return errors.New("Due date must be YYYY-MM-DD")
	}
	if due < now.Format(DateLayout) {
		return errors.New("Due date cannot be in the past")
	}
	return nil
}

// Priority is required on every draft.
func Priority(p model.Priority) error {
	if p == "" {
		return errors.New("Priority is required")
	}
	return nil
}

// Email checks the standard local@domain.tld shape.
func Email(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return errors.New("Enter a valid email address")
	}
	return nil
}

// AssignmentRow enforces the symmetric RACI rule: email and role are
// both-or-neither, and a populated email must be well formed. A fully empty
// row is valid.
func AssignmentRow(email string, role model.RaciRole) error {
	email = strings.TrimSpace(email)
	hasEmail := email != ""
	hasRole := role != ""
	switch {
	case !hasEmail && !hasRole:
		return nil
	case hasEmail && !hasRole:
		return errors.New("RACI role is required when email is provided")
	case !hasEmail && hasRole:
		return errors.New("Email is required when RACI role is provided")
	}
	return Email(email)
}
