package model

import (
	"fmt"
	"strings"
)

// RaciRole is one of the four RACI responsibility roles.
type RaciRole string

const (
	RaciResponsible RaciRole = "RESPONSIBLE"
	RaciAccountable RaciRole = "ACCOUNTABLE"
	RaciConsulted   RaciRole = "CONSULTED"
	RaciInformed    RaciRole = "INFORMED"
)

// RaciRoles lists the selectable roles in form order.
func RaciRoles() []RaciRole {
	return []RaciRole{RaciResponsible, RaciAccountable, RaciConsulted, RaciInformed}
}

// ParseRaciRole normalizes a raw value into a RaciRole.
func ParseRaciRole(value string) (RaciRole, error) {
	r := RaciRole(strings.ToUpper(strings.TrimSpace(value)))
	switch r {
	case RaciResponsible, RaciAccountable, RaciConsulted, RaciInformed:
		return r, nil
	}
	return "", fmt.Errorf("unknown raci role %q", value)
}

// FriendlyName renders a role for display ("Responsible").
func (r RaciRole) FriendlyName() string {
	return friendlyLabel(string(r))
}

// AssignmentStatus tracks whether the assigned user has accepted.
type AssignmentStatus string

const (
	AssignmentActive  AssignmentStatus = "ACTIVE"
	AssignmentPending AssignmentStatus = "PENDING"
)

// RaciAssignment is one persisted role assignment on a task. Rows without an
// ID exist only in the form draft and have not been sent to the backend.
type RaciAssignment struct {
	ID       string           `json:"id,omitempty"`
	Email    string           `json:"email"`
	RaciRole RaciRole         `json:"raciRole"`
	Status   AssignmentStatus `json:"status,omitempty"`
}

// Persisted reports whether the assignment exists on the backend.
func (a RaciAssignment) Persisted() bool {
	return strings.TrimSpace(a.ID) != ""
}

// Empty reports whether the row carries no data at all. Empty rows are legal
// in the form and are stripped before submission.
func (a RaciAssignment) Empty() bool {
	return strings.TrimSpace(a.Email) == "" && a.RaciRole == ""
}
