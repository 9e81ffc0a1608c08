package model

import "time"

// User is the authenticated account as returned by the auth endpoints.
type User struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             string `json:"role,omitempty"`
	OrganizationID   string `json:"organizationId,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
}

// Session is the persisted login state: the user plus the bearer token.
// Created at login or signup, destroyed at logout.
type Session struct {
	User    User      `json:"user"`
	Token   string    `json:"token"`
	SavedAt time.Time `json:"savedAt"`
}

// Valid reports whether the session carries enough to authenticate requests.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != ""
}
