package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the task priority level as the backend stores it.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Status is the task lifecycle state as the backend stores it.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusOverdue    Status = "OVERDUE"
)

// Priorities lists the selectable priorities in form order.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// Statuses lists the selectable statuses in form order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusOverdue}
}

// ParsePriority normalizes a raw value into a Priority.
func ParsePriority(value string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(value)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", value)
}

// ParseStatus normalizes a raw value into a Status.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusOverdue:
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", value)
}

// FriendlyName renders a status for display ("In Progress").
func (s Status) FriendlyName() string {
	return friendlyLabel(string(s))
}

// FriendlyName renders a priority for display ("Medium").
func (p Priority) FriendlyName() string {
	return friendlyLabel(string(p))
}

func friendlyLabel(value string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(value), "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// UserRef is a lightweight reference to a user embedded in task payloads.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Task is one task row as returned by the backend.
type Task struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	DueDate        string    `json:"dueDate,omitempty"`
	Priority       Priority  `json:"priority"`
	Status         Status    `json:"status"`
	CreatedBy      *UserRef  `json:"createdBy,omitempty"`
	AssignedTo     *UserRef  `json:"assignedTo,omitempty"`
	OrganizationID string    `json:"organizationId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CreatorID returns the creating user's id, or empty when unknown.
func (t Task) CreatorID() string {
	if t.CreatedBy == nil {
		return ""
	}
	return t.CreatedBy.ID
}

// AssigneeID returns the assigned user's id, or empty when unassigned.
func (t Task) AssigneeID() string {
	if t.AssignedTo == nil {
		return ""
	}
	return t.AssignedTo.ID
}

// Comment is one task comment. Append-only from the client's point of view.
type Comment struct {
	ID        string    `json:"id"`
	Author    *UserRef  `json:"author,omitempty"`
	Body      string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Attachment is one uploaded file on a task.
type Attachment struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Content    string    `json:"fileContent,omitempty"` // base64
	UploadedAt time.Time `json:"uploadedAt"`
}
