package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/todochimp/chimp/internal/model"
)

// Dashboard filter labels. Anything outside this set is treated as a literal
// status filter and uppercased on the wire.
const (
	FilterAll          = "All"
	FilterAssignedToMe = "Assigned to Me"
	FilterCreatedByMe  = "Created by Me"
	FilterCompleted    = "Completed"
)

// Filters lists the dashboard filter cycle in display order.
func Filters() []string {
	return []string{FilterAll, FilterAssignedToMe, FilterCreatedByMe, FilterCompleted}
}

// TaskQuery is the dashboard's list state, rebuilt into query parameters on
// every fetch.
type TaskQuery struct {
	Page          int
	PageSize      int
	Search        string
	SortBy        string
	SortOrder     string
	Filter        string
	CurrentUserID string
}

// Values encodes the query. The filter mapping is part of the dashboard
// contract: "Assigned to Me" and "Created by Me" turn into user-id
// parameters, "All" adds nothing, and any other label becomes an uppercased
// status parameter.
func (q TaskQuery) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("limit", strconv.Itoa(q.PageSize))
	if s := strings.TrimSpace(q.Search); s != "" {
		values.Set("search", s)
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		values.Set("sortOrder", q.SortOrder)
	}
	switch strings.TrimSpace(q.Filter) {
	case "", FilterAll:
	case FilterAssignedToMe:
		values.Set("assignedToId", q.CurrentUserID)
	case FilterCreatedByMe:
		values.Set("createdById", q.CurrentUserID)
	default:
		values.Set("status", strings.ToUpper(strings.TrimSpace(q.Filter)))
	}
	return values
}

// TaskPage is one fetched page of the task list.
type TaskPage struct {
	Tasks      []model.Task `json:"tasks"`
	TotalPages int          `json:"totalPages"`
}

// TaskPayload is the create/update request body. Empty optional fields are
// dropped from the JSON entirely.
type TaskPayload struct {
	Title          string                 `json:"title,omitempty"`
	Description    string                 `json:"description,omitempty"`
	DueDate        string                 `json:"dueDate,omitempty"` // ISO datetime
	Priority       model.Priority         `json:"priority,omitempty"`
	Status         model.Status           `json:"status,omitempty"`
	AssignedToID   string                 `json:"assignedToId,omitempty"`
	OrganizationID string                 `json:"organizationId,omitempty"`
	CreatedByID    string                 `json:"createdById,omitempty"`
	Raci           []model.RaciAssignment `json:"raci,omitempty"`
}

// ListTasks fetches one page of the task list.
func (c *Client) ListTasks(q TaskQuery) (TaskPage, error) {
	var page TaskPage
	if err := c.do(http.MethodGet, "/api/tasks", q.Values(), nil, &page); err != nil {
		return TaskPage{}, err
	}
	return page, nil
}

// CreateTask posts a new task, including any non-empty RACI rows in the
// payload.
func (c *Client) CreateTask(payload TaskPayload) (model.Task, error) {
	var task model.Task
	if err := c.do(http.MethodPost, "/api/tasks", nil, payload, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(id string) (model.Task, error) {
	var task model.Task
	if err := c.do(http.MethodGet, "/api/tasks/"+id, nil, nil, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// UpdateTask sends the full edit payload.
func (c *Client) UpdateTask(id string, payload TaskPayload) (model.Task, error) {
	var task model.Task
	if err := c.do(http.MethodPut, "/api/tasks/"+id, nil, payload, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// UpdateTaskStatus sends a status-only update. Used by mark-complete and by
// assignees who may not touch any other field.
func (c *Client) UpdateTaskStatus(id string, status model.Status) error {
	return c.do(http.MethodPut, "/api/tasks/"+id, nil, TaskPayload{Status: status}, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(id string) error {
	return c.do(http.MethodDelete, "/api/tasks/"+id, nil, nil, nil)
}
