package api

import (
	"net/http"

	"github.com/todochimp/chimp/internal/model"
)

// ListAssignments fetches the RACI summary for a task.
func (c *Client) ListAssignments(taskID string) ([]model.RaciAssignment, error) {
	var rows []model.RaciAssignment
	if err := c.do(http.MethodGet, "/api/tasks/"+taskID+"/raci", nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateAssignments submits new draft rows as one batch.
func (c *Client) CreateAssignments(taskID string, rows []model.RaciAssignment) error {
	body := map[string][]model.RaciAssignment{"assignments": rows}
	return c.do(http.MethodPost, "/api/tasks/"+taskID+"/raci", nil, body, nil)
}

// UpdateAssignment changes the role of one persisted assignment.
func (c *Client) UpdateAssignment(id string, role model.RaciRole) error {
	body := map[string]model.RaciRole{"raciRole": role}
	return c.do(http.MethodPut, "/api/assignments/"+id, nil, body, nil)
}

// DeleteAssignment removes one persisted assignment.
func (c *Client) DeleteAssignment(id string) error {
	return c.do(http.MethodDelete, "/api/assignments/"+id, nil, nil, nil)
}
