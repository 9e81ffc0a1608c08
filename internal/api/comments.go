package api

import (
	"net/http"

	"github.com/todochimp/chimp/internal/model"
)

// ListComments fetches every comment on a task, oldest first.
func (c *Client) ListComments(taskID string) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.do(http.MethodGet, "/api/tasks/"+taskID+"/comments", nil, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment appends a comment. Callers re-fetch the list afterwards rather
// than inserting the result locally.
func (c *Client) AddComment(taskID, body string) (model.Comment, error) {
	payload := map[string]string{"content": body}
	var comment model.Comment
	if err := c.do(http.MethodPost, "/api/tasks/"+taskID+"/comments", nil, payload, &comment); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}
