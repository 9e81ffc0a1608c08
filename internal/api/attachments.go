package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/todochimp/chimp/internal/model"
)

// ListAttachments fetches the attachment metadata for a task.
func (c *Client) ListAttachments(taskID string) ([]model.Attachment, error) {
	var attachments []model.Attachment
	if err := c.do(http.MethodGet, "/api/tasks/"+taskID+"/attachments", nil, nil, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// UploadAttachment sends one file as a multipart form. Batched selections go
// through this one file at a time.
func (c *Client) UploadAttachment(taskID, fileName string, content []byte) (model.Attachment, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return model.Attachment{}, fmt.Errorf("write multipart form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return model.Attachment{}, fmt.Errorf("close multipart form: %w", err)
	}

	path := "/api/tasks/" + taskID + "/attachments"
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	reqID := shortID()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Request(reqID, http.MethodPost, path, 0, err)
		return model.Attachment{}, fmt.Errorf("upload %s: %w", fileName, err)
	}
	defer resp.Body.Close()
	c.log.Request(reqID, http.MethodPost, path, resp.StatusCode, nil)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Attachment{}, decodeError(resp)
	}
	var attachment model.Attachment
	if err := decodeJSON(resp, &attachment); err != nil {
		return model.Attachment{}, err
	}
	return attachment, nil
}

// DeleteAttachment removes one attachment, identified by a query parameter.
func (c *Client) DeleteAttachment(taskID, attachmentID string) error {
	query := url.Values{"attachmentId": {attachmentID}}
	return c.do(http.MethodDelete, "/api/tasks/"+taskID+"/attachments", query, nil, nil)
}
