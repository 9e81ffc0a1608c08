// Package aigen talks to the external call service that drafts task
// descriptions. The service is rate limited per key; a 429 surfaces as
// ErrLimitExceeded so the form can show the dedicated notice instead of a
// generic failure.
package aigen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrLimitExceeded means the generation quota for the API key is used up.
var ErrLimitExceeded = errors.New("generation limit exceeded")

// Client talks to one call-service deployment.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a generation client. An empty base URL produces a client
// whose calls fail with ErrNotConfigured.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ErrNotConfigured means no AI service base URL is set.
var ErrNotConfigured = errors.New("ai service is not configured")

// Configured reports whether generation is available.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

type itemRequest struct {
	Prompt string `json:"prompt"`
}

type itemResponse struct {
	ID string `json:"id"`
}

type executeRequest struct {
	ItemID string `json:"itemId"`
}

type executeResponse struct {
	Output string `json:"output"`
}

// GenerateDescription registers the title as a call item and executes it,
// returning the generated description text.
func (c *Client) GenerateDescription(title string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	var item itemResponse
	if err := c.post("/api/calls/items", itemRequest{Prompt: title}, &item); err != nil {
		return "", err
	}
	var result executeResponse
	if err := c.post("/api/calls/execute", executeRequest{ItemID: item.ID}, &result); err != nil {
		return "", err
	}
	return result.Output, nil
}

func (c *Client) post(path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrLimitExceeded
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("call service status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
