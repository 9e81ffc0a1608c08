package aigen

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateDescriptionTwoStepFlow(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.Header.Get("x-api-key") != "key-1" {
			t.Errorf("missing api key header")
		}
		switch r.URL.Path {
		case "/api/calls/items":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["prompt"] != "Ship the release" {
				t.Errorf("prompt = %q", body["prompt"])
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "call-1"})
		case "/api/calls/execute":
			_ = json.NewEncoder(w).Encode(map[string]string{"output": "A detailed plan."})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-1")
	text, err := client.GenerateDescription("Ship the release")
	if err != nil {
		t.Fatalf("GenerateDescription: %v", err)
	}
	if text != "A detailed plan." {
		t.Fatalf("text = %q", text)
	}
	if len(paths) != 2 || paths[0] != "/api/calls/items" || paths[1] != "/api/calls/execute" {
		t.Fatalf("paths = %v", paths)
	}
}

func TestGenerateDescriptionRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-1")
	_, err := client.GenerateDescription("anything")
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestGenerateDescriptionUnconfigured(t *testing.T) {
	client := NewClient("", "")
	if _, err := client.GenerateDescription("anything"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
