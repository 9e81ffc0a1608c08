package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/todochimp/chimp/internal/model"
)

func TestUpdateAssignmentSendsRolePut(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	if err := client.UpdateAssignment("A9", model.RaciAccountable); err != nil {
		t.Fatalf("UpdateAssignment: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/assignments/A9" {
		t.Fatalf("%s %s", gotMethod, gotPath)
	}
	if gotBody["raciRole"] != "ACCOUNTABLE" {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestCreateAssignmentsBatch(t *testing.T) {
	var gotPath string
	var gotBody map[string][]model.RaciAssignment
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	rows := []model.RaciAssignment{
		{Email: "a@b.com", RaciRole: model.RaciResponsible},
		{Email: "c@d.com", RaciRole: model.RaciInformed},
	}
	if err := client.CreateAssignments("T3", rows); err != nil {
		t.Fatalf("CreateAssignments: %v", err)
	}
	if gotPath != "/api/tasks/T3/raci" {
		t.Fatalf("path = %s", gotPath)
	}
	if len(gotBody["assignments"]) != 2 {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestListAssignments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]model.RaciAssignment{
			{ID: "A1", Email: "a@b.com", RaciRole: model.RaciResponsible, Status: model.AssignmentActive},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	rows, err := client.ListAssignments("T3")
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if len(rows) != 1 || !rows[0].Persisted() {
		t.Fatalf("rows = %+v", rows)
	}
}
