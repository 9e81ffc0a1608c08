package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/todochimp/chimp/internal/aigen"
	"github.com/todochimp/chimp/internal/api"
	"github.com/todochimp/chimp/internal/config"
	"github.com/todochimp/chimp/internal/logbook"
	"github.com/todochimp/chimp/internal/model"
)

func newTestApp(t *testing.T, baseURL string, opts ...AppOption) *App {
	t.Helper()
	dir := t.TempDir()
	log, err := logbook.New(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	cfg := &config.Config{
		DataDir: dir,
		File: config.FileConfig{
			Version:   1,
			API:       config.APIConfig{BaseURL: baseURL},
			Dashboard: config.DashboardConfig{PageSize: 5},
		},
	}
	client := api.NewClient(baseURL, log)
	return NewApp(cfg, client, aigen.NewClient("", ""), nil, log, opts...)
}

func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		if _, isBatch := msg.(tea.BatchMsg); isBatch {
			break
		}
		if _, isBlink := msg.(cursor.BlinkMsg); isBlink {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		var ok bool
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}

func testSession() model.Session {
	return model.Session{
		User:  model.User{ID: "u-1", Name: "Ada", Email: "ada@example.com"},
		Token: "tok-1",
	}
}

func TestLoginFlowReachesDashboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-1",
			"user":  map[string]string{"id": "u-1", "name": "Ada", "email": "ada@example.com"},
		})
	}))
	defer server.Close()

	app := newTestApp(t, server.URL)
	app.login.email.SetValue("ada@example.com")
	app.login.password.SetValue("hunter2x")

	cmd := app.login.submit()
	if cmd == nil {
		t.Fatalf("expected submit command, got error %q", app.login.errText)
	}
	app = runCommands(t, app, cmd)

	if app.state != stateDashboard {
		t.Fatalf("expected dashboard after login, got state %d", app.state)
	}
	if app.client.Token() != "tok-1" {
		t.Fatalf("token not installed: %q", app.client.Token())
	}
}

func TestLoginErrorStaysOnLoginScreen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
	}))
	defer server.Close()

	app := newTestApp(t, server.URL)
	app.login.email.SetValue("ada@example.com")
	app.login.password.SetValue("wrong")
	app = runCommands(t, app, app.login.submit())

	if app.state != stateLogin {
		t.Fatalf("expected to stay on login, got state %d", app.state)
	}
	if app.login.errText == "" {
		t.Fatalf("expected backend message to surface")
	}
}

func TestStaleTaskResponseDropped(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))
	dash := app.dashboard

	staleGen := dash.gen + 1
	dash.gen += 2 // a newer request is in flight

	cmd := dash.Update(tasksLoadedMsg{
		gen:  staleGen,
		page: api.TaskPage{Tasks: []model.Task{{ID: "t-1", Title: "stale"}}, TotalPages: 3},
	})
	if cmd != nil {
		t.Fatalf("stale response must be a no-op")
	}
	if len(dash.rows) != 0 {
		t.Fatalf("stale rows applied: %v", dash.rows)
	}

	dash.Update(tasksLoadedMsg{
		gen:  dash.gen,
		page: api.TaskPage{Tasks: []model.Task{{ID: "t-2", Title: "fresh"}}, TotalPages: 1},
	})
	if len(dash.rows) != 1 || dash.rows[0].ID != "t-2" {
		t.Fatalf("fresh response not applied: %v", dash.rows)
	}
}

func TestDeleteRemovesExactlyOneRow(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))
	dash := app.dashboard
	dash.rows = []model.Task{{ID: "t-1"}, {ID: "t-2"}, {ID: "t-3"}}

	dash.Update(taskDeletedMsg{id: "t-2"})

	if len(dash.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(dash.rows))
	}
	for _, row := range dash.rows {
		if row.ID == "t-2" {
			t.Fatalf("deleted row still present")
		}
	}
}

func TestDeleteClampsCursorToRemainingRows(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))
	dash := app.dashboard
	dash.rows = []model.Task{{ID: "t-1"}, {ID: "t-2"}}
	dash.cursor = 1

	dash.Update(taskDeletedMsg{id: "t-2"})

	if dash.cursor != 0 {
		t.Fatalf("cursor = %d, want 0 after deleting the last row", dash.cursor)
	}

	dash.Update(taskDeletedMsg{id: "t-1"})
	if dash.cursor != 0 {
		t.Fatalf("cursor = %d, want 0 on an empty list", dash.cursor)
	}
}

func TestCompletePatchesStatusInPlace(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))
	dash := app.dashboard
	dash.rows = []model.Task{
		{ID: "t-1", Status: model.StatusPending},
		{ID: "t-2", Status: model.StatusInProgress},
	}

	dash.Update(taskCompletedMsg{id: "t-2"})

	if dash.rows[0].Status != model.StatusPending {
		t.Fatalf("untouched row changed: %s", dash.rows[0].Status)
	}
	if dash.rows[1].Status != model.StatusCompleted {
		t.Fatalf("completed row not patched: %s", dash.rows[1].Status)
	}
	if len(dash.rows) != 2 {
		t.Fatalf("complete must not re-fetch or drop rows")
	}
}

func TestFilterCycleWrapsAround(t *testing.T) {
	got := api.FilterAll
	seen := []string{}
	for range api.Filters() {
		got = nextFilter(got)
		seen = append(seen, got)
	}
	if got != api.FilterAll {
		t.Fatalf("cycle must wrap to %q, ended on %q (path %v)", api.FilterAll, got, seen)
	}
}

func TestNoticeExpiryIgnoresStaleTimer(t *testing.T) {
	app := newTestApp(t, "http://unused")

	app.notify(noticeInfo, "first")
	firstID := app.notice.id
	app.notify(noticeError, "second")

	app.Update(noticeExpireMsg{id: firstID})
	if app.notice.text != "second" {
		t.Fatalf("stale timer cleared the newer notice")
	}

	app.Update(noticeExpireMsg{id: app.notice.id})
	if app.notice.text != "" {
		t.Fatalf("matching timer must clear the notice")
	}
}

func TestConfirmPromptGatesPendingCommand(t *testing.T) {
	app := newTestApp(t, "http://unused")
	ran := false
	app.askConfirm("Delete?", func() tea.Msg { ran = true; return nil })

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if cmd != nil || ran {
		t.Fatalf("declining must drop the pending command")
	}
	if app.confirm.active {
		t.Fatalf("prompt must close on decline")
	}

	app.askConfirm("Delete?", func() tea.Msg { ran = true; return nil })
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	if cmd == nil {
		t.Fatalf("accepting must return the pending command")
	}
	cmd()
	if !ran {
		t.Fatalf("pending command did not run")
	}
}

func TestStatusOnlyForAssigneeWhoIsNotCreator(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))

	assigned := &model.Task{
		ID:         "t-1",
		Title:      "Review report",
		Priority:   model.PriorityHigh,
		Status:     model.StatusPending,
		CreatedBy:  &model.UserRef{ID: "u-9"},
		AssignedTo: &model.UserRef{ID: "u-1"},
	}
	form := newTaskFormView(app, assigned)
	if !form.statusOnly {
		t.Fatalf("assignee who is not creator must be status-only")
	}

	own := &model.Task{
		ID:         "t-2",
		Title:      "My own task",
		Priority:   model.PriorityLow,
		Status:     model.StatusPending,
		CreatedBy:  &model.UserRef{ID: "u-1"},
		AssignedTo: &model.UserRef{ID: "u-1"},
	}
	form = newTaskFormView(app, own)
	if form.statusOnly {
		t.Fatalf("creator must get the full form")
	}
}

func TestFormValidationAnnotatesFieldsAndRows(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))
	form := newTaskFormView(app, nil)
	form.title.SetValue("ab")
	form.raci[0].email.SetValue("dev@example.com") // role missing

	if cmd := form.submit(); cmd != nil {
		t.Fatalf("invalid form must not submit")
	}
	if form.fieldErrs[slotTitle] != "Title must be at least 3 characters" {
		t.Fatalf("title error = %q", form.fieldErrs[slotTitle])
	}
	if form.raciErrs[0] != "RACI role is required when email is provided" {
		t.Fatalf("row error = %q", form.raciErrs[0])
	}
	if form.busy {
		t.Fatalf("form must stay editable")
	}
}

func TestEditSaveCarriesAssigneeOrganizationAndCreator(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/tasks/t-1" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "t-1"})
	}))
	defer server.Close()

	app := newTestApp(t, server.URL, WithSession(testSession()))
	task := &model.Task{
		ID:             "t-1",
		Title:          "Quarterly report",
		Priority:       model.PriorityHigh,
		Status:         model.StatusInProgress,
		OrganizationID: "org-7",
		CreatedBy:      &model.UserRef{ID: "u-1"},
		AssignedTo:     &model.UserRef{ID: "u-9"},
	}
	form := newTaskFormView(app, task)

	cmd := form.submit()
	if cmd == nil {
		t.Fatalf("expected submit command")
	}
	if msg, ok := cmd().(taskSavedMsg); !ok || msg.err != nil {
		t.Fatalf("save failed: %+v", msg)
	}

	if body["assignedToId"] != "u-9" {
		t.Fatalf("assignedToId = %v, want u-9", body["assignedToId"])
	}
	if body["organizationId"] != "org-7" {
		t.Fatalf("organizationId = %v, want org-7", body["organizationId"])
	}
	if body["createdById"] != "u-1" {
		t.Fatalf("createdById = %v, want u-1", body["createdById"])
	}
	if body["status"] != string(model.StatusInProgress) {
		t.Fatalf("status = %v", body["status"])
	}
}

func TestBatchAssignmentFailureNamesTheOperation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "duplicate assignment"})
	}))
	defer server.Close()

	app := newTestApp(t, server.URL, WithSession(testSession()))
	task := &model.Task{ID: "t-1", Title: "Edit me", Priority: model.PriorityLow, Status: model.StatusPending, CreatedBy: &model.UserRef{ID: "u-1"}}
	form := newTaskFormView(app, task)
	form.raci[0].email.SetValue("dev@example.com")
	form.raci[0].role = model.RaciConsulted

	cmd := form.syncNewAssignments()
	if cmd == nil {
		t.Fatalf("expected sync command")
	}
	msg, ok := cmd().(assignmentsCreatedMsg)
	if !ok || msg.err == nil {
		t.Fatalf("expected a failed batch-create message, got %T", msg)
	}
	form.Update(msg)

	if !strings.HasPrefix(app.notice.text, "add assignments:") {
		t.Fatalf("notice = %q, must name the batch create", app.notice.text)
	}
	if !strings.Contains(app.notice.text, "duplicate assignment") {
		t.Fatalf("notice = %q, must surface the backend message", app.notice.text)
	}
}

func TestCreateModeRoleResetClearsEmailToo(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))

	form := newTaskFormView(app, nil)
	form.raci[0].email.SetValue("dev@example.com")
	form.raci[0].role = model.RaciConsulted
	form.resetRow(0)
	if form.raci[0].role != "" || form.raci[0].email.Value() != "" {
		t.Fatalf("create-mode reset must clear both fields")
	}

	task := &model.Task{ID: "t-1", Title: "Edit me", Priority: model.PriorityLow, Status: model.StatusPending, CreatedBy: &model.UserRef{ID: "u-1"}}
	form = newTaskFormView(app, task)
	form.raci[0].email.SetValue("dev@example.com")
	form.raci[0].role = model.RaciConsulted
	form.resetRow(0)
	if form.raci[0].role != "" {
		t.Fatalf("edit-mode reset must clear the role")
	}
	if form.raci[0].email.Value() != "dev@example.com" {
		t.Fatalf("edit-mode reset must keep the email")
	}
}

func TestGenerateLimitShowsDistinctNotice(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))
	form := newTaskFormView(app, nil)
	form.generating = true

	form.Update(descriptionGeneratedMsg{err: aigen.ErrLimitExceeded})

	if app.notice.kind != noticeLimit {
		t.Fatalf("expected the limit notice, got kind %d text %q", app.notice.kind, app.notice.text)
	}
	if form.generating {
		t.Fatalf("generating flag must reset")
	}
}

func TestDetailFetchesAreIndependent(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))
	detail := newDetailView(app, "t-1")
	detail.init()

	detail.Update(detailCommentsMsg{err: &api.APIError{Status: 500, Message: "boom"}})
	detail.Update(detailTaskMsg{task: model.Task{ID: "t-1", Title: "Still here"}})
	detail.Update(detailRaciMsg{rows: []model.RaciAssignment{{ID: "a-1", Email: "dev@example.com", RaciRole: model.RaciInformed}}})

	if !detail.commentsSlot.failed() {
		t.Fatalf("comments error must be recorded")
	}
	if detail.task.Title != "Still here" {
		t.Fatalf("task fetch must survive the comments failure")
	}
	if len(detail.raci) != 1 {
		t.Fatalf("raci fetch must survive the comments failure")
	}
	if detail.attachmentsSlot.loading != true {
		t.Fatalf("attachments fetch still pending, slot must say loading")
	}
}

func TestAttachmentDeleteRemovesLocallyWithoutRefetch(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))
	detail := newDetailView(app, "t-1")
	detail.attachments = []model.Attachment{{ID: "a-1", FileName: "one.txt"}, {ID: "a-2", FileName: "two.txt"}}

	detail.Update(attachmentDeletedMsg{id: "a-1"})

	if len(detail.attachments) != 1 || detail.attachments[0].ID != "a-2" {
		t.Fatalf("attachments = %v", detail.attachments)
	}
}

func TestLogoutClearsSessionAndReturnsToLogin(t *testing.T) {
	app := newTestApp(t, "http://unused", WithSession(testSession()))
	app = runCommands(t, app, app.logout())

	if app.state != stateLogin {
		t.Fatalf("expected login screen, got state %d", app.state)
	}
	if app.session.Valid() {
		t.Fatalf("session must be cleared")
	}
	if app.client.Token() != "" {
		t.Fatalf("token must be cleared")
	}
}
