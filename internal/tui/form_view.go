package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/todochimp/chimp/internal/aigen"
	"github.com/todochimp/chimp/internal/api"
	"github.com/todochimp/chimp/internal/model"
	"github.com/todochimp/chimp/internal/validate"
)

// raciDraft is one editable assignment row. key is a local uuid so messages
// can find the row even after reordering; id is set only for rows that exist
// on the backend.
type raciDraft struct {
	key    string
	id     string
	email  textinput.Model
	role   model.RaciRole
	status model.AssignmentStatus
}

func (r raciDraft) persisted() bool { return r.id != "" }

type slotKind int

const (
	slotTitle slotKind = iota
	slotDescription
	slotDue
	slotPriority
	slotStatus
	slotRaci
)

type formSlot struct {
	kind slotKind
	row  int // raci row index, slotRaci only
}

type taskSavedMsg struct {
	task   model.Task
	create bool
	err    error
}

type statusSavedMsg struct{ err error }

type assignmentsLoadedMsg struct {
	rows []model.RaciAssignment
	err  error
}

type roleUpdatedMsg struct {
	key string
	err error
}

type assignmentsCreatedMsg struct{ err error }

type assignmentRemovedMsg struct {
	key string
	err error
}

type descriptionGeneratedMsg struct {
	text string
	err  error
}

// taskFormView creates or edits one task. In edit mode an assignee who did
// not create the task may only change the status; everything else renders
// read-only and submission sends a status-only update.
type taskFormView struct {
	app *App

	taskID     string
	editing    bool
	statusOnly bool

	// Carried from the loaded task so a full PUT does not drop them; the
	// backend replaces the task with whatever the payload says.
	assigneeID     string
	organizationID string
	creatorID      string

	title       textinput.Model
	description textinput.Model
	due         textinput.Model
	priority    model.Priority
	status      model.Status
	raci        []raciDraft

	slots   []formSlot
	focused int

	fieldErrs map[slotKind]string
	raciErrs  map[int]string

	busy       bool
	generating bool
}

func newTaskFormView(app *App, task *model.Task) *taskFormView {
	v := &taskFormView{
		app:         app,
		title:       newField("title"),
		description: newField("description"),
		due:         newField("due date (YYYY-MM-DD)"),
		priority:    model.PriorityMedium,
		status:      model.StatusPending,
		fieldErrs:   map[slotKind]string{},
		raciErrs:    map[int]string{},
	}
	v.title.CharLimit = 100
	v.description.CharLimit = 2000
	v.description.Width = 60

	if task != nil {
		v.editing = true
		v.taskID = task.ID
		v.assigneeID = task.AssigneeID()
		v.organizationID = task.OrganizationID
		v.creatorID = task.CreatorID()
		v.title.SetValue(task.Title)
		v.description.SetValue(task.Description)
		v.due.SetValue(dateOnly(task.DueDate))
		v.priority = task.Priority
		v.status = task.Status
		me := app.session.User.ID
		v.statusOnly = me != "" && me == task.AssigneeID() && me != task.CreatorID()
	}
	v.raci = append(v.raci, v.newRaciRow(model.RaciAssignment{}))
	v.rebuildSlots()
	v.focusSlot(0)
	return v
}

func (v *taskFormView) newRaciRow(a model.RaciAssignment) raciDraft {
	row := raciDraft{
		key:    uuid.NewString(),
		id:     a.ID,
		email:  newField("email"),
		role:   a.RaciRole,
		status: a.Status,
	}
	row.email.SetValue(a.Email)
	return row
}

func (v *taskFormView) rebuildSlots() {
	if v.statusOnly {
		v.slots = []formSlot{{kind: slotStatus}}
		return
	}
	v.slots = []formSlot{
		{kind: slotTitle},
		{kind: slotDescription},
		{kind: slotDue},
		{kind: slotPriority},
	}
	if v.editing {
		v.slots = append(v.slots, formSlot{kind: slotStatus})
	}
	for i := range v.raci {
		v.slots = append(v.slots, formSlot{kind: slotRaci, row: i})
	}
	if v.focused >= len(v.slots) {
		v.focused = len(v.slots) - 1
	}
}

func (v *taskFormView) focusSlot(i int) tea.Cmd {
	if i < 0 || i >= len(v.slots) {
		return nil
	}
	v.focused = i
	v.title.Blur()
	v.description.Blur()
	v.due.Blur()
	for idx := range v.raci {
		v.raci[idx].email.Blur()
	}
	switch slot := v.slots[i]; slot.kind {
	case slotTitle:
		return v.title.Focus()
	case slotDescription:
		return v.description.Focus()
	case slotDue:
		return v.due.Focus()
	case slotRaci:
		return v.raci[slot.row].email.Focus()
	}
	return nil
}

// init fetches the persisted assignments in edit mode.
func (v *taskFormView) init() tea.Cmd {
	if !v.editing || v.statusOnly {
		return textinputBlink()
	}
	return tea.Batch(textinputBlink(), v.fetchAssignments())
}

func (v *taskFormView) fetchAssignments() tea.Cmd {
	client := v.app.client
	taskID := v.taskID
	return func() tea.Msg {
		rows, err := client.ListAssignments(taskID)
		return assignmentsLoadedMsg{rows: rows, err: err}
	}
}

func (v *taskFormView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case assignmentsLoadedMsg:
		if msg.err != nil {
			return v.app.notifyError("load assignments", msg.err)
		}
		v.setAssignments(msg.rows)
		return nil

	case taskSavedMsg:
		v.busy = false
		if msg.err != nil {
			return v.app.notifyError("save task", msg.err)
		}
		if msg.create {
			return tea.Batch(
				v.app.notify(noticeInfo, "Task created"),
				func() tea.Msg { return showDashboardMsg{refresh: true} },
			)
		}
		// Edit save done: push any brand-new rows, then re-sync from the
		// server.
		return tea.Batch(
			v.app.notify(noticeInfo, "Task saved"),
			v.syncNewAssignments(),
		)

	case statusSavedMsg:
		v.busy = false
		if msg.err != nil {
			return v.app.notifyError("update status", msg.err)
		}
		return tea.Batch(
			v.app.notify(noticeInfo, "Status updated"),
			func() tea.Msg { return showDashboardMsg{refresh: true} },
		)

	case roleUpdatedMsg:
		if msg.err != nil {
			return v.app.notifyError("update assignment", msg.err)
		}
		return nil

	case assignmentsCreatedMsg:
		if msg.err != nil {
			return v.app.notifyError("add assignments", msg.err)
		}
		return nil

	case assignmentRemovedMsg:
		if msg.err != nil {
			return v.app.notifyError("remove assignment", msg.err)
		}
		v.dropRow(msg.key)
		return nil

	case descriptionGeneratedMsg:
		v.generating = false
		if msg.err != nil {
			if errors.Is(msg.err, aigen.ErrLimitExceeded) {
				return v.app.notify(noticeLimit, "AI generation limit reached, try again later")
			}
			return v.app.notifyError("generate description", msg.err)
		}
		v.description.SetValue(msg.text)
		return v.app.notify(noticeInfo, "Description generated")

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v.updateFocusedInput(msg)
}

func (v *taskFormView) setAssignments(rows []model.RaciAssignment) {
	v.raci = v.raci[:0]
	for _, row := range rows {
		v.raci = append(v.raci, v.newRaciRow(row))
	}
	v.raci = append(v.raci, v.newRaciRow(model.RaciAssignment{}))
	v.rebuildSlots()
}

func (v *taskFormView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.busy {
		return nil
	}
	slot := v.slots[v.focused]
	switch msg.String() {
	case "tab", "down":
		return v.focusSlot((v.focused + 1) % len(v.slots))
	case "shift+tab", "up":
		return v.focusSlot((v.focused + len(v.slots) - 1) % len(v.slots))
	case "esc":
		return func() tea.Msg { return showDashboardMsg{} }
	case "ctrl+s":
		return v.submit()
	case "ctrl+g":
		return v.generate()
	case "ctrl+a":
		if !v.statusOnly {
			v.raci = append(v.raci, v.newRaciRow(model.RaciAssignment{}))
			v.rebuildSlots()
			return v.focusSlot(len(v.slots) - 1)
		}
	case "left", "right":
		return v.cycleSelector(slot, msg.String() == "right")
	case "ctrl+x":
		if slot.kind == slotRaci {
			return v.removeRow(slot.row)
		}
	case "ctrl+u":
		if slot.kind == slotRaci {
			v.resetRow(slot.row)
			return nil
		}
	}
	return v.updateFocusedInput(msg)
}

// cycleSelector advances the priority/status/role pickers with the arrow
// keys. A role change on a persisted row goes to the backend immediately.
func (v *taskFormView) cycleSelector(slot formSlot, forward bool) tea.Cmd {
	step := func(n, length int) int {
		if forward {
			return (n + 1) % length
		}
		return (n + length - 1) % length
	}
	switch slot.kind {
	case slotPriority:
		all := model.Priorities()
		v.priority = all[step(indexOfPriority(all, v.priority), len(all))]
	case slotStatus:
		all := model.Statuses()
		v.status = all[step(indexOfStatus(all, v.status), len(all))]
	case slotRaci:
		row := &v.raci[slot.row]
		all := model.RaciRoles()
		idx := indexOfRole(all, row.role)
		if row.role == "" {
			idx = len(all) - 1 // first cycle lands on the first role
		}
		row.role = all[step(idx, len(all))]
		if v.editing && row.persisted() {
			return v.pushRoleUpdate(row.key, row.id, row.role)
		}
	}
	return nil
}

func (v *taskFormView) pushRoleUpdate(key, id string, role model.RaciRole) tea.Cmd {
	client := v.app.client
	return func() tea.Msg {
		return roleUpdatedMsg{key: key, err: client.UpdateAssignment(id, role)}
	}
}

// removeRow deletes a draft row. Persisted rows go through the confirm
// prompt and the backend first; unpersisted rows disappear locally.
func (v *taskFormView) removeRow(i int) tea.Cmd {
	if i < 0 || i >= len(v.raci) {
		return nil
	}
	row := v.raci[i]
	if !row.persisted() {
		v.dropRow(row.key)
		return nil
	}
	client := v.app.client
	key, id := row.key, row.id
	email := row.email.Value()
	v.app.askConfirm(fmt.Sprintf("Remove assignment for %s?", email), func() tea.Msg {
		return assignmentRemovedMsg{key: key, err: client.DeleteAssignment(id)}
	})
	return nil
}

func (v *taskFormView) dropRow(key string) {
	kept := v.raci[:0]
	for _, row := range v.raci {
		if row.key != key {
			kept = append(kept, row)
		}
	}
	v.raci = kept
	if len(v.raci) == 0 {
		v.raci = append(v.raci, v.newRaciRow(model.RaciAssignment{}))
	}
	v.rebuildSlots()
	v.focusSlot(minInt(v.focused, len(v.slots)-1))
}

// resetRow clears the role picker. Creating a task clears the whole row;
// editing keeps the email so a different role can be picked.
func (v *taskFormView) resetRow(i int) {
	if i < 0 || i >= len(v.raci) {
		return
	}
	v.raci[i].role = ""
	if !v.editing {
		v.raci[i].email.SetValue("")
	}
}

func (v *taskFormView) generate() tea.Cmd {
	if v.generating || v.statusOnly {
		return nil
	}
	title := strings.TrimSpace(v.title.Value())
	if title == "" {
		return v.app.notify(noticeError, "Enter a title before generating a description")
	}
	v.generating = true
	gen := v.app.gen
	return func() tea.Msg {
		text, err := gen.GenerateDescription(title)
		return descriptionGeneratedMsg{text: text, err: err}
	}
}

func (v *taskFormView) submit() tea.Cmd {
	if v.statusOnly {
		v.busy = true
		client := v.app.client
		id, status := v.taskID, v.status
		return func() tea.Msg {
			return statusSavedMsg{err: client.UpdateTaskStatus(id, status)}
		}
	}
	if !v.validate() {
		return nil
	}
	payload := api.TaskPayload{
		Title:       strings.TrimSpace(v.title.Value()),
		Description: strings.TrimSpace(v.description.Value()),
		DueDate:     wireDate(v.due.Value()),
		Priority:    v.priority,
	}
	v.busy = true
	client := v.app.client
	if !v.editing {
		payload.Raci = v.draftAssignments(false)
		return func() tea.Msg {
			task, err := client.CreateTask(payload)
			return taskSavedMsg{task: task, create: true, err: err}
		}
	}
	payload.Status = v.status
	payload.AssignedToID = v.assigneeID
	payload.OrganizationID = v.organizationID
	payload.CreatedByID = v.creatorID
	id := v.taskID
	return func() tea.Msg {
		task, err := client.UpdateTask(id, payload)
		return taskSavedMsg{task: task, err: err}
	}
}

// syncNewAssignments batches every id-less row with an email to the backend,
// then re-fetches the authoritative list.
func (v *taskFormView) syncNewAssignments() tea.Cmd {
	rows := v.draftAssignments(true)
	if len(rows) == 0 {
		return v.fetchAssignments()
	}
	client := v.app.client
	taskID := v.taskID
	fetch := v.fetchAssignments()
	return func() tea.Msg {
		if err := client.CreateAssignments(taskID, rows); err != nil {
			return assignmentsCreatedMsg{err: err}
		}
		return fetch()
	}
}

// draftAssignments collects rows worth submitting. newOnly skips rows that
// already exist on the backend.
func (v *taskFormView) draftAssignments(newOnly bool) []model.RaciAssignment {
	var rows []model.RaciAssignment
	for _, row := range v.raci {
		email := strings.TrimSpace(row.email.Value())
		if email == "" {
			continue
		}
		if newOnly && row.persisted() {
			continue
		}
		rows = append(rows, model.RaciAssignment{Email: email, RaciRole: row.role})
	}
	return rows
}

func (v *taskFormView) validate() bool {
	v.fieldErrs = map[slotKind]string{}
	v.raciErrs = map[int]string{}
	if err := validate.Title(v.title.Value()); err != nil {
		v.fieldErrs[slotTitle] = err.Error()
	}
	if err := validate.DueDate(v.due.Value(), time.Now()); err != nil {
		v.fieldErrs[slotDue] = err.Error()
	}
	if err := validate.Priority(v.priority); err != nil {
		v.fieldErrs[slotPriority] = err.Error()
	}
	for i, row := range v.raci {
		if err := validate.AssignmentRow(row.email.Value(), row.role); err != nil {
			v.raciErrs[i] = err.Error()
		}
	}
	return len(v.fieldErrs) == 0 && len(v.raciErrs) == 0
}

func (v *taskFormView) updateFocusedInput(msg tea.Msg) tea.Cmd {
	if v.busy || len(v.slots) == 0 {
		return nil
	}
	var cmd tea.Cmd
	switch slot := v.slots[v.focused]; slot.kind {
	case slotTitle:
		v.title, cmd = v.title.Update(msg)
	case slotDescription:
		v.description, cmd = v.description.Update(msg)
	case slotDue:
		v.due, cmd = v.due.Update(msg)
	case slotRaci:
		v.raci[slot.row].email, cmd = v.raci[slot.row].email.Update(msg)
	}
	return cmd
}

func (v *taskFormView) View() string {
	var b strings.Builder
	switch {
	case v.statusOnly:
		b.WriteString("Update status\n\n")
	case v.editing:
		b.WriteString("Edit task\n\n")
	default:
		b.WriteString("New task\n\n")
	}

	if v.statusOnly {
		b.WriteString("You are assigned to this task; only the status can be changed.\n\n")
		b.WriteString(v.selectorLine(slotStatus, "Status", statusLabel(v.status)) + "\n")
	} else {
		b.WriteString(v.inputLine(slotTitle, v.title) + "\n")
		b.WriteString(v.inputLine(slotDescription, v.description) + "\n")
		b.WriteString(v.inputLine(slotDue, v.due) + "\n")
		b.WriteString(v.selectorLine(slotPriority, "Priority", priorityLabel(v.priority)) + "\n")
		if v.editing {
			b.WriteString(v.selectorLine(slotStatus, "Status", statusLabel(v.status)) + "\n")
		}
		b.WriteString("\nRACI assignments\n")
		for i, row := range v.raci {
			b.WriteString(v.raciLine(i, row) + "\n")
			if msg, ok := v.raciErrs[i]; ok {
				b.WriteString("   " + fieldErrorStyle.Render(msg) + "\n")
			}
		}
	}

	if v.generating {
		b.WriteString(dimStyle.Render("generating description…") + "\n")
	}
	if v.busy {
		b.WriteString(dimStyle.Render("saving…") + "\n")
	}
	hints := "ctrl+s save · esc cancel"
	if !v.statusOnly {
		hints += " · ctrl+g generate description · ctrl+a add row · ctrl+x remove row · ctrl+u reset role · ←/→ pick"
	} else {
		hints += " · ←/→ pick status"
	}
	b.WriteString(hintStyle.Render(hints))
	return b.String()
}

func (v *taskFormView) inputLine(kind slotKind, input textinput.Model) string {
	line := v.marker(kind) + input.View()
	if msg, ok := v.fieldErrs[kind]; ok {
		line += "\n   " + fieldErrorStyle.Render(msg)
	}
	return line
}

func (v *taskFormView) selectorLine(kind slotKind, label, value string) string {
	line := fmt.Sprintf("%s%s: %s", v.marker(kind), label, value)
	if msg, ok := v.fieldErrs[kind]; ok {
		line += "\n   " + fieldErrorStyle.Render(msg)
	}
	return line
}

func (v *taskFormView) raciLine(i int, row raciDraft) string {
	role := "—"
	if row.role != "" {
		role = row.role.FriendlyName()
	}
	marker := "  "
	if slot := v.slots[v.focused]; slot.kind == slotRaci && slot.row == i {
		marker = selectedRowStyle.Render("▸ ")
	}
	suffix := ""
	if row.status == model.AssignmentPending {
		suffix = dimStyle.Render("  (pending)")
	}
	return fmt.Sprintf("%s%s  role: %s%s", marker, row.email.View(), role, suffix)
}

func (v *taskFormView) marker(kind slotKind) string {
	if slot := v.slots[v.focused]; slot.kind == kind {
		return selectedRowStyle.Render("▸ ")
	}
	return "  "
}

// wireDate widens a YYYY-MM-DD form value to the ISO datetime the backend
// expects. Invalid input is caught by validation before this runs.
func wireDate(due string) string {
	due = strings.TrimSpace(due)
	if due == "" {
		return ""
	}
	t, err := time.Parse(validate.DateLayout, due)
	if err != nil {
		return due
	}
	return t.UTC().Format(time.RFC3339)
}

// dateOnly narrows a backend datetime to the form's date field.
func dateOnly(value string) string {
	if len(value) >= len(validate.DateLayout) {
		return value[:len(validate.DateLayout)]
	}
	return value
}

func indexOfPriority(all []model.Priority, p model.Priority) int {
	for i, candidate := range all {
		if candidate == p {
			return i
		}
	}
	return 0
}

func indexOfStatus(all []model.Status, s model.Status) int {
	for i, candidate := range all {
		if candidate == s {
			return i
		}
	}
	return 0
}

func indexOfRole(all []model.RaciRole, r model.RaciRole) int {
	for i, candidate := range all {
		if candidate == r {
			return i
		}
	}
	return 0
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
