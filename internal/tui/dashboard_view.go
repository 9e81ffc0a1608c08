package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/todochimp/chimp/internal/api"
	"github.com/todochimp/chimp/internal/model"
	"github.com/todochimp/chimp/internal/pagination"
)

// sortFields is the cycle for the s key. Empty means server default order.
var sortFields = []string{"", "dueDate", "priority", "title", "createdAt"}

type tasksLoadedMsg struct {
	gen  int
	page api.TaskPage
	err  error
}

type taskDeletedMsg struct {
	id  string
	err error
}

type taskCompletedMsg struct {
	id  string
	err error
}

// dashboardView is the task list screen. Every input change bumps gen and
// issues a fresh fetch; a response whose gen no longer matches is stale and
// dropped on the floor, so out-of-order replies never clobber newer state.
type dashboardView struct {
	app *App

	search    textinput.Model
	searching bool

	query      api.TaskQuery
	rows       []model.Task
	totalPages int
	cursor     int
	loading    bool
	gen        int
	stale      bool // rendering a stored snapshot, not live data
}

func newDashboardView(app *App) *dashboardView {
	v := &dashboardView{app: app}
	v.search = newField("search tasks")
	v.query = api.TaskQuery{
		Page:          1,
		PageSize:      app.config.PageSize(),
		Filter:        api.FilterAll,
		CurrentUserID: app.session.User.ID,
	}
	v.hydrateSnapshot()
	return v
}

// hydrateSnapshot renders the last stored page while the live fetch runs.
func (v *dashboardView) hydrateSnapshot() {
	if v.app.store == nil {
		return
	}
	snap, found, err := v.app.store.LoadSnapshot()
	if err != nil {
		v.app.log.Warn("load snapshot: %v", err)
		return
	}
	if !found {
		return
	}
	var query api.TaskQuery
	var page api.TaskPage
	if json.Unmarshal([]byte(snap.QueryJSON), &query) != nil ||
		json.Unmarshal([]byte(snap.PageJSON), &page) != nil {
		return
	}
	query.CurrentUserID = v.app.session.User.ID
	v.query = query
	v.search.SetValue(query.Search)
	v.rows = page.Tasks
	v.totalPages = page.TotalPages
	v.stale = true
}

// fetch bumps the generation and issues a list request for the current query.
func (v *dashboardView) fetch() tea.Cmd {
	v.gen++
	v.loading = true
	gen := v.gen
	v.query.CurrentUserID = v.app.session.User.ID
	query := v.query
	client := v.app.client
	return func() tea.Msg {
		page, err := client.ListTasks(query)
		return tasksLoadedMsg{gen: gen, page: page, err: err}
	}
}

func (v *dashboardView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		if msg.gen != v.gen {
			return nil // a newer request is already in flight
		}
		v.loading = false
		v.stale = false
		if msg.err != nil {
			v.rows = nil
			v.totalPages = 0
			return v.app.notifyError("load tasks", msg.err)
		}
		v.rows = msg.page.Tasks
		v.totalPages = msg.page.TotalPages
		v.query.Page = pagination.Clamp(v.query.Page, v.totalPages)
		if v.cursor >= len(v.rows) {
			v.cursor = maxInt(0, len(v.rows)-1)
		}
		v.saveSnapshot(msg.page)
		return nil

	case taskDeletedMsg:
		if msg.err != nil {
			return v.app.notifyError("delete task", msg.err)
		}
		v.removeRow(msg.id)
		return v.app.notify(noticeInfo, "Task deleted")

	case taskCompletedMsg:
		if msg.err != nil {
			return v.app.notifyError("complete task", msg.err)
		}
		// Patch only that row's status; no re-fetch.
		for i := range v.rows {
			if v.rows[i].ID == msg.id {
				v.rows[i].Status = model.StatusCompleted
			}
		}
		return v.app.notify(noticeInfo, "Task completed")

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	if v.searching {
		var cmd tea.Cmd
		v.search, cmd = v.search.Update(msg)
		return cmd
	}
	return nil
}

func (v *dashboardView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.searching {
		switch msg.String() {
		case "enter", "esc":
			v.searching = false
			v.search.Blur()
			return nil
		default:
			var cmd tea.Cmd
			v.search, cmd = v.search.Update(msg)
			if v.search.Value() != v.query.Search {
				v.query.Search = v.search.Value()
				v.query.Page = 1
				return tea.Batch(cmd, v.fetch())
			}
			return cmd
		}
	}

	switch msg.String() {
	case "/":
		v.searching = true
		return v.search.Focus()
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.rows)-1 {
			v.cursor++
		}
	case "left", "h":
		return v.gotoPage(v.query.Page - 1)
	case "right", "l":
		return v.gotoPage(v.query.Page + 1)
	case "f":
		v.query.Filter = nextFilter(v.query.Filter)
		v.query.Page = 1
		return v.fetch()
	case "s":
		v.query.SortBy = nextSortField(v.query.SortBy)
		if v.query.SortBy == "" {
			v.query.SortOrder = ""
		} else if v.query.SortOrder == "" {
			v.query.SortOrder = "asc"
		}
		return v.fetch()
	case "o":
		if v.query.SortBy == "" {
			return nil
		}
		if v.query.SortOrder == "desc" {
			v.query.SortOrder = "asc"
		} else {
			v.query.SortOrder = "desc"
		}
		return v.fetch()
	case "r":
		return v.fetch()
	case "n":
		return func() tea.Msg { return openTaskFormMsg{} }
	case "enter":
		if task := v.selected(); task != nil {
			id := task.ID
			return func() tea.Msg { return openTaskDetailMsg{taskID: id} }
		}
	case "e":
		if task := v.selected(); task != nil {
			t := *task
			return func() tea.Msg { return openTaskFormMsg{task: &t} }
		}
	case "c":
		if task := v.selected(); task != nil {
			return v.completeTask(task.ID)
		}
	case "d":
		if task := v.selected(); task != nil {
			v.app.askConfirm(fmt.Sprintf("Delete %q?", task.Title), v.deleteTask(task.ID))
		}
	case "ctrl+l":
		return v.app.logout()
	case "q":
		return tea.Quit
	}
	return nil
}

func (v *dashboardView) gotoPage(page int) tea.Cmd {
	page = pagination.Clamp(page, v.totalPages)
	if page == v.query.Page {
		return nil
	}
	v.query.Page = page
	v.cursor = 0
	return v.fetch()
}

func (v *dashboardView) selected() *model.Task {
	if v.cursor < 0 || v.cursor >= len(v.rows) {
		return nil
	}
	return &v.rows[v.cursor]
}

func (v *dashboardView) removeRow(id string) {
	kept := v.rows[:0]
	for _, row := range v.rows {
		if row.ID != id {
			kept = append(kept, row)
		}
	}
	v.rows = kept
	if v.cursor >= len(v.rows) {
		v.cursor = maxInt(0, len(v.rows)-1)
	}
}

func (v *dashboardView) deleteTask(id string) tea.Cmd {
	client := v.app.client
	return func() tea.Msg {
		return taskDeletedMsg{id: id, err: client.DeleteTask(id)}
	}
}

func (v *dashboardView) completeTask(id string) tea.Cmd {
	client := v.app.client
	return func() tea.Msg {
		return taskCompletedMsg{id: id, err: client.UpdateTaskStatus(id, model.StatusCompleted)}
	}
}

func (v *dashboardView) saveSnapshot(page api.TaskPage) {
	if v.app.store == nil {
		return
	}
	if err := v.app.store.SaveSnapshot(v.query, page); err != nil {
		v.app.log.Warn("save snapshot: %v", err)
	}
}

func nextFilter(current string) string {
	filters := api.Filters()
	for i, f := range filters {
		if f == current {
			return filters[(i+1)%len(filters)]
		}
	}
	return filters[0]
}

func nextSortField(current string) string {
	for i, f := range sortFields {
		if f == current {
			return sortFields[(i+1)%len(sortFields)]
		}
	}
	return sortFields[0]
}

func (v *dashboardView) View() string {
	var b strings.Builder

	b.WriteString("Tasks\n")
	status := fmt.Sprintf("filter: %s", v.query.Filter)
	if v.query.SortBy != "" {
		status += fmt.Sprintf(" · sort: %s %s", v.query.SortBy, v.query.SortOrder)
	}
	if v.loading {
		status += " · loading…"
	} else if v.stale {
		status += " · showing cached results"
	}
	b.WriteString(dimStyle.Render(status) + "\n")
	if v.searching || v.query.Search != "" {
		b.WriteString(v.search.View() + "\n")
	}
	b.WriteString("\n")

	if len(v.rows) == 0 {
		if v.loading {
			b.WriteString(dimStyle.Render("fetching tasks…") + "\n")
		} else {
			b.WriteString(dimStyle.Render("No tasks found.") + "\n")
		}
	}
	for i, task := range v.rows {
		line := fmt.Sprintf("%-40s %-12s %-10s %s",
			truncate(task.Title, 40),
			statusLabel(task.Status),
			priorityLabel(task.Priority),
			dimStyle.Render(task.DueDate),
		)
		if i == v.cursor {
			line = selectedRowStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if v.totalPages > 1 {
		b.WriteString("\n" + v.renderPager() + "\n")
	}
	b.WriteString(hintStyle.Render("enter open · n new · e edit · c complete · d delete · / search · f filter · s sort · o order · ←/→ page · ctrl+l sign out · q quit"))
	return b.String()
}

func (v *dashboardView) renderPager() string {
	entries := pagination.Window(v.query.Page, v.totalPages)
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch {
		case entry.Gap:
			parts = append(parts, pageGapStyle.Render("…"))
		case entry.Page == v.query.Page:
			parts = append(parts, pageCurrentStyle.Render(fmt.Sprintf("[%d]", entry.Page)))
		default:
			parts = append(parts, fmt.Sprintf(" %d ", entry.Page))
		}
	}
	return strings.Join(parts, " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
