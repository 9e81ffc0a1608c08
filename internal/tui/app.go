// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for TodoChimp.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/todochimp/chimp/internal/aigen"
	"github.com/todochimp/chimp/internal/api"
	"github.com/todochimp/chimp/internal/config"
	"github.com/todochimp/chimp/internal/localstore"
	"github.com/todochimp/chimp/internal/logbook"
	"github.com/todochimp/chimp/internal/model"
)

// appState represents which "screen" we're on
type appState int

const (
	stateLogin      appState = iota // Email/password sign-in
	stateRegister                   // Account + organization creation
	stateForgot                     // Request a password reset email
	stateReset                      // Redeem a reset token
	stateDashboard                  // Task list with filters and paging
	stateTaskForm                   // Create or edit one task
	stateTaskDetail                 // Read-only task view with comments and files
)

const noticeLifetime = 2500 * time.Millisecond

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeError
	noticeLimit
)

// notice is the transient status line at the bottom of the screen. The id
// ties each dismiss timer to the notice it was armed for, so a newer notice
// is never cleared by an older timer firing late.
type notice struct {
	id   string
	kind noticeKind
	text string
}

type noticeExpireMsg struct{ id string }

// confirmPrompt parks a command until the user answers y/n. Destructive
// actions route through this instead of executing on the first keypress.
type confirmPrompt struct {
	active  bool
	text    string
	pending tea.Cmd
}

// Navigation messages emitted by sub-views.

type loggedInMsg struct{ session model.Session }

type loggedOutMsg struct{}

type showDashboardMsg struct{ refresh bool }

type openTaskFormMsg struct {
	task *model.Task // nil opens the form in create mode
}

type openTaskDetailMsg struct{ taskID string }

type sessionVerifiedMsg struct {
	user model.User
	err  error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithSession seeds a stored session so the app starts on the dashboard.
func WithSession(session model.Session) AppOption {
	return func(a *App) {
		if !session.Valid() {
			return
		}
		a.session = session
		a.client.SetToken(session.Token)
		a.state = stateDashboard
	}
}

// WithInvite starts on the registration screen with the invite token filled
// in, mirroring an invite link.
func WithInvite(token string) AppOption {
	return func(a *App) {
		if strings.TrimSpace(token) == "" {
			return
		}
		a.state = stateRegister
		a.register.setInvite(token)
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config *config.Config
	client *api.Client
	gen    *aigen.Client
	store  *localstore.Store
	log    *logbook.Logbook

	state   appState
	session model.Session

	login     *loginView
	register  *registerView
	forgot    *forgotView
	reset     *resetView
	dashboard *dashboardView
	form      *taskFormView
	detail    *detailView

	notice  notice
	confirm confirmPrompt

	width  int
	height int
}

// NewApp wires up the root model. store may be nil when state persistence is
// unavailable; the app degrades to in-memory sessions.
func NewApp(cfg *config.Config, client *api.Client, gen *aigen.Client, store *localstore.Store, log *logbook.Logbook, opts ...AppOption) *App {
	app := &App{
		config: cfg,
		client: client,
		gen:    gen,
		store:  store,
		log:    log,
		state:  stateLogin,
	}
	app.login = newLoginView(app)
	app.register = newRegisterView(app)
	app.forgot = newForgotView(app)
	app.reset = newResetView(app)
	app.dashboard = newDashboardView(app)
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

// Init starts the first fetches. A hydrated session is revalidated in the
// background while the dashboard loads.
func (a *App) Init() tea.Cmd {
	if a.state != stateDashboard {
		return textinputBlink()
	}
	return tea.Batch(a.verifySession(), a.dashboard.fetch())
}

func (a *App) verifySession() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		user, err := client.Me()
		return sessionVerifiedMsg{user: user, err: err}
	}
}

// Update is where all state transitions happen. App-wide messages are
// handled here; everything else routes to the active screen.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case noticeExpireMsg:
		if a.notice.id == msg.id {
			a.notice = notice{}
		}
		return a, nil

	case sessionVerifiedMsg:
		if msg.err != nil {
			if api.StatusOf(msg.err) == 401 {
				a.log.Warn("stored session rejected, signing out: %v", msg.err)
				return a, a.logout()
			}
			a.log.Warn("session check failed: %v", msg.err)
			return a, nil
		}
		a.session.User = msg.user
		return a, nil

	case loggedInMsg:
		a.session = msg.session
		if a.store != nil {
			if err := a.store.SaveSession(msg.session); err != nil {
				a.log.Error("persist session: %v", err)
			}
		}
		a.state = stateDashboard
		a.dashboard = newDashboardView(a)
		return a, tea.Batch(
			a.notify(noticeInfo, "Signed in as %s", msg.session.User.Email),
			a.dashboard.fetch(),
		)

	case loggedOutMsg:
		a.session = model.Session{}
		a.client.SetToken("")
		a.state = stateLogin
		a.login = newLoginView(a)
		return a, textinputBlink()

	case showDashboardMsg:
		a.state = stateDashboard
		if msg.refresh {
			return a, a.dashboard.fetch()
		}
		return a, nil

	case openTaskFormMsg:
		a.form = newTaskFormView(a, msg.task)
		a.state = stateTaskForm
		return a, a.form.init()

	case openTaskDetailMsg:
		a.detail = newDetailView(a, msg.taskID)
		a.state = stateTaskDetail
		return a, a.detail.init()

	case tea.KeyMsg:
		if a.confirm.active {
			return a, a.handleConfirmKey(msg)
		}
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	return a, a.routeToScreen(msg)
}

func (a *App) routeToScreen(msg tea.Msg) tea.Cmd {
	switch a.state {
	case stateLogin:
		return a.login.Update(msg)
	case stateRegister:
		return a.register.Update(msg)
	case stateForgot:
		return a.forgot.Update(msg)
	case stateReset:
		return a.reset.Update(msg)
	case stateDashboard:
		return a.dashboard.Update(msg)
	case stateTaskForm:
		if a.form != nil {
			return a.form.Update(msg)
		}
	case stateTaskDetail:
		if a.detail != nil {
			return a.detail.Update(msg)
		}
	}
	return nil
}

func (a *App) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		pending := a.confirm.pending
		a.confirm = confirmPrompt{}
		return pending
	case "n", "N", "esc":
		a.confirm = confirmPrompt{}
	}
	return nil
}

// askConfirm parks cmd behind a y/n prompt rendered in the footer.
func (a *App) askConfirm(text string, cmd tea.Cmd) {
	a.confirm = confirmPrompt{active: true, text: text, pending: cmd}
}

// notify replaces the current notice and arms its dismiss timer.
func (a *App) notify(kind noticeKind, format string, args ...any) tea.Cmd {
	n := notice{id: uuid.NewString(), kind: kind, text: fmt.Sprintf(format, args...)}
	a.notice = n
	return tea.Tick(noticeLifetime, func(time.Time) tea.Msg {
		return noticeExpireMsg{id: n.id}
	})
}

// notifyError logs the failure and surfaces it in the footer.
func (a *App) notifyError(context string, err error) tea.Cmd {
	a.log.Error("%s: %v", context, err)
	return a.notify(noticeError, "%s: %v", context, err)
}

func (a *App) logout() tea.Cmd {
	if a.store != nil {
		if err := a.store.ClearSession(); err != nil {
			a.log.Error("clear session: %v", err)
		}
	}
	return func() tea.Msg { return loggedOutMsg{} }
}

// View renders the active screen inside the shared chrome.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	header := headerStyle.Render("◎ TODOCHIMP")
	if a.session.Valid() {
		who := dimStyle.Render(fmt.Sprintf("  %s · %s", a.session.User.Name, a.session.User.OrganizationName))
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, who)
	}

	var content string
	switch a.state {
	case stateLogin:
		content = a.login.View()
	case stateRegister:
		content = a.register.View()
	case stateForgot:
		content = a.forgot.View()
	case stateReset:
		content = a.reset.View()
	case stateDashboard:
		content = a.dashboard.View()
	case stateTaskForm:
		if a.form != nil {
			content = a.form.View()
		}
	case stateTaskDetail:
		if a.detail != nil {
			content = a.detail.View()
		}
	}

	sections := []string{header, panelStyle.Width(clampWidth(width-4)).Render(content)}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	if footer := a.renderFooter(); footer != "" {
		sections = append(sections, footer)
	}
	return strings.Join(sections, "\n")
}

// renderLogPanel shows the last few log lines under the dashboard so backend
// trouble is visible without leaving the screen.
func (a *App) renderLogPanel() string {
	if a.log == nil || a.state != stateDashboard {
		return ""
	}
	lines, _ := a.log.Tail(4)
	if len(lines) == 0 {
		return ""
	}
	return dimStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderFooter() string {
	if a.confirm.active {
		return noticeStyles[noticeLimit].Render(a.confirm.text + "  (y/n)")
	}
	if a.notice.text != "" {
		return noticeStyles[a.notice.kind].Render(a.notice.text)
	}
	return ""
}

func clampWidth(w int) int {
	if w < 40 {
		return 40
	}
	if w > 120 {
		return 120
	}
	return w
}
