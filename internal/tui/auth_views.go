package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/todochimp/chimp/internal/api"
	"github.com/todochimp/chimp/internal/model"
	"github.com/todochimp/chimp/internal/validate"
)

func textinputBlink() tea.Cmd {
	return textinput.Blink
}

func newField(placeholder string) textinput.Model {
	field := textinput.New()
	field.Placeholder = placeholder
	field.CharLimit = 200
	field.Width = 40
	return field
}

func newPasswordField(placeholder string) textinput.Model {
	field := newField(placeholder)
	field.EchoMode = textinput.EchoPassword
	field.EchoCharacter = '•'
	return field
}

// fieldSet is the shared focus/update plumbing for the auth forms.
type fieldSet struct {
	inputs  []*textinput.Model
	focused int
}

func (f *fieldSet) focus(i int) tea.Cmd {
	if i < 0 || i >= len(f.inputs) {
		return nil
	}
	f.focused = i
	var cmd tea.Cmd
	for idx, input := range f.inputs {
		if idx == i {
			cmd = input.Focus()
		} else {
			input.Blur()
		}
	}
	return cmd
}

func (f *fieldSet) next() tea.Cmd {
	return f.focus((f.focused + 1) % len(f.inputs))
}

func (f *fieldSet) prev() tea.Cmd {
	return f.focus((f.focused + len(f.inputs) - 1) % len(f.inputs))
}

func (f *fieldSet) updateFocused(msg tea.Msg) tea.Cmd {
	if f.focused < 0 || f.focused >= len(f.inputs) {
		return nil
	}
	var cmd tea.Cmd
	*f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return cmd
}

// ----- login -----

type loginResultMsg struct {
	session model.Session
	err     error
}

type loginView struct {
	app      *App
	email    textinput.Model
	password textinput.Model
	fields   fieldSet
	busy     bool
	errText  string
}

func newLoginView(app *App) *loginView {
	v := &loginView{
		app:      app,
		email:    newField("email"),
		password: newPasswordField("password"),
	}
	v.fields = fieldSet{inputs: []*textinput.Model{&v.email, &v.password}}
	v.fields.focus(0)
	return v
}

func (v *loginView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginResultMsg:
		v.busy = false
		if msg.err != nil {
			v.errText = errorText(msg.err)
			return nil
		}
		return func() tea.Msg { return loggedInMsg{session: msg.session} }

	case tea.KeyMsg:
		if v.busy {
			return nil
		}
		switch msg.String() {
		case "tab", "down":
			return v.fields.next()
		case "shift+tab", "up":
			return v.fields.prev()
		case "enter":
			return v.submit()
		case "ctrl+r":
			v.app.state = stateRegister
			v.app.register = newRegisterView(v.app)
			return textinputBlink()
		case "ctrl+f":
			v.app.state = stateForgot
			v.app.forgot = newForgotView(v.app)
			return textinputBlink()
		}
	}
	return v.fields.updateFocused(msg)
}

func (v *loginView) submit() tea.Cmd {
	email := strings.TrimSpace(v.email.Value())
	password := v.password.Value()
	if err := validate.Email(email); err != nil {
		v.errText = err.Error()
		return nil
	}
	if password == "" {
		v.errText = "Password is required"
		return nil
	}
	v.busy = true
	v.errText = ""
	client := v.app.client
	return func() tea.Msg {
		session, err := client.Login(email, password)
		return loginResultMsg{session: session, err: err}
	}
}

func (v *loginView) View() string {
	var b strings.Builder
	b.WriteString("Sign in\n\n")
	b.WriteString(v.email.View() + "\n")
	b.WriteString(v.password.View() + "\n")
	if v.busy {
		b.WriteString(dimStyle.Render("signing in…") + "\n")
	}
	if v.errText != "" {
		b.WriteString(fieldErrorStyle.Render(v.errText) + "\n")
	}
	b.WriteString(hintStyle.Render("enter sign in · ctrl+r register · ctrl+f forgot password · ctrl+c quit"))
	return b.String()
}

// ----- register -----

type registerResultMsg struct {
	session model.Session
	err     error
}

type registerView struct {
	app      *App
	name     textinput.Model
	email    textinput.Model
	password textinput.Model
	orgName  textinput.Model
	invite   textinput.Model
	fields   fieldSet
	busy     bool
	errText  string
}

func newRegisterView(app *App) *registerView {
	v := &registerView{
		app:      app,
		name:     newField("full name"),
		email:    newField("email"),
		password: newPasswordField("password"),
		orgName:  newField("organization name (blank when joining by invite)"),
		invite:   newField("invite token (optional)"),
	}
	v.fields = fieldSet{inputs: []*textinput.Model{&v.name, &v.email, &v.password, &v.orgName, &v.invite}}
	v.fields.focus(0)
	return v
}

func (v *registerView) setInvite(token string) {
	v.invite.SetValue(token)
}

func (v *registerView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case registerResultMsg:
		v.busy = false
		if msg.err != nil {
			v.errText = errorText(msg.err)
			return nil
		}
		return func() tea.Msg { return loggedInMsg{session: msg.session} }

	case tea.KeyMsg:
		if v.busy {
			return nil
		}
		switch msg.String() {
		case "tab", "down":
			return v.fields.next()
		case "shift+tab", "up":
			return v.fields.prev()
		case "enter":
			return v.submit()
		case "esc":
			v.app.state = stateLogin
			v.app.login = newLoginView(v.app)
			return textinputBlink()
		}
	}
	return v.fields.updateFocused(msg)
}

func (v *registerView) submit() tea.Cmd {
	req := api.RegisterRequest{
		Name:             strings.TrimSpace(v.name.Value()),
		Email:            strings.TrimSpace(v.email.Value()),
		Password:         v.password.Value(),
		OrganizationName: strings.TrimSpace(v.orgName.Value()),
		InviteToken:      strings.TrimSpace(v.invite.Value()),
	}
	if req.Name == "" {
		v.errText = "Name is required"
		return nil
	}
	if err := validate.Email(req.Email); err != nil {
		v.errText = err.Error()
		return nil
	}
	if len(req.Password) < 6 {
		v.errText = "Password must be at least 6 characters"
		return nil
	}
	if req.OrganizationName == "" && req.InviteToken == "" {
		v.errText = "Organization name is required without an invite"
		return nil
	}
	v.busy = true
	v.errText = ""
	client := v.app.client
	return func() tea.Msg {
		session, err := client.Register(req)
		return registerResultMsg{session: session, err: err}
	}
}

func (v *registerView) View() string {
	var b strings.Builder
	b.WriteString("Create account\n\n")
	for _, input := range []textinput.Model{v.name, v.email, v.password, v.orgName, v.invite} {
		b.WriteString(input.View() + "\n")
	}
	if v.busy {
		b.WriteString(dimStyle.Render("creating account…") + "\n")
	}
	if v.errText != "" {
		b.WriteString(fieldErrorStyle.Render(v.errText) + "\n")
	}
	b.WriteString(hintStyle.Render("enter sign up · esc back to sign in"))
	return b.String()
}

// ----- forgot password -----

type forgotResultMsg struct{ err error }

type forgotView struct {
	app     *App
	email   textinput.Model
	busy    bool
	sent    bool
	errText string
}

func newForgotView(app *App) *forgotView {
	v := &forgotView{app: app, email: newField("email")}
	v.email.Focus()
	return v
}

func (v *forgotView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case forgotResultMsg:
		v.busy = false
		if msg.err != nil {
			v.errText = errorText(msg.err)
			return nil
		}
		v.sent = true
		return nil

	case tea.KeyMsg:
		if v.busy {
			return nil
		}
		switch msg.String() {
		case "enter":
			if v.sent {
				v.app.state = stateReset
				v.app.reset = newResetView(v.app)
				return textinputBlink()
			}
			return v.submit()
		case "esc":
			v.app.state = stateLogin
			v.app.login = newLoginView(v.app)
			return textinputBlink()
		}
	}
	var cmd tea.Cmd
	v.email, cmd = v.email.Update(msg)
	return cmd
}

func (v *forgotView) submit() tea.Cmd {
	email := strings.TrimSpace(v.email.Value())
	if err := validate.Email(email); err != nil {
		v.errText = err.Error()
		return nil
	}
	v.busy = true
	v.errText = ""
	client := v.app.client
	return func() tea.Msg {
		return forgotResultMsg{err: client.ForgotPassword(email)}
	}
}

func (v *forgotView) View() string {
	var b strings.Builder
	b.WriteString("Forgot password\n\n")
	if v.sent {
		b.WriteString("If that address exists, a reset email is on its way.\n")
		b.WriteString(hintStyle.Render("enter continue with a reset token · esc back to sign in"))
		return b.String()
	}
	b.WriteString(v.email.View() + "\n")
	if v.busy {
		b.WriteString(dimStyle.Render("sending…") + "\n")
	}
	if v.errText != "" {
		b.WriteString(fieldErrorStyle.Render(v.errText) + "\n")
	}
	b.WriteString(hintStyle.Render("enter send reset email · esc back to sign in"))
	return b.String()
}

// ----- reset password -----

type resetResultMsg struct{ err error }

type resetView struct {
	app      *App
	token    textinput.Model
	password textinput.Model
	confirm  textinput.Model
	fields   fieldSet
	busy     bool
	errText  string
}

func newResetView(app *App) *resetView {
	v := &resetView{
		app:      app,
		token:    newField("reset token from the email"),
		password: newPasswordField("new password"),
		confirm:  newPasswordField("confirm new password"),
	}
	v.fields = fieldSet{inputs: []*textinput.Model{&v.token, &v.password, &v.confirm}}
	v.fields.focus(0)
	return v
}

func (v *resetView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resetResultMsg:
		v.busy = false
		if msg.err != nil {
			v.errText = errorText(msg.err)
			return nil
		}
		v.app.state = stateLogin
		v.app.login = newLoginView(v.app)
		return tea.Batch(
			v.app.notify(noticeInfo, "Password updated, sign in again"),
			textinputBlink(),
		)

	case tea.KeyMsg:
		if v.busy {
			return nil
		}
		switch msg.String() {
		case "tab", "down":
			return v.fields.next()
		case "shift+tab", "up":
			return v.fields.prev()
		case "enter":
			return v.submit()
		case "esc":
			v.app.state = stateLogin
			v.app.login = newLoginView(v.app)
			return textinputBlink()
		}
	}
	return v.fields.updateFocused(msg)
}

func (v *resetView) submit() tea.Cmd {
	token := strings.TrimSpace(v.token.Value())
	password := v.password.Value()
	if token == "" {
		v.errText = "Reset token is required"
		return nil
	}
	if len(password) < 6 {
		v.errText = "Password must be at least 6 characters"
		return nil
	}
	if password != v.confirm.Value() {
		v.errText = "Passwords do not match"
		return nil
	}
	v.busy = true
	v.errText = ""
	client := v.app.client
	return func() tea.Msg {
		return resetResultMsg{err: client.ResetPassword(token, password)}
	}
}

func (v *resetView) View() string {
	var b strings.Builder
	b.WriteString("Reset password\n\n")
	b.WriteString(v.token.View() + "\n")
	b.WriteString(v.password.View() + "\n")
	b.WriteString(v.confirm.View() + "\n")
	if v.busy {
		b.WriteString(dimStyle.Render("updating…") + "\n")
	}
	if v.errText != "" {
		b.WriteString(fieldErrorStyle.Render(v.errText) + "\n")
	}
	b.WriteString(hintStyle.Render("enter reset · esc back to sign in"))
	return b.String()
}

// errorText keeps backend messages readable in the small error slot.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	if len(text) > 120 {
		text = text[:117] + "…"
	}
	return text
}
