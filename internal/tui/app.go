package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/webadmin/internal/session"
)

type view int

const (
	viewLogin view = iota
	viewSignup
	viewUsers
	viewUserForm
)

// protected reports whether v requires an authenticated session.
func (v view) protected() bool {
	return v == viewUsers || v == viewUserForm
}

// sessionChangedMsg is delivered for every session store mutation.
type sessionChangedMsg struct {
	change session.Change
}

// navigateLoginMsg is sent by the guard after the server rejected the token.
type navigateLoginMsg struct{}

type bootstrapDoneMsg struct {
	err error
}

type logoutDoneMsg struct {
	err error
}

// Deps are the collaborators the App is built from.
type Deps struct {
	API      API
	Store    *session.Store
	Notifier *session.Notifier
	Guard    *session.Guard
	Version  string
}

// App is the root Bubbletea model.
type App struct {
	deps     Deps
	view     view
	login    loginModel
	signup   signupModel
	users    usersModel
	userForm userFormModel
	status   string
	width    int
	height   int
	frame    int // logo shimmer animation frame
}

// NewApp creates the TUI application. The first view is derived from the session.
func NewApp(d Deps) App {
	a := App{
		deps:   d,
		login:  newLoginModel(d.API, d.Store),
		signup: newSignupModel(d.API, d.Store),
		users:  newUsersModel(d.API, d.Notifier),
	}
	if d.Store.Authenticated() {
		a.view = viewUsers
		a.users.loading = true
	}
	return a
}

// Bind forwards session changes and guard navigation to p. Sends happen on
// their own goroutine since store mutations can originate inside Update.
func Bind(p *tea.Program, store *session.Store, guard *session.Guard) (unbind func()) {
	unsubscribe := store.Subscribe(func(ch session.Change) {
		go p.Send(sessionChangedMsg{change: ch})
	})
	if guard != nil {
		guard.SetNavigator(session.NavigatorFunc(func() {
			go p.Send(navigateLoginMsg{})
		}))
	}
	return func() {
		unsubscribe()
		if guard != nil {
			guard.SetNavigator(nil)
		}
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{shimmerTickCmd()}
	if a.deps.Store.Authenticated() {
		cmds = append(cmds, a.bootstrap(), a.users.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) bootstrap() tea.Cmd {
	store, api := a.deps.Store, a.deps.API
	return func() tea.Msg {
		return bootstrapDoneMsg{err: session.Bootstrap(context.Background(), store, api)}
	}
}

func (a App) logout() tea.Cmd {
	guard, api := a.deps.Guard, a.deps.API
	return func() tea.Msg {
		return logoutDoneMsg{err: guard.Logout(context.Background(), api)}
	}
}

// route is the view to show right now. Protected views fall back to login
// whenever the session is not authenticated.
func (a App) route() view {
	if a.view.protected() && !a.deps.Store.Authenticated() {
		return viewLogin
	}
	return a.view
}

// syncRoute applies the guard to the stored view and enters the users view
// once a login or signup established a session.
func (a App) syncRoute() (App, tea.Cmd) {
	authed := a.deps.Store.Authenticated()
	switch {
	case a.view.protected() && !authed:
		a.toLogin()
	case !a.view.protected() && authed:
		a.view = viewUsers
		a.users = newUsersModel(a.deps.API, a.deps.Notifier)
		a.users.width, a.users.height = a.width, a.bodyHeight()
		a.users.loading = true
		return a, a.users.Init()
	}
	return a, nil
}

func (a *App) toLogin() {
	if a.view == viewSignup {
		return
	}
	a.view = viewLogin
	a.users = newUsersModel(a.deps.API, a.deps.Notifier)
	a.userForm = userFormModel{}
}

// Chrome: header(2) + blank(1) + blank(1) + footer(2).
const chromeLines = 6

func (a App) bodyHeight() int {
	return max(a.height-chromeLines, 0)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: a.bodyHeight()}
		a.users, _ = a.users.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case sessionChangedMsg:
		if msg.change.Fields.Has(session.FieldToken) && msg.change.Snapshot.Authenticated() {
			a.status = ""
		}
		return a.syncRoute()

	case navigateLoginMsg:
		a.toLogin()
		a.status = "session expired, please log in again"
		return a, nil

	case bootstrapDoneMsg:
		if msg.err != nil && a.deps.Store.Authenticated() {
			a.status = "could not load profile: " + msg.err.Error()
		}
		return a, nil

	case logoutDoneMsg:
		a.toLogin()
		if msg.err != nil {
			a.status = "logout: " + msg.err.Error()
		}
		return a, nil

	case editUserMsg:
		a.view = viewUserForm
		a.userForm = newUserFormModel(a.deps.API, a.deps.Notifier, msg.id)
		return a, a.userForm.Init()

	case usersViewMsg:
		a.view = viewUsers
		if msg.reload {
			a.users.loading = true
			return a, a.users.load()
		}
		return a, nil

	case tea.KeyMsg:
		if model, cmd, handled := a.globalKey(msg); handled {
			return model, cmd
		}
	}

	var cmd tea.Cmd
	switch a.route() {
	case viewLogin:
		a.view = viewLogin
		a.login, cmd = a.login.Update(msg)
	case viewSignup:
		a.signup, cmd = a.signup.Update(msg)
	case viewUsers:
		a.users, cmd = a.users.Update(msg)
	case viewUserForm:
		a.userForm, cmd = a.userForm.Update(msg)
	}
	return a, cmd
}

// globalKey handles keys that act regardless of the focused view.
func (a App) globalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit, true
	case "ctrl+n":
		switch a.route() {
		case viewLogin:
			a.view = viewSignup
			a.status = ""
			return a, nil, true
		case viewSignup:
			a.view = viewLogin
			a.status = ""
			return a, nil, true
		}
	}
	if a.route() != viewUsers || a.users.filtering || a.users.confirming {
		return a, nil, false
	}
	switch msg.String() {
	case "q":
		return a, tea.Quit, true
	case "L":
		a.status = ""
		return a, a.logout(), true
	}
	return a, nil, false
}

func (a App) View() string {
	snap := a.deps.Store.Snapshot()

	logo := renderShimmerLogo(a.frame)
	var identity string
	switch {
	case !snap.Authenticated():
		identity = dimStyle.Render("not signed in")
	case snap.Pending && snap.User.IsEmpty():
		identity = dimStyle.Render("loading profile…")
	case snap.User.IsEmpty():
		identity = dimStyle.Render("signed in")
	default:
		identity = selectedStyle.Render(snap.User.Name) + " " + metaStyle.Render(snap.User.Email)
	}
	gap := a.width - lipgloss.Width(logo) - lipgloss.Width(identity) - 4
	header := "  " + logo + strings.Repeat(" ", max(gap, 2)) + identity
	if a.deps.Version != "" {
		header += "\n  " + metaStyle.Render("v"+a.deps.Version)
	} else {
		header += "\n"
	}

	var body, help string
	switch a.route() {
	case viewLogin:
		body = a.login.View()
		help = helpBar("tab", "next", "enter", "login", "ctrl+n", "sign up", "ctrl+c", "quit")
	case viewSignup:
		body = a.signup.View()
		help = helpBar("tab", "next", "enter", "sign up", "ctrl+n", "login", "ctrl+c", "quit")
	case viewUsers:
		body = a.users.View()
		help = a.users.helpKeys()
	case viewUserForm:
		body = a.userForm.View()
		help = a.userForm.helpKeys()
	}
	body = strings.TrimRight(truncateToHeight(body, a.bodyHeight()), "\n")

	footer := ""
	if a.status != "" {
		footer = "  " + warnStyle.Render(a.status)
	}
	if n := snap.Notification; !n.IsEmpty() {
		note := notificationStyle.Render(n.Message)
		pad := a.width - lipgloss.Width(footer) - lipgloss.Width(note) - 2
		footer += strings.Repeat(" ", max(pad, 2)) + note
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s", header, body, footer, help)
}
