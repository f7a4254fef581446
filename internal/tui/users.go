package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/webadmin/internal/session"
	"github.com/naveenspark/webadmin/pkg/client"
	"github.com/naveenspark/webadmin/pkg/domain"
)

// -- messages --

type usersLoadedMsg struct {
	page *domain.UserPage
	err  error
}

type userDeletedMsg struct {
	id  int64
	err error
}

type copyResultMsg struct {
	err error
}

// editUserMsg opens the user form; id 0 means a new user.
type editUserMsg struct {
	id int64
}

// -- model --

type usersModel struct {
	api        API
	notifier   *session.Notifier
	users      []domain.User
	meta       domain.PageMeta
	page       int
	cursor     int
	loading    bool
	err        string
	status     string
	confirming bool // delete confirmation prompt is open
	filtering  bool
	filter     string
	width      int
	height     int
}

func newUsersModel(api API, n *session.Notifier) usersModel {
	return usersModel{api: api, notifier: n, page: 1}
}

func (m usersModel) Init() tea.Cmd {
	return m.load()
}

func (m usersModel) load() tea.Cmd {
	api := m.api
	page := m.page
	return func() tea.Msg {
		p, err := api.ListUsers(context.Background(), page)
		return usersLoadedMsg{page: p, err: err}
	}
}

// visible returns users matching the name filter.
func (m usersModel) visible() []domain.User {
	if m.filter == "" {
		return m.users
	}
	q := strings.ToLower(m.filter)
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		if strings.Contains(strings.ToLower(u.Name), q) {
			out = append(out, u)
		}
	}
	return out
}

func (m usersModel) selected() (domain.User, bool) {
	vis := m.visible()
	if m.cursor < 0 || m.cursor >= len(vis) {
		return domain.User{}, false
	}
	return vis[m.cursor], true
}

func (m usersModel) Update(msg tea.Msg) (usersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case usersLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if client.Classify(msg.err) != client.OutcomeAuth {
				m.err = msg.err.Error()
			}
			return m, nil
		}
		m.err = ""
		m.users = msg.page.Data
		m.meta = msg.page.Meta
		if m.meta.CurrentPage > 0 {
			m.page = m.meta.CurrentPage
		}
		if m.cursor >= len(m.visible()) {
			m.cursor = max(len(m.visible())-1, 0)
		}
		return m, nil

	case userDeletedMsg:
		m.loading = false
		if msg.err != nil {
			if client.Classify(msg.err) != client.OutcomeAuth {
				m.err = "delete failed: " + msg.err.Error()
			}
			return m, nil
		}
		m.notifier.Show("User deleted successfully")
		m.loading = true
		return m, m.load()

	case copyResultMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "email copied"
		}
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		if m.confirming {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m usersModel) updateFilter(msg tea.KeyMsg) (usersModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filter = ""
	case "enter":
		m.filtering = false
	default:
		m.filter = editKey(m.filter, msg)
	}
	m.cursor = 0
	return m, nil
}

func (m usersModel) updateConfirm(msg tea.KeyMsg) (usersModel, tea.Cmd) {
	m.confirming = false
	if msg.String() != "y" {
		return m, nil
	}
	u, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.loading = true
	api := m.api
	return m, func() tea.Msg {
		err := api.DeleteUser(context.Background(), u.ID)
		return userDeletedMsg{id: u.ID, err: err}
	}
}

func (m usersModel) updateKeys(msg tea.KeyMsg) (usersModel, tea.Cmd) {
	m.status = ""
	vis := m.visible()
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(vis)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "/":
		m.filtering = true
	case "n":
		return m, func() tea.Msg { return editUserMsg{} }
	case "enter", "e":
		if u, ok := m.selected(); ok {
			return m, func() tea.Msg { return editUserMsg{id: u.ID} }
		}
	case "d":
		if _, ok := m.selected(); ok {
			m.confirming = true
		}
	case "c":
		if u, ok := m.selected(); ok {
			email := u.Email
			return m, func() tea.Msg {
				return copyResultMsg{err: clipboard.WriteAll(email)}
			}
		}
	case "]":
		// meta describes the last response; ignore paging until it lands.
		if m.loading {
			return m, nil
		}
		if m.meta.CurrentPage < m.meta.LastPage {
			m.page++
			m.cursor = 0
			m.loading = true
			return m, m.load()
		}
	case "[":
		if !m.loading && m.page > 1 {
			m.page--
			m.cursor = 0
			m.loading = true
			return m, m.load()
		}
	case "r":
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

func (m usersModel) View() string {
	var b strings.Builder

	title := "  " + titleStyle.Render("Users")
	if m.filtering || m.filter != "" {
		cursor := ""
		if m.filtering {
			cursor = "█"
		}
		title += "   " + inputPromptStyle.Render("/ ") + normalStyle.Render(m.filter+cursor)
	} else {
		title += "   " + inputPlaceholderStyle.Render("/ search by name")
	}
	b.WriteString(title + "\n\n")

	idW, nameW, emailW, dateW := 6, 20, 28, 19
	if m.width > 0 {
		if extra := m.width - (2 + idW + nameW + emailW + dateW + 6); extra > 0 {
			nameW += extra / 2
			emailW += extra - extra/2
		}
	}
	header := fmt.Sprintf(" %s  %s  %s  %s ",
		padRight("ID", idW), padRight("NAME", nameW), padRight("EMAIL", emailW), padRight("CREATED", dateW))
	b.WriteString("  " + tableHeaderStyle.Render(header) + "\n")

	vis := m.visible()
	switch {
	case m.loading:
		b.WriteString("  " + dimStyle.Render("Loading . . .") + "\n")
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err) + "\n")
	case len(vis) == 0:
		b.WriteString("  " + dimStyle.Render("no users") + "\n")
	default:
		for i, u := range vis {
			row := fmt.Sprintf(" %s  %s  %s  %s ",
				padRight(strconv.FormatInt(u.ID, 10), idW),
				padRight(u.Name, nameW),
				padRight(u.Email, emailW),
				padRight(u.CreatedAt, dateW))
			if i == m.cursor {
				b.WriteString(accentStyle.Render("> ") + selectedRowBg.Render(selectedStyle.Render(row)) + "\n")
			} else {
				b.WriteString("  " + normalStyle.Render(row) + "\n")
			}
		}
	}

	b.WriteString("\n")
	if m.meta.LastPage > 0 {
		b.WriteString("  " + metaStyle.Render(fmt.Sprintf("page %d of %d · %d users", m.meta.CurrentPage, m.meta.LastPage, m.meta.Total)))
	}
	if m.confirming {
		if u, ok := m.selected(); ok {
			b.WriteString("\n  " + warnStyle.Render(fmt.Sprintf("Delete %s? (y/n)", u.Name)))
		}
	} else if m.status != "" {
		b.WriteString("\n  " + dimStyle.Render(m.status))
	}
	return b.String()
}

func (m usersModel) helpKeys() string {
	if m.filtering {
		return helpBar("enter", "apply", "esc", "clear")
	}
	if m.confirming {
		return helpBar("y", "delete", "n", "cancel")
	}
	return helpBar("j/k", "nav", "n", "new", "e", "edit", "d", "delete", "c", "copy", "[/]", "page", "/", "search", "r", "reload", "L", "logout", "q", "quit")
}
