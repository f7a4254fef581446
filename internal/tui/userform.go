package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/webadmin/internal/session"
	"github.com/naveenspark/webadmin/pkg/client"
	"github.com/naveenspark/webadmin/pkg/domain"
)

type userLoadedMsg struct {
	user *domain.User
	err  error
}

type userSavedMsg struct {
	created bool
	err     error
}

// usersViewMsg returns to the users table, reloading it when reload is set.
type usersViewMsg struct {
	reload bool
}

type userFormModel struct {
	api      API
	notifier *session.Notifier
	id       int64 // 0 while creating
	form     formModel
	loading  bool
	saving   bool
	status   string
}

func newUserFormModel(api API, n *session.Notifier, id int64) userFormModel {
	return userFormModel{
		api:      api,
		notifier: n,
		id:       id,
		loading:  id != 0,
		form: newForm(
			formField{key: "name", label: "Name"},
			formField{key: "email", label: "Email"},
			formField{key: "password", label: "Password", masked: true},
			formField{key: "password_confirmation", label: "Confirm Password", masked: true},
		),
	}
}

func (m userFormModel) Init() tea.Cmd {
	if m.id == 0 {
		return nil
	}
	api, id := m.api, m.id
	return func() tea.Msg {
		u, err := api.GetUser(context.Background(), id)
		return userLoadedMsg{user: u, err: err}
	}
}

func (m userFormModel) title() string {
	if m.id == 0 {
		return "New User"
	}
	return "Update User: " + m.form.value("name")
}

func (m userFormModel) Update(msg tea.Msg) (userFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case userLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if client.Classify(msg.err) != client.OutcomeAuth {
				m.status = "load failed: " + msg.err.Error()
			}
			return m, nil
		}
		m.form.set("name", msg.user.Name)
		m.form.set("email", msg.user.Email)
		return m, nil

	case userSavedMsg:
		m.saving = false
		if msg.err != nil {
			switch client.Classify(msg.err) {
			case client.OutcomeValidation:
				verr, _ := client.AsValidation(msg.err)
				m.form.errors = verr.Fields
				if len(verr.Fields) == 0 {
					m.status = verr.Message
				}
			case client.OutcomeAuth:
			default:
				m.status = "save failed: " + msg.err.Error()
			}
			return m, nil
		}
		if msg.created {
			m.notifier.Show("User created successfully")
		} else {
			m.notifier.Show("User updated successfully")
		}
		return m, func() tea.Msg { return usersViewMsg{reload: true} }

	case tea.KeyMsg:
		// The save result is delivered to this view, so it stays until then.
		if m.saving {
			return m, nil
		}
		if msg.String() == "esc" {
			return m, func() tea.Msg { return usersViewMsg{} }
		}
		if m.loading {
			return m, nil
		}
		var submit bool
		m.form, submit = m.form.update(msg)
		if submit {
			return m.submit()
		}
	}
	return m, nil
}

func (m userFormModel) submit() (userFormModel, tea.Cmd) {
	p := domain.UserPayload{
		Name:                 strings.TrimSpace(m.form.value("name")),
		Email:                strings.TrimSpace(m.form.value("email")),
		Password:             m.form.value("password"),
		PasswordConfirmation: m.form.value("password_confirmation"),
	}
	m.status = ""

	validate := p.Validate
	if m.id != 0 {
		validate = p.ValidateUpdate
	}
	if err := validate(); err != nil {
		m.form.errors = domain.FieldErrors(err)
		if m.form.errors == nil {
			m.status = err.Error()
		}
		return m, nil
	}

	m.form.errors = nil
	m.saving = true
	api, id := m.api, m.id
	return m, func() tea.Msg {
		var err error
		if id == 0 {
			_, err = api.CreateUser(context.Background(), p)
		} else {
			_, err = api.UpdateUser(context.Background(), id, p)
		}
		return userSavedMsg{created: id == 0, err: err}
	}
}

func (m userFormModel) View() string {
	var b strings.Builder
	b.WriteString("  " + titleStyle.Render(m.title()) + "\n\n")
	if m.loading {
		b.WriteString("  " + dimStyle.Render("Loading . . .") + "\n")
		return b.String()
	}
	b.WriteString(m.form.View())
	b.WriteString("\n")
	switch {
	case m.saving:
		b.WriteString("  " + dimStyle.Render("saving..."))
	case m.status != "":
		b.WriteString("  " + errorStyle.Render(m.status))
	case m.id != 0:
		b.WriteString("  " + metaStyle.Render("leave password empty to keep it"))
	}
	return b.String()
}

func (m userFormModel) helpKeys() string {
	return helpBar("tab", "next", "enter", "next/save", "ctrl+s", "save", "esc", "back")
}
