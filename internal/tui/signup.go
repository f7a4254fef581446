package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/webadmin/internal/session"
	"github.com/naveenspark/webadmin/pkg/domain"
)

type signupResultMsg struct {
	resp *domain.AuthResponse
	err  error
}

type signupModel struct {
	api        API
	store      *session.Store
	form       formModel
	submitting bool
	status     string
}

func newSignupModel(api API, store *session.Store) signupModel {
	return signupModel{
		api:   api,
		store: store,
		form: newForm(
			formField{key: "name", label: "Name"},
			formField{key: "email", label: "Email"},
			formField{key: "password", label: "Password", masked: true},
			formField{key: "password_confirmation", label: "Confirm Password", masked: true},
		),
	}
}

func (m signupModel) Update(msg tea.Msg) (signupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signupResultMsg:
		m.submitting = false
		if msg.err == nil {
			m.store.Establish(*msg.resp)
			m.form.reset()
			return m, nil
		}
		m.form.errors, m.status = authFailureView(msg.err)
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
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

func (m signupModel) submit() (signupModel, tea.Cmd) {
	p := domain.UserPayload{
		Name:                 strings.TrimSpace(m.form.value("name")),
		Email:                strings.TrimSpace(m.form.value("email")),
		Password:             m.form.value("password"),
		PasswordConfirmation: m.form.value("password_confirmation"),
	}
	m.status = ""
	if err := p.Validate(); err != nil {
		m.form.errors = domain.FieldErrors(err)
		return m, nil
	}
	m.form.errors = nil
	m.submitting = true
	api := m.api
	return m, func() tea.Msg {
		resp, err := api.Signup(context.Background(), p)
		return signupResultMsg{resp: resp, err: err}
	}
}

func (m signupModel) View() string {
	var b strings.Builder
	b.WriteString("  " + titleStyle.Render("Sign Up") + "\n\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString("  " + dimStyle.Render("creating account..."))
	case m.status != "":
		b.WriteString("  " + errorStyle.Render(m.status))
	default:
		b.WriteString("  " + metaStyle.Render("Have an account? ctrl+n to log in"))
	}
	return b.String()
}
