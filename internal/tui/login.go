package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/webadmin/internal/session"
	"github.com/naveenspark/webadmin/pkg/client"
	"github.com/naveenspark/webadmin/pkg/domain"
)

type loginResultMsg struct {
	resp *domain.AuthResponse
	err  error
}

type loginModel struct {
	api        API
	store      *session.Store
	form       formModel
	submitting bool
	status     string
}

func newLoginModel(api API, store *session.Store) loginModel {
	return loginModel{
		api:   api,
		store: store,
		form: newForm(
			formField{key: "email", label: "Email"},
			formField{key: "password", label: "Password", masked: true},
		),
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
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

func (m loginModel) submit() (loginModel, tea.Cmd) {
	creds := domain.Credentials{
		Email:    strings.TrimSpace(m.form.value("email")),
		Password: m.form.value("password"),
	}
	m.form.errors = nil
	m.status = ""
	m.submitting = true
	api := m.api
	return m, func() tea.Msg {
		resp, err := api.Login(context.Background(), creds)
		return loginResultMsg{resp: resp, err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("  " + titleStyle.Render("Login") + "\n\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString("  " + dimStyle.Render("signing in..."))
	case m.status != "":
		b.WriteString("  " + errorStyle.Render(m.status))
	default:
		b.WriteString("  " + metaStyle.Render("Don't have an account? ctrl+n to sign up"))
	}
	return b.String()
}

// authFailureView turns a failed login/signup into per-field errors or a status
// line. A 422 without field errors is shown against the email field.
func authFailureView(err error) (map[string][]string, string) {
	switch client.Classify(err) {
	case client.OutcomeValidation:
		verr, _ := client.AsValidation(err)
		if len(verr.Fields) > 0 {
			return verr.Fields, ""
		}
		return map[string][]string{"email": {verr.Message}}, ""
	case client.OutcomeAuth:
		return nil, ""
	default:
		return nil, "request failed: " + err.Error()
	}
}
