package tui

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/webadmin/internal/session"
	"github.com/naveenspark/webadmin/pkg/domain"
)

// fakeAPI records calls and returns canned results.
type fakeAPI struct {
	loginResp  *domain.AuthResponse
	loginErr   error
	signupResp *domain.AuthResponse
	signupErr  error
	me         *domain.User
	page       *domain.UserPage
	listErr    error
	user       *domain.User
	getErr     error
	createErr  error
	updateErr  error
	deleteErr  error
	logoutErr  error

	logins  []domain.Credentials
	signups []domain.UserPayload
	listed  []int
	created []domain.UserPayload
	updated []domain.UserPayload
	deleted []int64
	logouts int
}

func (f *fakeAPI) Login(_ context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	f.logins = append(f.logins, creds)
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Signup(_ context.Context, p domain.UserPayload) (*domain.AuthResponse, error) {
	f.signups = append(f.signups, p)
	return f.signupResp, f.signupErr
}

func (f *fakeAPI) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

func (f *fakeAPI) Me(context.Context) (*domain.User, error) {
	if f.me == nil {
		return &domain.User{}, nil
	}
	return f.me, nil
}

func (f *fakeAPI) ListUsers(_ context.Context, page int) (*domain.UserPage, error) {
	f.listed = append(f.listed, page)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.page == nil {
		return &domain.UserPage{Data: []domain.User{}}, nil
	}
	return f.page, nil
}

func (f *fakeAPI) GetUser(context.Context, int64) (*domain.User, error) {
	return f.user, f.getErr
}

func (f *fakeAPI) CreateUser(_ context.Context, p domain.UserPayload) (*domain.User, error) {
	f.created = append(f.created, p)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.User{ID: 99, Name: p.Name, Email: p.Email}, nil
}

func (f *fakeAPI) UpdateUser(_ context.Context, id int64, p domain.UserPayload) (*domain.User, error) {
	f.updated = append(f.updated, p)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &domain.User{ID: id, Name: p.Name, Email: p.Email}, nil
}

func (f *fakeAPI) DeleteUser(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

var (
	alice = domain.User{ID: 1, Name: "Alice", Email: "alice@example.com", CreatedAt: "2024-01-02 10:00:00"}
	bob   = domain.User{ID: 2, Name: "Bob", Email: "bob@example.com", CreatedAt: "2024-01-03 11:00:00"}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession() (*session.Store, *session.Notifier) {
	store := session.NewStore(nil)
	return store, session.NewNotifier(store, time.Hour)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// typeInto feeds text to a form one rune at a time.
func typeInto(f formModel, text string) formModel {
	for _, r := range text {
		f, _ = f.update(key(string(r)))
	}
	return f
}

// fill sets form values directly by key.
func fill(f formModel, values map[string]string) formModel {
	for k, v := range values {
		f.set(k, v)
	}
	return f
}

// run executes cmd and fails if it is nil.
func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	return cmd()
}
