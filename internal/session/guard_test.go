package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/naveenspark/webadmin/pkg/client"
	"github.com/naveenspark/webadmin/pkg/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAPI struct {
	me        *domain.User
	meErr     error
	meHook    func()
	logoutErr error
	logouts   int
}

func (f *fakeAPI) Me(context.Context) (*domain.User, error) {
	if f.meHook != nil {
		f.meHook()
	}
	return f.me, f.meErr
}

func (f *fakeAPI) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

type fakeEvents struct {
	handlers []func(client.AuthFailure)
}

func (e *fakeEvents) OnUnauthorized(fn func(client.AuthFailure)) func() {
	e.handlers = append(e.handlers, fn)
	i := len(e.handlers) - 1
	return func() { e.handlers[i] = nil }
}

func (e *fakeEvents) fire(ev client.AuthFailure) {
	for _, h := range e.handlers {
		if h != nil {
			h(ev)
		}
	}
}

func TestGuardHandleAuthFailure(t *testing.T) {
	s := NewStore(nil)
	s.Establish(domain.AuthResponse{User: alice, Token: "abc"})
	navs := 0
	g := NewGuard(s, nil, NavigatorFunc(func() { navs++ }), quietLogger())

	events := &fakeEvents{}
	detach := g.Attach(events)
	events.fire(client.AuthFailure{Method: "GET", Path: "/api/users"})

	if s.Authenticated() || !s.User().IsEmpty() {
		t.Errorf("session not cleared: %+v", s.Snapshot())
	}
	if navs != 1 {
		t.Errorf("navigations = %d, want 1", navs)
	}

	// A second failure on an already-empty session is a no-op for the store.
	changes := 0
	s.Subscribe(func(Change) { changes++ })
	events.fire(client.AuthFailure{})
	if changes != 0 {
		t.Errorf("store changed %d times on an empty session", changes)
	}

	detach()
	events.fire(client.AuthFailure{})
	if navs != 2 {
		t.Errorf("navigations after detach = %d, want 2", navs)
	}
}

func TestGuardNilNavigator(t *testing.T) {
	s := NewStore(nil)
	s.SetToken("abc")
	g := NewGuard(s, nil, nil, nil)
	g.HandleAuthFailure(client.AuthFailure{})
	if s.Authenticated() {
		t.Error("token not cleared")
	}
}

func TestGuardLogout(t *testing.T) {
	tests := []struct {
		name        string
		logoutErr   error
		wantErr     bool
		wantLogouts int
		signedIn    bool
	}{
		{"ok", nil, false, 1, true},
		{"server down", &client.TransportError{Op: "POST /api/logout", Err: errors.New("refused")}, true, 1, true},
		{"token already invalid", &client.HTTPError{StatusCode: 401}, false, 1, true},
		{"signed out", nil, false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			s := NewStore(nil)
			if tt.signedIn {
				s.Establish(domain.AuthResponse{User: alice, Token: "abc"})
			}
			n := NewNotifier(s, time.Second, WithScheduler(clock))
			n.Show("User created successfully")
			api := &fakeAPI{logoutErr: tt.logoutErr}

			err := NewGuard(s, n, nil, quietLogger()).Logout(context.Background(), api)
			if (err != nil) != tt.wantErr {
				t.Errorf("Logout() err = %v, wantErr %v", err, tt.wantErr)
			}
			if api.logouts != tt.wantLogouts {
				t.Errorf("server logouts = %d, want %d", api.logouts, tt.wantLogouts)
			}
			snap := s.Snapshot()
			if snap.Authenticated() || !snap.User.IsEmpty() || !snap.Notification.IsEmpty() {
				t.Errorf("snapshot after logout = %+v", snap)
			}
			if clock.active() != 0 {
				t.Error("notification timer still armed after logout")
			}
		})
	}
}

func TestBootstrap(t *testing.T) {
	s := NewStore(nil)
	s.SetToken("abc")

	var sawPending, sawAuthed bool
	api := &fakeAPI{me: &alice, meHook: func() {
		sawPending = s.Pending()
		sawAuthed = s.Authenticated()
	}}
	if err := Bootstrap(context.Background(), s, api); err != nil {
		t.Fatalf("Bootstrap() = %v", err)
	}
	if !sawPending || !sawAuthed {
		t.Errorf("during probe pending=%v authenticated=%v, want both true", sawPending, sawAuthed)
	}
	if s.Pending() {
		t.Error("still pending after Bootstrap")
	}
	if s.User() != alice {
		t.Errorf("User() = %+v, want alice", s.User())
	}
}

func TestBootstrapWithoutToken(t *testing.T) {
	s := NewStore(nil)
	api := &fakeAPI{meHook: func() { t.Error("Me called without a token") }}
	if err := Bootstrap(context.Background(), s, api); err != nil {
		t.Errorf("Bootstrap() = %v", err)
	}
}

func TestBootstrapTransportFailureKeepsToken(t *testing.T) {
	s := NewStore(nil)
	s.SetToken("abc")
	api := &fakeAPI{meErr: &client.TransportError{Op: "GET /api/user", Err: errors.New("refused")}}

	err := Bootstrap(context.Background(), s, api)
	if err == nil || client.Classify(err) != client.OutcomeTransport {
		t.Fatalf("Bootstrap() = %v, want transport error", err)
	}
	if s.Token() != "abc" || s.Pending() {
		t.Errorf("snapshot = %+v, want token kept and not pending", s.Snapshot())
	}
}

func TestBootstrapLogoutInFlight(t *testing.T) {
	s := NewStore(nil)
	s.SetToken("abc")
	api := &fakeAPI{me: &alice, meHook: func() { s.SetToken("") }}

	if err := Bootstrap(context.Background(), s, api); err != nil {
		t.Fatalf("Bootstrap() = %v", err)
	}
	if !s.User().IsEmpty() {
		t.Errorf("late profile resurrected user %+v", s.User())
	}
}
