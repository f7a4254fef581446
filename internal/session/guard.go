package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/naveenspark/webadmin/pkg/client"
	"github.com/naveenspark/webadmin/pkg/domain"
)

// Navigator moves the UI to the login boundary.
type Navigator interface {
	ToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

// ToLogin calls f.
func (f NavigatorFunc) ToLogin() { f() }

// AuthEvents is the part of client.Client the Guard listens to.
type AuthEvents interface {
	OnUnauthorized(fn func(client.AuthFailure)) (unsubscribe func())
}

// API is the part of client.Client the session lifecycle calls.
type API interface {
	Me(ctx context.Context) (*domain.User, error)
	Logout(ctx context.Context) error
}

// Guard ends the session on authorization failures and on explicit logout.
type Guard struct {
	store    *Store
	notifier *Notifier
	logger   *slog.Logger

	mu  sync.Mutex
	nav Navigator
}

// NewGuard builds a Guard. nav may be nil when there is no UI to redirect.
func NewGuard(store *Store, notifier *Notifier, nav Navigator, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{store: store, notifier: notifier, nav: nav, logger: logger}
}

// SetNavigator swaps the navigation target, e.g. once the UI is running.
func (g *Guard) SetNavigator(nav Navigator) {
	g.mu.Lock()
	g.nav = nav
	g.mu.Unlock()
}

// Attach subscribes g to the client's authorization-failure events.
func (g *Guard) Attach(events AuthEvents) (detach func()) {
	return events.OnUnauthorized(g.HandleAuthFailure)
}

// HandleAuthFailure clears the session and navigates to login once per event.
// Clearing an already-empty session is a no-op.
func (g *Guard) HandleAuthFailure(ev client.AuthFailure) {
	g.logger.Info("session ended by server", "method", ev.Method, "path", ev.Path, "request_id", ev.RequestID)
	g.store.SetToken("")
	g.mu.Lock()
	nav := g.nav
	g.mu.Unlock()
	if nav != nil {
		nav.ToLogin()
	}
}

// Logout invalidates the token server-side, then clears the local session even
// if the server call failed. The server error, if any, is returned.
func (g *Guard) Logout(ctx context.Context, api API) error {
	var err error
	if g.store.Authenticated() {
		err = api.Logout(ctx)
		if err != nil && client.Classify(err) != client.OutcomeAuth {
			g.logger.Warn("server logout failed", "error", err)
		}
	}
	if g.notifier != nil {
		g.notifier.Clear()
	}
	g.store.SetToken("")
	if err != nil && client.Classify(err) == client.OutcomeAuth {
		return nil
	}
	return err
}

// Bootstrap hydrates the user from the "who am I" endpoint when a token is
// present. While it runs the session reports Pending and stays authenticated.
// A 401 is handled by the Guard; other failures keep the token.
func Bootstrap(ctx context.Context, store *Store, api API) error {
	token := store.Token()
	if token == "" {
		return nil
	}
	store.setPending(true)
	defer store.setPending(false)

	u, err := api.Me(ctx)
	if err != nil {
		return fmt.Errorf("session.Bootstrap: %w", err)
	}
	if store.Token() == token {
		store.SetUser(*u)
	}
	return nil
}
