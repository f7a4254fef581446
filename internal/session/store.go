// Package session holds the process-wide client session: bearer token, current
// user and the transient notification. One Store is built at startup and passed
// to every consumer.
package session

import (
	"sync"

	"github.com/naveenspark/webadmin/internal/tokenstore"
	"github.com/naveenspark/webadmin/pkg/domain"
)

// Field identifies which part of the session a mutation touched.
type Field uint8

// Session fields.
const (
	FieldToken Field = 1 << iota
	FieldUser
	FieldNotification
	FieldPending
)

// Has reports whether f includes other.
func (f Field) Has(other Field) bool {
	return f&other != 0
}

// Snapshot is a consistent copy of the session.
type Snapshot struct {
	User         domain.User
	Token        string
	Notification domain.Notification
	Pending      bool
}

// Authenticated is the guard predicate: a token is present.
func (s Snapshot) Authenticated() bool {
	return s.Token != ""
}

// Change is delivered to subscribers after every mutation.
type Change struct {
	Fields   Field
	Snapshot Snapshot
}

// Store is the single source of truth for session state. Every setter is atomic
// with respect to subscribers: they only ever observe a whole mutation.
//
// Invariant: Token() == "" implies User() is domain.EmptyUser.
type Store struct {
	mu           sync.Mutex
	persisted    tokenstore.Store
	token        string
	user         domain.User
	notification domain.Notification
	pending      bool

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// NewStore returns a Store seeded from the persisted token slot.
func NewStore(persisted tokenstore.Store) *Store {
	if persisted == nil {
		persisted = tokenstore.NewMemory()
	}
	return &Store{
		persisted: persisted,
		token:     persisted.Get(),
		user:      domain.EmptyUser,
		subs:      make(map[int]func(Change)),
	}
}

// Token returns the current bearer token, "" when signed out.
// It satisfies client.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the current user, domain.EmptyUser when unknown or signed out.
func (s *Store) User() domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Notification returns the live notification, if any.
func (s *Store) Notification() domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notification
}

// Pending reports whether the startup "who am I" probe is still in flight.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Authenticated is evaluated on every call; a logout can land at any time.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Snapshot returns all fields under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		User:         s.user,
		Token:        s.token,
		Notification: s.notification,
		Pending:      s.pending,
	}
}

// SetToken writes through to the persisted slot. An empty token clears the
// slot and resets the user in the same step.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	if token == s.token && (token != "" || s.user.IsEmpty()) {
		s.mu.Unlock()
		return
	}
	fields := FieldToken
	if token == "" {
		s.persisted.Clear()
		if !s.user.IsEmpty() {
			fields |= FieldUser
		}
		s.user = domain.EmptyUser
	} else {
		s.persisted.Set(token)
	}
	s.token = token
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(Change{Fields: fields, Snapshot: snap})
}

// SetUser replaces the current user. It is ignored while signed out, so a late
// response cannot resurrect a user without a token. Returns whether it applied.
func (s *Store) SetUser(u domain.User) bool {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return false
	}
	s.user = u
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(Change{Fields: FieldUser, Snapshot: snap})
	return true
}

// Establish installs a login or signup result as one mutation.
func (s *Store) Establish(resp domain.AuthResponse) {
	if resp.Token == "" {
		s.SetToken("")
		return
	}
	s.mu.Lock()
	s.persisted.Set(resp.Token)
	s.token = resp.Token
	s.user = resp.User
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(Change{Fields: FieldToken | FieldUser, Snapshot: snap})
}

// SetNotification sets a message with no expiry; "" clears it. Use Notifier for
// auto-expiring messages.
func (s *Store) SetNotification(msg string) {
	s.setNotification(domain.Notification{Message: msg})
}

func (s *Store) setNotification(n domain.Notification) {
	s.mu.Lock()
	if n == s.notification {
		s.mu.Unlock()
		return
	}
	s.notification = n
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(Change{Fields: FieldNotification, Snapshot: snap})
}

func (s *Store) setPending(p bool) {
	s.mu.Lock()
	if s.pending == p {
		s.mu.Unlock()
		return
	}
	s.pending = p
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(Change{Fields: FieldPending, Snapshot: snap})
}

// Subscribe registers fn for every subsequent change. fn runs on the mutating
// goroutine and must not block or mutate the session synchronously.
// The returned func unsubscribes; calling it more than once is harmless.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(ch Change) {
	s.subMu.Lock()
	last := s.nextSub
	s.subMu.Unlock()

	for id := 0; id < last; id++ {
		s.subMu.Lock()
		fn, ok := s.subs[id]
		s.subMu.Unlock()
		if ok {
			fn(ch)
		}
	}
}
