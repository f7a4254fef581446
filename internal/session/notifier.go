package session

import (
	"sync"
	"time"

	"github.com/naveenspark/webadmin/pkg/domain"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 5 * time.Second

// Timer is a cancellable scheduled task.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
func (wallClock) Now() time.Time { return time.Now() }

// Notifier is a single-slot, auto-expiring message channel on top of Store.
// The scheduled expiry handle is kept next to the message: every Show cancels
// the previous handle before arming a new one, so the last write wins.
type Notifier struct {
	store *Store
	sched Scheduler
	ttl   time.Duration

	mu     sync.Mutex
	handle Timer
	gen    uint64
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) NotifierOption {
	return func(n *Notifier) { n.sched = s }
}

// NewNotifier returns a Notifier writing to store. ttl <= 0 uses DefaultNotificationTTL.
func NewNotifier(store *Store, ttl time.Duration, opts ...NotifierOption) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	n := &Notifier{store: store, sched: wallClock{}, ttl: ttl}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// TTL returns the default display duration.
func (n *Notifier) TTL() time.Duration {
	return n.ttl
}

// Show displays msg for the default TTL.
func (n *Notifier) Show(msg string) {
	n.ShowFor(msg, n.ttl)
}

// ShowFor displays msg for ttl, superseding any pending message.
func (n *Notifier) ShowFor(msg string, ttl time.Duration) {
	if msg == "" {
		n.Clear()
		return
	}
	if ttl <= 0 {
		ttl = n.ttl
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelLocked()
	gen := n.gen
	n.handle = n.sched.AfterFunc(ttl, func() { n.expire(gen) })
	n.store.setNotification(domain.Notification{Message: msg, Expiry: n.sched.Now().Add(ttl)})
}

// Clear cancels the pending expiry and empties the slot now.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelLocked()
	n.store.setNotification(domain.Notification{})
}

// cancelLocked stops the current handle and invalidates its generation, so a
// timer that already fired but has not yet taken the lock becomes a no-op.
func (n *Notifier) cancelLocked() {
	if n.handle != nil {
		n.handle.Stop()
		n.handle = nil
	}
	n.gen++
}

func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if gen != n.gen {
		return
	}
	n.handle = nil
	n.store.setNotification(domain.Notification{})
}
