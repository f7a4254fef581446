package session

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manual Scheduler.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves the clock and runs due timers in deadline order, outside the lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func TestNotifierLastWriteWins(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(nil)
	n := NewNotifier(s, 5*time.Second, WithScheduler(clock))

	n.Show("A")
	clock.Advance(2 * time.Second)
	n.Show("B")

	if got := s.Notification().Message; got != "B" {
		t.Fatalf("message = %q, want B", got)
	}
	if clock.active() != 1 {
		t.Errorf("active timers = %d, want 1", clock.active())
	}

	// A's original deadline passes: B stays.
	clock.Advance(3 * time.Second)
	if got := s.Notification().Message; got != "B" {
		t.Errorf("message at A's deadline = %q, want B", got)
	}

	// Exactly one TTL after the second call: cleared.
	clock.Advance(2*time.Second - time.Millisecond)
	if s.Notification().IsEmpty() {
		t.Fatal("cleared before a full TTL")
	}
	clock.Advance(time.Millisecond)
	if !s.Notification().IsEmpty() {
		t.Errorf("notification = %+v, want empty", s.Notification())
	}
}

func TestNotifierExpiry(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(nil)
	n := NewNotifier(s, 0, WithScheduler(clock))
	if n.TTL() != DefaultNotificationTTL {
		t.Errorf("TTL() = %v, want default", n.TTL())
	}

	n.Show("User deleted successfully")
	want := clock.Now().Add(DefaultNotificationTTL)
	if got := s.Notification().Expiry; !got.Equal(want) {
		t.Errorf("Expiry = %v, want %v", got, want)
	}
	clock.Advance(DefaultNotificationTTL)
	if !s.Notification().IsEmpty() {
		t.Error("notification not cleared after TTL")
	}
}

func TestNotifierClear(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(nil)
	n := NewNotifier(s, time.Second, WithScheduler(clock))

	n.Show("A")
	n.Clear()
	if !s.Notification().IsEmpty() {
		t.Error("Clear left a message")
	}
	if clock.active() != 0 {
		t.Errorf("active timers after Clear = %d", clock.active())
	}

	n.ShowFor("B", 10*time.Second)
	clock.Advance(time.Second)
	if s.Notification().Message != "B" {
		t.Error("ShowFor used the default TTL")
	}
}

func TestNotifierStaleTimerIsNoop(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(nil)
	n := NewNotifier(s, time.Second, WithScheduler(clock))

	n.Show("A")
	stale := clock.timers[0]
	n.Show("B")
	// A timer that fired concurrently with the second Show must not clear B.
	stale.f()
	if s.Notification().Message != "B" {
		t.Errorf("stale expiry cleared the newer message")
	}
}

func TestNotifierWallClock(t *testing.T) {
	s := NewStore(nil)
	n := NewNotifier(s, 20*time.Millisecond)
	done := make(chan struct{})
	s.Subscribe(func(ch Change) {
		if ch.Fields.Has(FieldNotification) && ch.Snapshot.Notification.IsEmpty() {
			close(done)
		}
	})
	n.Show("hi")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never expired")
	}
}
