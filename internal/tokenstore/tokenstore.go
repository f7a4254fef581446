// Package tokenstore keeps the bearer token in a durable single-value slot.
//
// Backends may fail (unwritable home dir, Redis down). A failing backend is
// dropped for the rest of the process and the token lives in memory instead;
// failures are logged, never returned.
package tokenstore

import (
	"fmt"
	"log/slog"
	"sync"
)

// Store holds at most one bearer token. Get returns "" when empty.
type Store interface {
	Get() string
	Set(token string)
	Clear()
}

// Backend is durable storage for one token.
type Backend interface {
	Load() (string, error)
	Save(token string) error
	Remove() error
	Name() string
}

// Persisted is a Store backed by a Backend with in-memory fallback.
type Persisted struct {
	mu       sync.Mutex
	backend  Backend
	cached   string
	degraded bool
	logger   *slog.Logger
}

// NewPersisted wraps b. A nil b gives a memory-only store.
func NewPersisted(b Backend, logger *slog.Logger) *Persisted {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persisted{backend: b, degraded: b == nil, logger: logger}
}

// NewMemory returns a process-only store.
func NewMemory() *Persisted {
	return NewPersisted(nil, nil)
}

// Get reads the token from the backend, or from memory once degraded.
func (p *Persisted) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.degraded {
		return p.cached
	}
	tok, err := p.backend.Load()
	if err != nil {
		p.degrade("load", err)
		return p.cached
	}
	p.cached = tok
	return tok
}

// Set stores token. An empty token is the same as Clear.
func (p *Persisted) Set(token string) {
	if token == "" {
		p.Clear()
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = token
	if p.degraded {
		return
	}
	if err := p.backend.Save(token); err != nil {
		p.degrade("save", err)
	}
}

// Clear empties the slot. Clearing an empty slot is a no-op.
func (p *Persisted) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = ""
	if p.degraded {
		return
	}
	if err := p.backend.Remove(); err != nil {
		p.degrade("remove", err)
	}
}

// Degraded reports whether a backend failed and the store fell back to
// memory. Memory-only stores are not degraded.
func (p *Persisted) Degraded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded && p.backend != nil
}

// Close releases backend resources, if any.
func (p *Persisted) Close() error {
	if c, ok := p.backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (p *Persisted) degrade(op string, err error) {
	p.degraded = true
	p.logger.Warn("token store unavailable, keeping token in memory",
		"backend", p.backend.Name(), "op", op, "error", err)
}

// Kinds accepted by Open.
const (
	KindFile   = "file"
	KindRedis  = "redis"
	KindMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Kind     string
	Path     string // file backend
	RedisURL string // redis backend
	Profile  string // redis key suffix
}

// Open builds the Store described by opts. Unknown kinds are an error; an
// unreachable backend is not.
func Open(opts Options, logger *slog.Logger) (*Persisted, error) {
	switch opts.Kind {
	case "", KindFile:
		return NewPersisted(NewFileBackend(opts.Path), logger), nil
	case KindRedis:
		b, err := NewRedisBackend(opts.RedisURL, opts.Profile)
		if err != nil {
			return nil, fmt.Errorf("tokenstore.Open: %w", err)
		}
		p := NewPersisted(b, logger)
		if err := b.Ping(); err != nil {
			p.mu.Lock()
			p.degrade("ping", err)
			p.mu.Unlock()
		}
		return p, nil
	case KindMemory:
		return NewPersisted(nil, logger), nil
	default:
		return nil, fmt.Errorf("tokenstore.Open: unknown kind %q", opts.Kind)
	}
}
