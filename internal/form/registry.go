package form

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/capture"
)

// DefaultIdleTimeout is how long an untouched session stays registered.
const DefaultIdleTimeout = 30 * time.Minute

// Registry tracks open sessions by id. Sessions not looked up for the idle
// timeout, and sessions that closed themselves, are dropped on the next Open.
type Registry struct {
	deps Deps
	idle time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	s       *Session
	touched time.Time
}

// NewRegistry creates an empty registry whose sessions share deps.
func NewRegistry(deps Deps) *Registry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	idle := deps.Options.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Registry{deps: deps, idle: idle, sessions: make(map[string]*entry)}
}

// Open creates and initialises a session. browser may be nil.
func (r *Registry) Open(ctx context.Context, browser capture.SelectionReader) (*Session, error) {
	r.sweep()

	s := NewSession(uuid.NewString(), r.deps, browser)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID()] = &entry{s: s, touched: r.deps.Now()}
	r.mu.Unlock()
	return s, nil
}

// Get returns the session with id and marks it as in use.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	e.touched = r.deps.Now()
	return e.s, nil
}

// Close closes and forgets the session with id.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return apperr.ErrNotFound
	}
	e.s.Close()
	return nil
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sweep() {
	cutoff := r.deps.Now().Add(-r.idle)

	var expired []*Session
	r.mu.Lock()
	for id, e := range r.sessions {
		if e.touched.Before(cutoff) || e.s.View().Closed {
			delete(r.sessions, id)
			expired = append(expired, e.s)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 && r.deps.Logger != nil {
		r.deps.Logger.Debug("form: dropped idle sessions", slog.Int("count", len(expired)))
	}
}
