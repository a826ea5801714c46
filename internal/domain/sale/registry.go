package sale

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("sale session not found")
	// ErrCheckoutInProgress is returned when closing a session whose
	// checkout has not returned yet.
	ErrCheckoutInProgress = errors.New("checkout in progress")
)

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Registry keeps the open sessions of all terminals and expires idle ones.
type Registry struct {
	deps Deps
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates a Registry whose sessions expire after ttl without
// activity. A zero ttl disables expiry.
func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	return &Registry{
		deps:     deps,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Open starts a new session.
func (r *Registry) Open(ctx context.Context) *Session {
	s := NewSession(ctx, uuid.NewString(), r.deps)

	r.mu.Lock()
	r.sessions[s.ID()] = &entry{session: s, lastSeen: r.now()}
	r.mu.Unlock()

	zctx.From(ctx).Debug("Sale session opened", zap.String("session_id", s.ID()))
	return s
}

// Get returns the session id and marks it as active.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = r.now()
	return e.session, nil
}

// Close forgets the session id. The session's cart is discarded.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if e.session.checkingOut() {
		return errors.Wrap(ErrCheckoutInProgress, id)
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many were
// removed. Sessions with a checkout in flight are kept.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, e := range r.sessions {
		if e.lastSeen.After(cutoff) || e.session.checkingOut() {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	lg := zctx.From(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				lg.Info("Expired idle sale sessions",
					zap.Int("removed", n),
					zap.Int("open", r.Len()),
				)
			}
		}
	}
}
