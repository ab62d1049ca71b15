// Package session tracks the single active session each user identity is
// allowed. The store's connected flag is the source of truth; the
// in-memory registry mirrors it for the server console and push routing.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/biteme/order-platform/pkg/model"
)

const logPrefix = "session:registry"

// Login failure outcomes.
var (
	ErrAlreadyConnected   = errors.New("session: user is already logged in")
	ErrInvalidCredentials = errors.New("session: invalid credentials")
	ErrNotFound           = errors.New("session: user not found")
	ErrNotConnected       = errors.New("session: user is not logged in")
)

// Session is an authenticated, currently connected identity.
type Session struct {
	Identity      string
	Role          model.Role
	NetworkAddr   string
	HostName      string
	ClientSubject string
	LoginTime     time.Time
}

// Store is the persistence contract the registry needs. SetConnected must
// be a conditional update: it returns true only when the flag actually
// flipped, which is what makes two racing logins resolve to one winner.
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetConnected(ctx context.Context, id string, connected bool) (bool, error)
	ClearConnected(ctx context.Context) error
}

// Registry enforces at most one session per identity.
type Registry struct {
	store Store

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry over the given store.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store, sessions: make(map[string]*Session)}
}

// Reconcile clears every connected flag in the store. Run at server start
// so sessions left dangling by an unclean shutdown do not lock their
// identities out.
func (r *Registry) Reconcile(ctx context.Context) error {
	if err := r.store.ClearConnected(ctx); err != nil {
		return fmt.Errorf("%s - failed to clear connected flags: %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Cleared stale connected flags", logPrefix))
	return nil
}

// Login authenticates the identity and claims its connected flag. Fails
// with ErrNotFound, ErrInvalidCredentials, or ErrAlreadyConnected.
func (r *Registry) Login(ctx context.Context, identity, password, addr, host, clientSubject string) (*Session, error) {
	user, err := r.store.GetUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%s - lookup for %s failed: %w", logPrefix, identity, err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.Password != password {
		return nil, ErrInvalidCredentials
	}

	flipped, err := r.store.SetConnected(ctx, identity, true)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to mark %s connected: %w", logPrefix, identity, err)
	}
	if !flipped {
		return nil, ErrAlreadyConnected
	}

	sess := &Session{
		Identity:      identity,
		Role:          user.Role,
		NetworkAddr:   addr,
		HostName:      host,
		ClientSubject: clientSubject,
		LoginTime:     time.Now().UTC(),
	}

	r.mu.Lock()
	r.sessions[identity] = sess
	r.mu.Unlock()

	slog.Info(fmt.Sprintf("%s - %s logged in from %s", logPrefix, identity, host))
	return sess, nil
}

// Logout releases the identity's connected flag and drops its session.
func (r *Registry) Logout(ctx context.Context, identity string) error {
	flipped, err := r.store.SetConnected(ctx, identity, false)
	if err != nil {
		return fmt.Errorf("%s - failed to mark %s disconnected: %w", logPrefix, identity, err)
	}

	r.mu.Lock()
	delete(r.sessions, identity)
	r.mu.Unlock()

	if !flipped {
		return ErrNotConnected
	}
	slog.Info(fmt.Sprintf("%s - %s logged out", logPrefix, identity))
	return nil
}

// Get returns the active session for the identity, or nil.
func (r *Registry) Get(identity string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[identity]
}

// Sessions returns a snapshot of all active sessions.
func (r *Registry) Sessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}
