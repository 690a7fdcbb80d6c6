package session

import (
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

// Factory builds a fresh, unloaded session.
type Factory func() (*Session, error)

// Registry keeps one session per identity so concurrent requests from the
// same user share stores.
type Registry struct {
	factory Factory

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(factory Factory) (*Registry, error) {
	if factory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session factory required")
	}
	return &Registry{factory: factory, sessions: make(map[string]*Session)}, nil
}

// Get returns the session for userID, creating it on first use.
func (r *Registry) Get(userID string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotAuthenticated, "sign in to continue")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[userID]; ok {
		return sess, nil
	}
	sess, err := r.factory()
	if err != nil {
		return nil, err
	}
	r.sessions[userID] = sess
	return sess, nil
}

// Lookup returns the session for userID without creating one.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[strings.TrimSpace(userID)]
	return sess, ok
}

// Remove signs the user out and releases their stores.
func (r *Registry) Remove(userID string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[strings.TrimSpace(userID)]
	delete(r.sessions, strings.TrimSpace(userID))
	r.mu.Unlock()
	if !ok {
		return false
	}
	sess.SignOut()
	sess.Close()
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close releases every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
}
