package tracker

import (
	"sync"
	"time"
)

// ManualSession is the in-memory state between a start and a stop. It is
// never persisted; sessions in progress at process restart are lost.
type ManualSession struct {
	GameName  string
	Platform  string
	StartedAt time.Time
}

// SessionRegistry holds at most one running manual session per user.
// Every transition is atomic with respect to concurrent calls for the
// same user, so two concurrent starts cannot both observe an idle state.
// The lock is never held across a store call: stop removes the entry,
// persists outside the lock, and restores the entry on failure.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]ManualSession
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]ManualSession)}
}

// Begin transitions a user from idle to running. It reports false if the
// user already has a running session, which is left untouched.
func (r *SessionRegistry) Begin(userID string, s ManualSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, running := r.sessions[userID]; running {
		return false
	}
	r.sessions[userID] = s
	return true
}

// End removes and returns the user's running session, if any
func (r *SessionRegistry) End(userID string) (ManualSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if ok {
		delete(r.sessions, userID)
	}
	return s, ok
}

// Restore puts a session back after a failed persist, keeping its original
// start time so the user can retry stop without losing elapsed time. It
// reports false if the user started a new session in the meantime.
func (r *SessionRegistry) Restore(userID string, s ManualSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, running := r.sessions[userID]; running {
		return false
	}
	r.sessions[userID] = s
	return true
}

// Get returns the user's running session without removing it
func (r *SessionRegistry) Get(userID string) (ManualSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Active returns the number of running manual sessions
func (r *SessionRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
