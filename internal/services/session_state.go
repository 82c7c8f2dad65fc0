package services

import (
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// SessionState holds short-lived per-session UI state, currently just the
// pending navigation target. Entries expire on their own so an abandoned
// session never leaks a stale redirect to its next request.
type SessionState struct {
	pending *gocache.Cache
}

// NewSessionState creates the session store. ttl bounds how long a pending
// navigation target survives before it is dropped.
func NewSessionState(ttl time.Duration) *SessionState {
	return &SessionState{
		pending: gocache.New(ttl, ttl*2),
	}
}

// SetPending records a navigation target for one session, replacing any
// previous one.
func (s *SessionState) SetPending(sessionID, target string) {
	if sessionID == "" || target == "" {
		return
	}
	s.pending.Set(sessionID, target, gocache.DefaultExpiration)
	log.Printf("🧭 [SESSION] Pending navigation for %s: %s", sessionID, target)
}

// PopPending returns and clears the session's pending navigation target.
// The second return is false when nothing is pending.
func (s *SessionState) PopPending(sessionID string) (string, bool) {
	if sessionID == "" {
		return "", false
	}
	value, found := s.pending.Get(sessionID)
	if !found {
		return "", false
	}
	s.pending.Delete(sessionID)
	target, ok := value.(string)
	return target, ok && target != ""
}
