package auth

import (
	"sync"
	"time"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

// SessionManager holds live sessions keyed by token.
type SessionManager struct {
	sessions map[string]models.Session
	mu       sync.RWMutex
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]models.Session),
	}
}

// GetSession retrieves a session by token.
func (sm *SessionManager) GetSession(token string) (models.Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, exists := sm.sessions[token]
	return session, exists
}

// PutSession stores or replaces a session.
func (sm *SessionManager) PutSession(session models.Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[session.Token] = session
}

// ClearSession removes a session.
func (sm *SessionManager) ClearSession(token string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, token)
}

// Sweep drops every session expired at now and returns how many were removed.
func (sm *SessionManager) Sweep(now time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	removed := 0
	for token, session := range sm.sessions {
		if session.Expired(now) {
			delete(sm.sessions, token)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
