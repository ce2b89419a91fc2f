// Package auth checks users against a static credential table and issues
// explicit, expiring sessions.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound is returned for tokens that were never issued or were logged out.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned for tokens past their lifetime.
	ErrSessionExpired = errors.New("session expired")
)

// Service authenticates users and tracks their sessions.
type Service struct {
	users    map[string]string
	ttl      time.Duration
	sessions *SessionManager
	logger   *zap.Logger
	now      func() time.Time
	newToken func() string
}

// NewService builds an auth service over users (name -> plain or bcrypt password).
func NewService(users map[string]string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	table := make(map[string]string, len(users))
	for name, password := range users {
		table[name] = password
	}
	return &Service{
		users:    table,
		ttl:      ttl,
		sessions: NewSessionManager(),
		logger:   logger,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// Login checks the credentials and opens a session.
func (s *Service) Login(username, password string) (models.Session, error) {
	username = strings.TrimSpace(username)
	stored, ok := s.users[username]
	if !ok || !passwordMatches(stored, password) {
		s.logger.Warn("login rejected", zap.String("user", username))
		return models.Session{}, ErrInvalidCredentials
	}

	now := s.now()
	s.sessions.Sweep(now)

	session := models.Session{
		Token:     s.newToken(),
		User:      username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.sessions.PutSession(session)
	s.logger.Info("user logged in", zap.String("user", username))
	return session, nil
}

// Resolve returns the live session for token.
func (s *Service) Resolve(token string) (models.Session, error) {
	session, ok := s.sessions.GetSession(token)
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		s.sessions.ClearSession(token)
		return models.Session{}, ErrSessionExpired
	}
	return session, nil
}

// Logout discards the session. Unknown tokens are ignored.
func (s *Service) Logout(token string) {
	if session, ok := s.sessions.GetSession(token); ok {
		s.logger.Info("user logged out", zap.String("user", session.User))
	}
	s.sessions.ClearSession(token)
}

func passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
