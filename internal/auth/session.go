// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/coffeechat/internal/models"
)

var (
	// ErrSessionNotFound is returned when a session is not in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the session exists but expired.
	ErrSessionExpired = errors.New("session expired")
)

// User is the identity taken from an ID token.
type User struct {
	ID       string `json:"id" bson:"id"`
	Username string `json:"username" bson:"username"`
	Email    string `json:"email" bson:"email"`
}

// Session is the server-side state behind the session cookie.
type Session struct {
	ID string `json:"id" bson:"_id"`

	// Token is the bearer access token of the logged-in user.
	Token string `json:"token,omitempty" bson:"token,omitempty"`

	// User is set after a federated login from the ID token claims.
	User *User `json:"user,omitempty" bson:"user,omitempty"`

	// State is the pending anti-forgery value of a federated login.
	State string `json:"state,omitempty" bson:"state,omitempty"`

	Flash models.Flash `json:"flash" bson:"flash"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// NewSession returns an unsaved session with a fresh id.
func NewSession(ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        generateSessionID(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token != ""
}

// AddSuccess queues a success flash message.
func (s *Session) AddSuccess(msg string) {
	s.Flash.Success = append(s.Flash.Success, msg)
}

// AddError queues an error flash message.
func (s *Session) AddError(msg string) {
	s.Flash.Error = append(s.Flash.Error, msg)
}

// PopFlash returns and clears the pending flash messages. Both slices are
// non-nil so they encode as [].
func (s *Session) PopFlash() models.Flash {
	f := s.Flash
	if f.Success == nil {
		f.Success = []string{}
	}
	if f.Error == nil {
		f.Error = []string{}
	}
	s.Flash = models.Flash{}
	return f
}

// HasFlash reports whether messages are pending.
func (s *Session) HasFlash() bool {
	return len(s.Flash.Success) > 0 || len(s.Flash.Error) > 0
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	c.Flash = models.Flash{
		Success: append([]string(nil), s.Flash.Success...),
		Error:   append([]string(nil), s.Flash.Error...),
	}
	return &c
}

// generateSessionID returns 32 random bytes, hex encoded.
func generateSessionID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic("auth: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// SessionStore persists sessions.
type SessionStore interface {
	// Get returns ErrSessionNotFound or ErrSessionExpired when the session
	// cannot be used.
	Get(ctx context.Context, id string) (*Session, error)

	// Save creates or replaces the session.
	Save(ctx context.Context, session *Session) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// CleanupExpired removes expired sessions and returns how many.
	CleanupExpired(ctx context.Context) (int, error)
}

// MemorySessionStore keeps sessions in a map. Sessions are copied on the
// way in and out.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

// Get implements SessionStore.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return session.Clone(), nil
}

// Save implements SessionStore.
func (s *MemorySessionStore) Save(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

// Delete implements SessionStore.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// CleanupExpired implements SessionStore.
func (s *MemorySessionStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
