// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/metrics"
	"github.com/tomtom215/coffeechat/internal/models"
)

// LoginPath is where unauthenticated browser requests are sent.
const LoginPath = "/auth/login"

// Flash messages set by RequireToken.
const (
	MsgLoginRequired  = "Please log in to view that resource"
	MsgSessionExpired = "Session expired, please log in again"
)

// SessionManagerConfig configures the session cookie.
type SessionManagerConfig struct {
	CookieName string
	Secret     []byte
	TTL        time.Duration
	Secure     bool
}

// SessionManager loads and saves sessions through a signed cookie.
type SessionManager struct {
	store    SessionStore
	config   SessionManagerConfig
	security *logging.SecurityLogger
}

// NewSessionManager creates a manager over store.
func NewSessionManager(store SessionStore, cfg SessionManagerConfig) *SessionManager {
	if cfg.CookieName == "" {
		cfg.CookieName = "coffeechat.sid"
	}
	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}
	return &SessionManager{store: store, config: cfg, security: logging.NewSecurityLogger()}
}

// New returns an unsaved session with the configured lifetime.
func (m *SessionManager) New() *Session {
	return NewSession(m.config.TTL)
}

// Store returns the backing store.
func (m *SessionManager) Store() SessionStore {
	return m.store
}

// Load attaches the request's session to the context, or a new unsaved
// session when there is none.
func (m *SessionManager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := m.lookup(r)
		if session == nil {
			session = m.New()
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
	})
}

func (m *SessionManager) lookup(r *http.Request) *Session {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	id, ok := VerifyCookieValue(cookie.Value, m.config.Secret)
	if !ok {
		logging.Ctx(r.Context()).Debug().Msg("Session cookie signature mismatch")
		return nil
	}
	session, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Session lookup error")
		}
		return nil
	}
	return session
}

// Save persists the session, extends its expiry and sets the cookie.
func (m *SessionManager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	s.ExpiresAt = time.Now().UTC().Add(m.config.TTL)
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    SignCookieValue(s.ID, m.config.Secret),
		Path:     "/",
		MaxAge:   int(m.config.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Regenerate gives the session a new id, removing the old one from the
// store. Called when the privilege level changes, e.g. at login.
func (m *SessionManager) Regenerate(ctx context.Context, s *Session) error {
	old := s.ID
	s.ID = generateSessionID()
	if err := m.store.Delete(ctx, old); err != nil {
		return fmt.Errorf("delete old session: %w", err)
	}
	return nil
}

// Destroy deletes the session and expires the cookie.
func (m *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// SaveOrLog saves the session and logs a failure. Used on redirect paths
// where nothing better can be done.
func (m *SessionManager) SaveOrLog(r *http.Request, w http.ResponseWriter, s *Session) {
	if err := m.Save(r.Context(), w, s); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to save session")
	}
}

// RequireToken lets the request through only with a session token that
// verifies. Browser requests are redirected to the login page with a flash
// message; JSON and WebSocket clients get 401.
func (m *SessionManager) RequireToken(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil || !session.Authenticated() {
				m.unauthorized(w, r, session, MsgLoginRequired)
				return
			}

			claims, err := verifier.Verify(r.Context(), session.Token)
			if err != nil {
				m.security.Log(logging.EventTokenRejected, "", r.RemoteAddr, err.Error())
				metrics.AuthEvents.WithLabelValues(string(logging.EventTokenRejected)).Inc()
				session.Token = ""
				m.unauthorized(w, r, session, MsgSessionExpired)
				return
			}

			subject := claims.Identity()
			if u := session.User; u != nil {
				if subject.Email == "" {
					subject.Email = u.Email
				}
				if subject.Username == "" {
					subject.Username = u.Username
				}
			}

			ctx := ContextWithSubject(r.Context(), subject)
			ctx = logging.ContextWithUserID(ctx, subject.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *SessionManager) unauthorized(w http.ResponseWriter, r *http.Request, session *Session, msg string) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
		return
	}
	if session != nil {
		session.AddError(msg)
		m.SaveOrLog(r, w, session)
	}
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

// wantsJSON reports whether the client is not a page navigation.
func wantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return true
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
