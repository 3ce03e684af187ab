// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package auth

import "context"

type contextKey string

const (
	sessionContextKey contextKey = "auth_session"
	subjectContextKey contextKey = "auth_subject"
)

// Subject is the authenticated caller.
type Subject struct {
	// ID identifies the owner of posts and comments: the token subject,
	// or the email when no subject is known.
	ID       string
	Username string
	Email    string
}

// DisplayName returns the username, falling back to the email.
func (s *Subject) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return s.Email
}

// ContextWithSession stores s in ctx.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext returns nil outside SessionManager.Load.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey).(*Session)
	return s
}

// ContextWithSubject stores s in ctx.
func ContextWithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// SubjectFromContext returns nil outside RequireToken.
func SubjectFromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(subjectContextKey).(*Subject)
	return s
}
