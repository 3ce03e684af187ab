// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// AuthEvent names an authentication event in the security log.
type AuthEvent string

// Authentication events.
const (
	EventLoginSuccess    AuthEvent = "login_success"
	EventLoginFailure    AuthEvent = "login_failure"
	EventLogout          AuthEvent = "logout"
	EventSignUp          AuthEvent = "sign_up"
	EventConfirm         AuthEvent = "confirm_sign_up"
	EventPasswordReset   AuthEvent = "password_reset"
	EventStateMismatch   AuthEvent = "federated_state_mismatch"
	EventTokenRejected   AuthEvent = "token_rejected"
	EventForbiddenAction AuthEvent = "forbidden_action"
)

// SecurityLogger writes authentication events with a fixed shape and
// masked identifiers.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger returns a SecurityLogger over the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: With().Str("log_type", "security").Logger()}
}

// NewSecurityLoggerWithLogger is used by tests to capture output.
//
//nolint:gocritic // zerolog.Logger is a value type
func NewSecurityLoggerWithLogger(l zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: l.With().Str("log_type", "security").Logger()}
}

// Log records an event for a user. A non-empty reason marks a failure and
// is logged at warn level.
func (l *SecurityLogger) Log(event AuthEvent, user, ip, reason string) {
	e := l.logger.Info()
	if reason != "" {
		e = l.logger.Warn().Str("reason", SanitizeError(reason))
	}
	e = e.Str("event", string(event))
	if user != "" {
		if strings.Contains(user, "@") {
			e = e.Str("user", SanitizeEmail(user))
		} else {
			e = e.Str("user", SanitizeUserID(user))
		}
	}
	if ip != "" {
		e = e.Str("ip", ip)
	}
	e.Msg("auth event")
}

// SanitizeToken keeps the first and last four characters of a token.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUserID keeps the first and last four characters of an ID.
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeEmail masks the local part of an address: "john.doe@x.com" -> "jo***@x.com".
func SanitizeEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

// SanitizeError hides messages that may carry credentials and truncates
// the rest to 200 bytes.
func SanitizeError(msg string) string {
	lower := strings.ToLower(msg)
	for _, p := range []string{"secret", "token", "bearer", "authorization", "cookie"} {
		if strings.Contains(lower, p) {
			return "authentication error"
		}
	}
	if len(msg) > 200 {
		return msg[:200] + "..."
	}
	return msg
}
