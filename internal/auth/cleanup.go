// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package auth

import (
	"context"
	"time"

	"github.com/tomtom215/coffeechat/internal/logging"
)

// SessionCleanup periodically removes expired sessions. It implements
// suture.Service.
type SessionCleanup struct {
	store    SessionStore
	interval time.Duration
}

// NewSessionCleanup creates the service. interval defaults to 10 minutes.
func NewSessionCleanup(store SessionStore, interval time.Duration) *SessionCleanup {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &SessionCleanup{store: store, interval: interval}
}

// Serve runs until ctx is canceled.
func (c *SessionCleanup) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := c.store.CleanupExpired(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("Session cleanup failed")
				continue
			}
			if n > 0 {
				logging.Debug().Int("removed", n).Msg("Expired sessions removed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (c *SessionCleanup) String() string {
	return "session-cleanup"
}
