// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/coffeechat/internal/logging"
)

// SlowRequestThreshold is the duration above which requests log at warn.
var SlowRequestThreshold = time.Second

// RequestLogger writes one log line per request with method, path, status,
// size and duration. Health and metrics probes log at debug.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		logger := logging.Ctx(r.Context())

		event := logger.Info()
		switch {
		case rec.statusCode >= http.StatusInternalServerError:
			event = logger.Error()
		case duration > SlowRequestThreshold:
			event = logger.Warn().Bool("slow", true)
		case isProbe(r.URL.Path):
			event = logger.Debug()
		}

		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.statusCode).
			Int("bytes", rec.bytes).
			Dur("duration", duration).
			Str("remote_addr", r.RemoteAddr).
			Msg("http request")
	})
}

func isProbe(path string) bool {
	return path == "/metrics" || path == "/health/live" || path == "/health/ready"
}
