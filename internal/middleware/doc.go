// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

/*
Package middleware provides HTTP middleware shared by every route.

All middleware has the chi signature func(http.Handler) http.Handler:

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation ids
  - PrometheusMetrics: request count, duration and in-flight gauge, labelled
    by the chi route pattern so that ids in paths do not explode cardinality
  - RequestLogger: one structured log line per request; slow requests are
    logged at warn level

Recommended order:

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.PrometheusMetrics)

The response writer wrapper keeps http.Hijacker and http.Flusher so the
WebSocket upgrade works through every layer.
*/
package middleware
