// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package logging provides the process-wide zerolog logger for coffeechat.
//
// A global logger is configured once from main and used through package
// functions:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("room", room).Msg("Client joined room")
//	logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to insert post")
//
// Ctx adds the request_id, correlation_id and user_id stored in the context
// by the HTTP middleware. NewSlogLogger adapts the logger to log/slog for
// the suture supervisor and the watermill backplane. SecurityLogger writes
// authentication events with masked identifiers.
//
// Always terminate an event chain with Msg or Send, otherwise nothing is
// written.
package logging
