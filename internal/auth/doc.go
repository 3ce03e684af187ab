// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package auth holds server-side sessions and bearer token verification.
//
// # Sessions
//
// A Session is stored server-side and addressed by a signed cookie whose
// value is "id.signature", the signature being HMAC-SHA256 of the id under
// the session secret. A cookie with a bad signature is treated as absent.
// Three SessionStore backends exist:
//
//   - MongoSessionStore: a collection with a TTL index (default)
//   - BadgerSessionStore: local disk, entries expire through Badger TTLs
//   - MemorySessionStore: tests and single-process development
//
// SessionManager.Load attaches the session to the request context, creating
// an unsaved one when the cookie is missing. Handlers that change the
// session call SessionManager.Save before writing the response.
//
// # Tokens
//
// TokenVerifier checks RS256 tokens issued by the user pool against its
// JWKS, cached by JWKSCache. RequireToken guards the post and comment
// routes and puts the caller's Subject in the context.
package auth
