// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

/*
Package api provides the HTTP layer of coffeechat.

Pages are JSON payloads (models.Page) carrying the page name, its data and
the session's one-shot flash messages. Form posts answer with redirects,
deletes with JSON.

Route groups:

 1. Operations: /health/live, /health/ready (pings the document store),
    /metrics (Prometheus).

 2. Authentication (/auth/): login, registration, confirmation, password
    reset, and the hosted UI flow (/auth/google, /auth/callback). The
    callback exchanges a code only when the state query matches the state
    stored in the session.

 3. Posts (/posts/): list, detail, write, edit, delete. Creating a post
    uploads the image through a pre-signed PUT, inserts the document,
    mirrors it into the key-value table and announces it on the queue.
    The document store is the source of truth; a failed key-value write
    is counted in coffeechat_dual_write_failures_total.

 4. Comments (/comment/): add, edit, delete. Only the writer (or a
    moderator) can change a comment; others get 404.

 5. Records (/records): read-only views of the key-value table.

 6. Chat (/chat/ws): the WebSocket upgrade into the room hub.

Everything except groups 1 and 2 requires a session whose access token
verifies against the user pool keys.

Usage Example:

	handler := api.NewHandler(api.Dependencies{
	    Config:     cfg,
	    Docs:       docs,
	    Records:    records,
	    Images:     images,
	    Identity:   idp,
	    Sessions:   sessions,
	    Verifier:   verifier,
	    Authorizer: authorizer,
	    Hub:        hub,
	})
	router := api.NewRouter(handler)
	http.ListenAndServe(":3000", router.SetupChi())
*/
package api
