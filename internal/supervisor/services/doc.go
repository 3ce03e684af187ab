// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

/*
Package services adapts components with other lifecycles to suture's
Serve(ctx) error pattern.

# Available Services

HTTP Server (HTTPServerService):
  - Runs ListenAndServe in a goroutine
  - Shuts down with a drain timeout when the context ends
  - Treats http.ErrServerClosed as a clean stop

WebSocket Hub (WebSocketHubService):
  - Delegates to Hub.RunWithContext
  - The hub closes all chat connections on shutdown

Embedded NATS (EmbeddedNATSService):
  - Owns an in-process nats-server started before the tree
  - Shuts it down when the tree stops

Components that already implement suture.Service (the backplane, the
queue consumer, session cleanup) are added to the tree directly.
*/
package services
