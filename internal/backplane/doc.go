// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

/*
Package backplane fans room chat messages out across server processes over
NATS.

Each process publishes the message-send events of its own clients to
"<prefix>.<room>" through a watermill-nats publisher guarded by a circuit
breaker, and subscribes to "<prefix>.>" without a queue group so that every
process receives every message and delivers it to its local room members.
Core NATS is used rather than JetStream: chat is ephemeral and a process
that was down has no clients to replay to.

Room names that are not valid subject tokens are base64url encoded; the room
travels in the payload, so the token is only used for routing.

For single-node deployments StartEmbeddedServer runs nats-server in process.
*/
package backplane
