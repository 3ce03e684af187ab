// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

/*
Package websocket provides the real-time room channel.

A Hub owns every live connection and the rooms each connection has joined.
A Client wraps one gorilla/websocket connection with a read pump and a
write pump:

	┌──────────────┐   ask-join / message-send / ping
	│   Client     │ ─────────────────────────────────┐
	│ read | write │ <───── newMessage / newPost ──┐  │
	└──────────────┘                               │  v
	                                            ┌──────────┐    ┌───────────┐
	                                            │   Hub    │ <->│  Relay    │
	                                            └──────────┘    │ (NATS)    │
	                                                            └───────────┘

Frames are JSON objects {"type": ..., "data": ...}.

Client to server:

  - ask-join: data is the room name. Rooms need no creation.
  - message-send: data is {room, text, sender}; "msg" is accepted for text.
    An empty sender becomes the session username, then "Anonymous".
  - ping: answered with pong.

Server to client:

  - newMessage: {room, text, sender, timestamp} to every member of room.
  - newPost: a post notification relayed from the queue, to everyone.
  - pong.

Malformed frames are counted and dropped. A client whose send buffer is
full is removed at the broadcast that finds it full.

When a Relay is installed with SetRelay, message-send is published to it
instead of being delivered locally; the relay's subscriber calls
DeliverRoom on every process. If publishing fails the hub delivers
locally.

Usage:

	hub := websocket.NewHub()
	tree.AddMessagingService(services.NewWebSocketHubService(hub))

	conn, _ := upgrader.Upgrade(w, r, nil)
	client := websocket.NewClient(hub, conn, subject.DisplayName())
	hub.Register <- client
	client.Start()
*/
package websocket
