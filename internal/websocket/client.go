// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package websocket

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/metrics"
	"github.com/tomtom215/coffeechat/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// clientIDCounter gives clients a stable broadcast order.
var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id       uint64
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	username string

	// rooms is guarded by hub.mu.
	rooms map[string]struct{}
}

// NewClient creates a client for an authenticated user. username is the
// sender used when a message-send frame leaves it empty.
func NewClient(hub *Hub, conn *websocket.Conn, username string) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, sendBuffer),
		username: username,
		rooms:    make(map[string]struct{}),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() uint64 {
	return c.id
}

func (c *Client) inRoom(room string) bool {
	_, ok := c.rooms[room]
	return ok
}

// inboundFrame is a client to server frame; Data is decoded per type.
type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// messageSend is the payload of a message-send frame. Msg is an alias for
// Text kept for older clients.
type messageSend struct {
	Room   string `json:"room"`
	Text   string `json:"text"`
	Msg    string `json:"msg"`
	Sender string `json:"sender"`
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()
		c.handleFrame(data)
	}
}

// handleFrame dispatches one client frame. Malformed frames are dropped
// without closing the connection.
func (c *Client) handleFrame(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.badFrame("unparseable frame", err)
		return
	}

	switch frame.Type {
	case EventAskJoin:
		var room string
		if err := json.Unmarshal(frame.Data, &room); err != nil || room == "" {
			c.badFrame("ask-join without room name", err)
			return
		}
		c.hub.Join(c, room)
		logging.Debug().Str("user", c.username).Str("room", room).Msg("client joined room")

	case EventMessageSend:
		var payload messageSend
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			c.badFrame("malformed message-send", err)
			return
		}
		msg, ok := c.chatMessage(payload, time.Now())
		if !ok {
			c.badFrame("message-send without room", nil)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		c.hub.SendRoom(ctx, msg)
		cancel()

	case EventPing:
		c.hub.reply(c, Message{Type: EventPong})

	default:
		c.badFrame("unknown frame type "+frame.Type, nil)
	}
}

// chatMessage builds the broadcast form of a message-send payload.
func (c *Client) chatMessage(p messageSend, now time.Time) (models.ChatMessage, bool) {
	if p.Room == "" {
		return models.ChatMessage{}, false
	}
	text := p.Text
	if text == "" {
		text = p.Msg
	}
	sender := strings.TrimSpace(p.Sender)
	if sender == "" {
		sender = c.username
	}
	if sender == "" {
		sender = AnonymousSender
	}
	return models.ChatMessage{
		Room:      p.Room,
		Sender:    sender,
		Text:      text,
		Timestamp: now.UTC(),
	}, true
}

func (c *Client) badFrame(reason string, err error) {
	metrics.WSErrors.WithLabelValues("bad_frame").Inc()
	logging.Debug().Err(err).Uint64("client_id", c.id).Msg(reason)
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := MarshalMessage(message)
			if err != nil {
				logging.Error().Err(err).Str("type", message.Type).Msg("failed to marshal websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
