// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/metrics"
	"github.com/tomtom215/coffeechat/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Client to server event types.
const (
	EventAskJoin     = "ask-join"
	EventMessageSend = "message-send"
	EventPing        = "ping"
)

// Server to client event types.
const (
	EventNewMessage = "newMessage"
	EventNewPost    = "newPost"
	EventPong       = "pong"
)

// AnonymousSender is used when neither the frame nor the session names
// the sender.
const AnonymousSender = "Anonymous"

// Message is a JSON frame in either direction.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Relay publishes room messages to every process. When the relay accepts a
// message the hub does not deliver it locally; the relay's subscriber does.
type Relay interface {
	PublishRoom(ctx context.Context, msg models.ChatMessage) error
}

// outbound is a message queued for the hub goroutine. A non-nil to
// targets one client; otherwise an empty room means every client.
type outbound struct {
	to   *Client
	room string
	msg  Message
}

// Hub maintains the set of active clients and their room tags.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	relayMu sync.RWMutex
	relay   Relay
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan outbound, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// SetRelay installs the cross-process relay. A nil relay restores local
// delivery.
func (h *Hub) SetRelay(r Relay) {
	h.relayMu.Lock()
	defer h.relayMu.Unlock()
	h.relay = r
}

func (h *Hub) currentRelay() Relay {
	h.relayMu.RLock()
	defer h.relayMu.RUnlock()
	return h.relay
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err(). It is restartable by a supervisor.
//
// Lifecycle events are drained before broadcasts so that a client
// registered before a message was queued always sees it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case out := <-h.broadcast:
			h.broadcastToClients(out)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Str("user", client.username).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// broadcastToClients delivers out to every matching client in ID order.
// A client whose buffer is full is removed and its connection closed by
// its write pump.
func (h *Hub) broadcastToClients(out outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.recipients(out)

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- out.msg:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("removing slow websocket client")
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// recipients returns the clients out is addressed to, in ID order.
// Caller holds h.mu.
func (h *Hub) recipients(out outbound) []*Client {
	if out.to != nil {
		if h.clients[out.to] {
			return []*Client{out.to}
		}
		return nil
	}
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if out.room == "" || client.inRoom(out.room) {
			clients = append(clients, client)
		}
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// Join tags client with room. Rooms are created on first use and never
// validated.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.rooms[room] = struct{}{}
}

// SendRoom routes a chat message through the relay when one is installed,
// falling back to local delivery when publishing fails.
func (h *Hub) SendRoom(ctx context.Context, msg models.ChatMessage) {
	if relay := h.currentRelay(); relay != nil {
		err := relay.PublishRoom(ctx, msg)
		if err == nil {
			return
		}
		logging.Warn().Err(err).Str("room", msg.Room).Msg("room relay failed, delivering locally")
	}
	h.DeliverRoom(msg)
}

// DeliverRoom broadcasts a newMessage event to the clients tagged with
// msg.Room on this process.
func (h *Hub) DeliverRoom(msg models.ChatMessage) {
	h.enqueue(outbound{room: msg.Room, msg: Message{Type: EventNewMessage, Data: msg}})
}

// BroadcastNewPost sends a newPost event to every connected client.
func (h *Hub) BroadcastNewPost(n models.PostNotification) {
	h.enqueue(outbound{msg: Message{Type: EventNewPost, Data: n}})
}

// reply queues a message for a single client.
func (h *Hub) reply(client *Client, msg Message) {
	h.enqueue(outbound{to: client, msg: msg})
}

// BroadcastJSON sends an arbitrary event to every connected client.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	h.enqueue(outbound{msg: Message{Type: messageType, Data: data}})
}

func (h *Hub) enqueue(out outbound) {
	select {
	case h.broadcast <- out:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("message_type", out.msg.Type).Str("room", out.room).Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of connected clients tagged with room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for client := range h.clients {
		if client.inRoom(room) {
			n++
		}
	}
	return n
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
