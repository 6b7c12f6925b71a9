// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication.
const (
	MessageTypePing                = "ping"
	MessageTypePong                = "pong"
	MessageTypeNotificationCreated = "notification.created"
	MessageTypeBadgeAwarded        = "badge.awarded"
	MessageTypeCoachingCompleted   = "coaching.completed"
)

// DefaultSendBuffer is the per-client queue length.
const DefaultSendBuffer = 64

// Message is the JSON frame written to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// delivery is a message addressed to one user, or to all users when
// userID is empty.
type delivery struct {
	userID string
	msg    Message
}

// Hub maintains the set of active clients grouped by user ID.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	deliver    chan delivery
	Register   chan *Client
	Unregister chan *Client
	sendBuffer int
	mu         sync.RWMutex
	// stopped is closed when a run ends so exiting clients do not block
	// on Unregister.
	stopped chan struct{}
}

// NewHub creates a hub whose clients queue up to DefaultSendBuffer messages.
func NewHub() *Hub {
	return NewHubWithBuffer(DefaultSendBuffer)
}

// NewHubWithBuffer creates a hub with a custom per-client queue length.
func NewHubWithBuffer(sendBuffer int) *Hub {
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		deliver:    make(chan delivery, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		sendBuffer: sendBuffer,
		stopped:    make(chan struct{}),
	}
}

// RunWithContext processes registrations and deliveries until ctx is
// canceled, then closes every client and returns ctx.Err().
//
// Lifecycle events are drained before deliveries so a client registered
// just before a send always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.mu.Lock()
	select {
	case <-h.stopped:
		h.stopped = make(chan struct{})
	default:
	}
	h.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case d := <-h.deliver:
			h.dispatch(d)
		}
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	total := h.countLocked()
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Debug().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	removed := h.dropLocked(c)
	total := h.countLocked()
	h.mu.Unlock()

	if removed {
		logging.Debug().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// dropLocked closes c's queue and forgets it. Callers hold h.mu.
func (h *Hub) dropLocked(c *Client) bool {
	set, ok := h.clients[c.userID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	metrics.WSConnections.Dec()
	return true
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// targets returns the recipients sorted by client ID.
func (h *Hub) targetsLocked(userID string) []*Client {
	var out []*Client
	if userID == "" {
		for _, set := range h.clients {
			for c := range set {
				out = append(out, c)
			}
		}
	} else {
		for c := range h.clients[userID] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (h *Hub) dispatch(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var slow []*Client
	for _, c := range h.targetsLocked(d.userID) {
		select {
		case c.send <- d.msg:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		h.dropLocked(c)
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("user_id", c.userID).Uint64("client_id", c.id).
			Msg("websocket client send buffer full, disconnecting")
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	all := h.targetsLocked("")
	for _, c := range all {
		h.dropLocked(c)
	}
	close(h.stopped)
	h.mu.Unlock()

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", len(all)).
		Msg("websocket hub stopped")
}

// SendToUser queues a message for every connection of userID. It reports
// false when the hub's delivery queue is full.
func (h *Hub) SendToUser(userID, messageType string, data interface{}) bool {
	if userID == "" {
		return false
	}
	return h.enqueue(delivery{userID: userID, msg: Message{Type: messageType, Data: data}})
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(messageType string, data interface{}) bool {
	return h.enqueue(delivery{msg: Message{Type: messageType, Data: data}})
}

func (h *Hub) enqueue(d delivery) bool {
	select {
	case h.deliver <- d:
		return true
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", d.msg.Type).Msg("websocket delivery queue full, dropping message")
		return false
	}
}

// unregister removes c, giving up once the hub has stopped.
func (h *Hub) unregister(c *Client) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	select {
	case h.Unregister <- c:
	case <-stopped:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

// UserClientCount returns the number of connections userID has open.
func (h *Hub) UserClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// IsOnline reports whether userID has at least one open connection.
func (h *Hub) IsOnline(userID string) bool {
	return h.UserClientCount(userID) > 0
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
