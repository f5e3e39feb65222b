// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/metrics"
)

// Message types.
const (
	MessageTypeStale     = "recommendations_stale"
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// broadcastBuffer is the number of queued frames before Broadcast drops.
const broadcastBuffer = 256

// Message is one frame sent to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`

	// target restricts delivery to one user's connections when set.
	target string
}

// StaleNotice is the payload of a recommendations_stale frame.
type StaleNotice struct {
	// Reason is the change kind that caused the invalidation.
	Reason   string `json:"reason"`
	EntityID string `json:"entity_id,omitempty"`
	// UserID is set for profile changes; only that user is notified.
	UserID string `json:"user_id,omitempty"`
	// Coalesced counts changes folded into this notice since the last one.
	Coalesced int       `json:"coalesced"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub tracks connected clients and fans frames out to them.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	broadcast chan Message
	logger    zerolog.Logger
}

// NewHub creates a hub. It delivers nothing until RunWithContext runs.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan Message, broadcastBuffer),
		logger:    logger.With().Str("component", "websocket-hub").Logger(),
	}
}

// Register adds c to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	h.logger.Debug().Uint64("client_id", c.id).Str("user_id", c.userID).Int("total_clients", n).
		Msg("websocket client connected")
}

// Unregister removes c and closes its send channel. Repeated calls are
// harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.WSConnections.Set(float64(n))
		h.logger.Debug().Uint64("client_id", c.id).Int("total_clients", n).Msg("websocket client disconnected")
	}
}

// RunWithContext delivers queued frames until ctx ends, then closes every
// client. It returns ctx.Err() so a supervisor can tell shutdown from
// failure.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Shutdown wins over pending frames.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	n := h.closeAll()
	reason := "context_canceled"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = "context_deadline"
	}
	h.logger.Info().Str("reason", reason).Int("clients_closed", n).Msg("websocket hub stopped")
}

// deliver sends msg to every matching client in connection order. Clients
// whose buffer is full are dropped.
func (h *Hub) deliver(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var slow []*Client
	sent := 0
	for _, c := range h.sortedLocked() {
		if msg.target != "" && c.userID != msg.target {
			continue
		}
		select {
		case c.send <- msg:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(h.clients, c)
		close(c.send)
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
		h.logger.Warn().Uint64("client_id", c.id).Msg("dropping slow websocket client")
	}
	if len(slow) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
	metrics.WSMessagesSent.Add(float64(sent))
}

func (h *Hub) closeAll() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedLocked()
	for _, c := range clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.WSConnections.Set(0)
	return len(clients)
}

// sortedLocked returns clients ordered by id. h.mu must be held.
func (h *Hub) sortedLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

// Broadcast queues a frame for every client. It never blocks and reports
// false when the queue is full.
func (h *Hub) Broadcast(messageType string, data any) bool {
	return h.enqueue(Message{Type: messageType, Data: data})
}

// BroadcastStale queues a recommendations_stale frame. A notice with a
// UserID only reaches that user.
func (h *Hub) BroadcastStale(notice StaleNotice) bool {
	if notice.Timestamp.IsZero() {
		notice.Timestamp = time.Now().UTC()
	}
	return h.enqueue(Message{Type: MessageTypeStale, Data: notice, target: notice.UserID})
}

func (h *Hub) enqueue(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		h.logger.Warn().Str("message_type", msg.Type).Msg("broadcast queue full, dropping frame")
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
