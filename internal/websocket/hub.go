// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/whimsypingu/scuttle-go/internal/events"
	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// ShutdownReason identifies why the hub's Run loop returned.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Hub is the broadcaster (C4): it holds the set of connected client
// sessions and fans an Event out to every one of them, dropping any
// session whose send fails. It has no notion of source/action filtering
// of its own — the event bus decides which events reach Broadcast at all.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan events.Event
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates an empty Hub. Call Run (or RunWithContext) to start
// pumping registrations and broadcasts.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan events.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub's single-goroutine event loop until ctx is
// canceled. Lifecycle events (Register/Unregister) are drained ahead of
// broadcasts so a session's membership is always settled before the next
// fan-out considers it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logShutdown(ctx)
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
			h.logShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case event := <-h.broadcast:
			h.Broadcast(event)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", n).Msg("client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", n).Msg("client disconnected")
}

func (h *Hub) logShutdown(ctx context.Context) {
	n := h.ClientCount()
	h.closeAll()
	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().Str("component", "broadcaster").Str("reason", string(reason)).Int("clients_closed", n).Msg("broadcaster stopped")
}

// Connect registers a session with the hub. It satisfies the C4
// contract's "connect(s) — add" operation.
func (h *Hub) Connect(c *Client) {
	h.Register <- c
}

// Disconnect removes a session from the hub. Idempotent: removing a
// session that is already gone is a no-op.
func (h *Hub) Disconnect(c *Client) {
	h.Unregister <- c
}

// Enqueue hands an event to the hub's internal broadcast loop. Used by
// event bus handlers that must not block Publish on a slow hub loop.
func (h *Hub) Enqueue(e events.Event) {
	select {
	case h.broadcast <- e:
	default:
		logging.Warn().Str("source", e.Source).Str("action", e.Action).Msg("broadcast channel full, dropping event")
	}
}

// Broadcast serializes event to every connected session in a
// deterministic order (ascending client id) and drops any session whose
// send channel is full or closed — the C4 "mark for removal, remove
// after the loop" policy.
func (h *Hub) Broadcast(event events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var dead []*Client
	for _, c := range clients {
		select {
		case c.send <- event:
		default:
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// ClientCount returns the number of connected sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
