// Package feed is the live push channel. A single Hub fans typed events out
// to every connected dashboard; delivery is best-effort and clients must
// tolerate at-least-once, out-of-order updates.
package feed

import (
	"context"
	"sync/atomic"
	"time"

	"analysis-backend/internal/shared/telemetry"
)

// EventType enumerates the event kinds the dashboard subscribes to.
type EventType string

const (
	EventRequestCreated EventType = "request_created"
	EventRequestUpdated EventType = "request_updated"
	EventRequestDeleted EventType = "request_deleted"
	EventStatusUpdate   EventType = "status_update"
)

// Event is the wire envelope: {type, payload}.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// UpdatePayload is the payload of request_updated and status_update events.
type UpdatePayload struct {
	ID           int64   `json:"id"`
	Status       string  `json:"status"`
	UpdatedAt    string  `json:"updated_at"`
	ErrorMessage *string `json:"error_message"`
}

// DeletePayload is the payload of request_deleted events.
type DeletePayload struct {
	ID int64 `json:"id"`
}

// Hub owns the set of connected clients. All membership changes go through
// the run loop, so no locking is needed around the client set.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	clients    map[*client]struct{}
	count      atomic.Int64
}

// NewHub constructs a hub. Call Run before serving connections.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 64),
		clients:    make(map[*client]struct{}),
	}
}

// Run processes membership and broadcasts until ctx is done. On shutdown all
// client connections are closed.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			telemetry.Info("feed.client_connected", map[string]any{"client_id": c.id, "clients": len(h.clients)})
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.count.Store(int64(len(h.clients)))
				telemetry.Info("feed.client_disconnected", map[string]any{"client_id": c.id, "clients": len(h.clients)})
			}
		case evt := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- evt:
				default:
					// Slow consumer; drop it rather than stall the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.count.Store(int64(len(h.clients)))
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.count.Store(0)
			return
		}
	}
}

// Broadcast queues an event for every connected client. It never blocks the
// caller: when the hub is saturated the event is dropped, matching the
// best-effort contract of the feed.
func (h *Hub) Broadcast(evt Event) {
	select {
	case h.broadcast <- evt:
	default:
		telemetry.Warn("feed.broadcast_dropped", map[string]any{"type": string(evt.Type)})
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// RequestCreated broadcasts a request_created event with the given summary.
func (h *Hub) RequestCreated(payload any) {
	h.Broadcast(Event{Type: EventRequestCreated, Payload: payload})
}

// RequestUpdated broadcasts a request_updated event.
func (h *Hub) RequestUpdated(id int64, status string, updatedAt time.Time, errorMessage *string) {
	h.Broadcast(Event{Type: EventRequestUpdated, Payload: UpdatePayload{
		ID:           id,
		Status:       status,
		UpdatedAt:    updatedAt.UTC().Format(time.RFC3339),
		ErrorMessage: errorMessage,
	}})
}

// RequestDeleted broadcasts a request_deleted event.
func (h *Hub) RequestDeleted(id int64) {
	h.Broadcast(Event{Type: EventRequestDeleted, Payload: DeletePayload{ID: id}})
}

// StatusUpdate broadcasts a lightweight status_update event.
func (h *Hub) StatusUpdate(id int64, status string, updatedAt time.Time) {
	h.Broadcast(Event{Type: EventStatusUpdate, Payload: UpdatePayload{
		ID:        id,
		Status:    status,
		UpdatedAt: updatedAt.UTC().Format(time.RFC3339),
	}})
}
