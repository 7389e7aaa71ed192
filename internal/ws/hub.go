package ws

import (
	"ridehailgo/internal/observability"
	"sync"
)

// DriversGroup is the fixed group every driver connection joins; riders alert
// it when they request a trip.
const DriversGroup = "drivers"

// Hub keeps client sets per group id (a trip natural key or DriversGroup).
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*room)} }

// Join and Leave mutate membership while holding h.mu so that pruning an
// emptied room can never race a join into it. Both room operations are O(1)
// and do no I/O.
func (h *Hub) Join(group string, c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[group]
	if !ok {
		r = newRoom()
		h.rooms[group] = r
	}
	r.add(c)
}

func (h *Hub) Leave(group string, c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[group]
	if !ok {
		return
	}
	if r.remove(c) {
		// Room drained; drop the map entry so idle groups do not pile up.
		delete(h.rooms, group)
	}
}

// Broadcast delivers msg to every current member of the group. Failed
// deliveries prune the member; they are never surfaced to the caller.
func (h *Hub) Broadcast(group string, msg []byte) {
	h.mu.Lock()
	r, ok := h.rooms[group]
	h.mu.Unlock()
	if !ok {
		return
	}
	observability.BroadcastsTotal.Inc()
	r.broadcast(msg)
}
