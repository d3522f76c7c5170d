package session

import (
	"sync"

	"whiteboard/internal/models"
)

// Hub is the process-wide registry of live whiteboard rooms. It is owned
// by the handlers and constructed fresh per test. Membership changes go
// through JoinRoom and LeaveRoom so that room creation, the emptiness
// check and registry deletion are a single atomic step; a join can never
// land in a room another connection is tearing down.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*Room)} }

// JoinRoom adds the participant to the room for id, creating the room
// with defaults when absent. It returns the room, the participant count
// after the join and whether a new room was created.
func (h *Hub) JoinRoom(id string, c *Client, p models.Participant) (*Room, int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[id]
	created := false
	if !ok {
		r = NewRoom(id)
		h.rooms[id] = r
		created = true
	}
	return r, r.Join(c, p), created
}

// LeaveRoom removes the participant from the room for id, deleting the
// registry entry when the participant set empties. It returns the room,
// the number of participants remaining and whether the room existed.
func (h *Hub) LeaveRoom(id string, c *Client, participantID string) (*Room, int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[id]
	if !ok {
		return nil, 0, false
	}
	remaining := r.Leave(c, participantID)
	if remaining == 0 {
		delete(h.rooms, id)
	}
	return r, remaining, true
}

func (h *Hub) Get(id string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[id]
	return r, ok
}
