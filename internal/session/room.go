package session

import (
	"sync"
	"time"

	"whiteboard/internal/models"
)

// Room holds the authoritative whiteboard state and connected clients for
// one collaboration session. Rooms start locked with no shared document.
type Room struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	clients      map[*Client]struct{}
	participants map[string]models.Participant
	locked       bool
	docVisible   bool
	doc          *models.SharedDocument
}

func NewRoom(id string) *Room {
	return &Room{
		ID:           id,
		CreatedAt:    time.Now(),
		clients:      make(map[*Client]struct{}),
		participants: make(map[string]models.Participant),
		locked:       true,
	}
}

// Join adds the connection and its participant to the room and returns the
// participant count afterwards. Re-joining with the same participant id
// just refreshes the set entry.
func (r *Room) Join(c *Client, p models.Participant) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
	r.participants[p.ID] = p
	return len(r.participants)
}

// Leave removes the connection and participant id and returns the number
// of participants remaining. The hub drops its registry entry at zero.
func (r *Room) Leave(c *Client, participantID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	delete(r.participants, participantID)
	return len(r.participants)
}

func (r *Room) ParticipantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

func (r *Room) Participants() []models.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	return out
}

func (r *Room) Locked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked
}

func (r *Room) SetLocked(locked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = locked
}

// SetDocument attaches a shared document, replacing any prior one. The
// room-level visibility flag follows the document's.
func (r *Room) SetDocument(doc models.SharedDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = &doc
	r.docVisible = doc.VisibleToStudents
}

// RemoveDocument clears the shared document and resets visibility.
func (r *Room) RemoveDocument() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = nil
	r.docVisible = false
}

// SetDocVisibility updates the visibility flag. A document need not be
// present; the flag may be set ahead of a later share.
func (r *Room) SetDocVisibility(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docVisible = visible
	if r.doc != nil {
		r.doc.VisibleToStudents = visible
	}
}

// Snapshot returns the state a late joiner needs: lock flag, visibility
// flag and a copy of the shared document if one is attached.
func (r *Room) Snapshot() models.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := models.RoomState{Locked: r.locked, DocVisible: r.docVisible}
	if r.doc != nil {
		doc := *r.doc
		state.Doc = &doc
	}
	return state
}

// Status returns the REST view of the room.
func (r *Room) Status() models.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	participants := make([]models.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		participants = append(participants, p)
	}
	return models.RoomStatus{
		RoomID:           r.ID,
		ParticipantCount: len(r.participants),
		Locked:           r.locked,
		DocumentShared:   r.doc != nil,
		Participants:     participants,
	}
}

// Broadcast sends the frame to every client except the sender.
func (r *Room) Broadcast(sender *Client, frame models.WSFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		if c == sender {
			continue
		}
		c.Send(frame)
	}
}

// BroadcastAll sends the frame to every client including the sender.
func (r *Room) BroadcastAll(frame models.WSFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		c.Send(frame)
	}
}
