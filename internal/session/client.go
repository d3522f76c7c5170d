package session

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"whiteboard/internal/models"
)

// ErrAlreadyJoined is returned when a connection sends a second join.
var ErrAlreadyJoined = errors.New("connection already bound to a room")

// Client wraps a single WebSocket connection and the identity it was
// bound to at join time.
type Client struct {
	Conn *websocket.Conn

	mu       sync.Mutex
	hook     func(models.WSFrame)
	identity *models.Participant
	roomID   string
	departed bool
}

func NewClient(conn *websocket.Conn) *Client { return &Client{Conn: conn} }

// Bind attaches room and identity to the connection. It succeeds exactly
// once; a rebind attempt fails and leaves the original binding intact.
func (c *Client) Bind(roomID string, p models.Participant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity != nil {
		return ErrAlreadyJoined
	}
	c.identity = &p
	c.roomID = roomID
	return nil
}

// Identity returns the bound participant, or false if the connection
// has not joined a room yet.
func (c *Client) Identity() (models.Participant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return models.Participant{}, false
	}
	return *c.identity, true
}

func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// MarkDeparted records that the connection already left its room, so the
// transport-level disconnect that follows an explicit leave is a no-op.
func (c *Client) MarkDeparted() {
	c.mu.Lock()
	c.departed = true
	c.mu.Unlock()
}

func (c *Client) Departed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.departed
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *Client) Send(frame models.WSFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteJSON(frame)
}
