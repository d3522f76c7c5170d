package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"whiteboard/internal/metrics"
	"whiteboard/internal/models"
	"whiteboard/internal/session"
	"whiteboard/internal/utils"
)

// sessionEvents is the slice of the event publisher the dispatcher needs.
type sessionEvents interface {
	PublishSessionEnded(roomID string, startedAt time.Time) error
}

// Config is the transport boundary configuration consumed from env.
type Config struct {
	AllowedOrigin   string
	MaxMessageBytes int64
}

type Handlers struct {
	log      *zap.Logger
	hub      *session.Hub
	events   sessionEvents
	upgrader websocket.Upgrader
	maxBytes int64
}

func NewHandlers(log *zap.Logger, events sessionEvents, cfg Config) *Handlers {
	return NewHandlersWithDeps(log, session.NewHub(), events, cfg)
}

func NewHandlersWithDeps(log *zap.Logger, hub *session.Hub, events sessionEvents, cfg Config) *Handlers {
	origin := cfg.AllowedOrigin
	return &Handlers{
		log:    log,
		hub:    hub,
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if origin == "" || origin == "*" {
					return true
				}
				return r.Header.Get("Origin") == origin
			},
		},
		maxBytes: cfg.MaxMessageBytes,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// RoomStatus reports the live state of a room for dashboards.
func (h *Handlers) RoomStatus(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	room, ok := h.hub.Get(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, room.Status())
}

/*** Whiteboard WebSocket: shared drawing surface + document view ***/

func (h *Handlers) WhiteboardWS(w http.ResponseWriter, r *http.Request) {
	// Browsers pass the room token as a query parameter; non-browser
	// callers may use an Authorization header instead.
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); header != "" {
			var err error
			token, err = utils.ExtractTokenFromHeader(header)
			if err != nil {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}
		}
	}

	var claims *utils.RoomTokenClaims
	if token != "" {
		var err error
		claims, err = utils.ValidateRoomToken(token)
		if err != nil {
			http.Error(w, "invalid room token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	if h.maxBytes > 0 {
		conn.SetReadLimit(h.maxBytes)
	}

	client := session.NewClient(conn)
	defer h.disconnect(client)

	// Event loop
	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		metrics.EventReceived(frame.Type)

		switch frame.Type {
		case models.FrameJoin:
			h.handleJoin(client, claims, frame)

		case models.FrameDraw:
			h.handleRelay(client, frame, models.FrameDraw, models.FrameDrawBlocked)

		case models.FrameClear:
			h.handleRelay(client, frame, models.FrameClear, models.FrameClearBlocked)

		case models.FrameSetLock:
			h.handleSetLock(client, frame)

		case models.FrameShareDocument:
			h.handleShareDocument(client, frame)

		case models.FrameSetDocVisible:
			h.handleSetDocVisibility(client, frame)

		case models.FrameRemoveDocument:
			h.handleRemoveDocument(client, frame)

		case models.FrameLeave:
			h.handleLeave(client, frame)

		default:
			client.Send(errFrame("unknown_type"))
		}
	}
}

func (h *Handlers) handleJoin(client *session.Client, claims *utils.RoomTokenClaims, frame models.WSFrame) {
	var req models.JoinRequest
	marshal(frame.Data, &req)

	// Claims established upstream win over caller-supplied identity.
	if claims != nil {
		req.ParticipantID = claims.UserID
		req.DisplayName = claims.DisplayName
		req.Role = claims.Role
		if claims.RoomID != "" && claims.RoomID != req.RoomID {
			client.Send(unauthorizedFrame("token not valid for this room"))
			return
		}
	}

	if req.RoomID == "" || req.ParticipantID == "" || !req.Role.Valid() {
		client.Send(errFrame("invalid_join"))
		return
	}

	participant := models.Participant{
		ID:          req.ParticipantID,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	}
	if err := client.Bind(req.RoomID, participant); err != nil {
		client.Send(errFrame("already_joined"))
		return
	}

	room, count, created := h.hub.JoinRoom(req.RoomID, client, participant)
	if created {
		metrics.RoomOpened()
	}
	metrics.ClientJoined()

	// Late joiners reconstruct the live room state from these replies.
	state := room.Snapshot()
	client.Send(models.WSFrame{Type: models.FrameLockStatus, Data: models.LockStatus{Locked: state.Locked}})
	client.Send(models.WSFrame{Type: models.FrameDocVisibility, Data: models.DocVisibility{Visible: state.DocVisible}})
	if state.Doc != nil {
		client.Send(models.WSFrame{Type: models.FrameDocumentShared, Data: *state.Doc})
	}

	room.BroadcastAll(models.WSFrame{Type: models.FrameParticipantCount, Data: models.ParticipantCount{Count: count}})
	room.Broadcast(client, models.WSFrame{Type: models.FrameParticipantJoined, Data: models.ParticipantJoined{
		ParticipantID: participant.ID,
		DisplayName:   participant.DisplayName,
		Role:          participant.Role,
		Count:         count,
	}})

	h.log.Info("participant joined",
		zap.String("roomId", req.RoomID),
		zap.String("participantId", participant.ID),
		zap.String("role", string(participant.Role)))
}

// handleRelay forwards an opaque draw or clear payload to the rest of the
// room, subject to lock gating for students.
func (h *Handlers) handleRelay(client *session.Client, frame models.WSFrame, relayType, blockedType string) {
	identity, room, ok := h.boundRoom(client, frame)
	if !ok {
		return
	}

	var req models.RelayRequest
	marshal(frame.Data, &req)

	if identity.Role == models.RoleStudent && room.Locked() {
		client.Send(models.WSFrame{Type: blockedType, Data: "surface is locked"})
		return
	}

	room.Broadcast(client, models.WSFrame{Type: relayType, Data: req.Data})
}

func (h *Handlers) handleSetLock(client *session.Client, frame models.WSFrame) {
	identity, room, ok := h.boundRoom(client, frame)
	if !ok {
		return
	}
	if identity.Role != models.RoleTeacher {
		client.Send(unauthorizedFrame("only the teacher may change the lock"))
		return
	}

	var req models.SetLockRequest
	marshal(frame.Data, &req)

	room.SetLocked(req.Locked)
	room.BroadcastAll(models.WSFrame{Type: models.FrameLockStatus, Data: models.LockStatus{Locked: req.Locked}})
}

func (h *Handlers) handleShareDocument(client *session.Client, frame models.WSFrame) {
	identity, room, ok := h.boundRoom(client, frame)
	if !ok {
		return
	}
	if identity.Role != models.RoleTeacher {
		client.Send(unauthorizedFrame("only the teacher may share documents"))
		return
	}

	var req models.ShareDocumentRequest
	marshal(frame.Data, &req)
	if req.SharerID == "" {
		req.SharerID = identity.ID
	}

	doc := models.SharedDocument{
		Payload:           req.Payload,
		FileName:          req.FileName,
		SharerID:          req.SharerID,
		VisibleToStudents: req.VisibleToStudents,
	}
	room.SetDocument(doc)
	room.BroadcastAll(models.WSFrame{Type: models.FrameDocumentShared, Data: doc})
}

func (h *Handlers) handleSetDocVisibility(client *session.Client, frame models.WSFrame) {
	identity, room, ok := h.boundRoom(client, frame)
	if !ok {
		return
	}
	if identity.Role != models.RoleTeacher {
		client.Send(unauthorizedFrame("only the teacher may change document visibility"))
		return
	}

	var req models.SetDocVisibilityRequest
	marshal(frame.Data, &req)

	room.SetDocVisibility(req.Visible)
	room.BroadcastAll(models.WSFrame{Type: models.FrameDocVisibility, Data: models.DocVisibility{Visible: req.Visible}})
}

func (h *Handlers) handleRemoveDocument(client *session.Client, frame models.WSFrame) {
	identity, room, ok := h.boundRoom(client, frame)
	if !ok {
		return
	}
	if identity.Role != models.RoleTeacher {
		client.Send(unauthorizedFrame("only the teacher may remove documents"))
		return
	}

	room.RemoveDocument()
	room.BroadcastAll(models.WSFrame{Type: models.FrameDocumentRemoved})
}

func (h *Handlers) handleLeave(client *session.Client, frame models.WSFrame) {
	identity, ok := client.Identity()
	if !ok || client.Departed() {
		return
	}

	var req models.LeaveRequest
	marshal(frame.Data, &req)
	if req.RoomID != client.RoomID() {
		client.Send(errFrame("room_mismatch"))
		return
	}
	participantID := req.ParticipantID
	if participantID == "" {
		participantID = identity.ID
	}

	client.MarkDeparted()
	h.departure(client, req.RoomID, participantID, identity.DisplayName, false)
}

// disconnect is the implicit leave fired when the transport drops.
func (h *Handlers) disconnect(client *session.Client) {
	identity, ok := client.Identity()
	if !ok || client.Departed() {
		return
	}
	client.MarkDeparted()
	h.departure(client, client.RoomID(), identity.ID, identity.DisplayName, true)
}

// departure is the shared presence teardown for leave and disconnect.
// announceLeft distinguishes the disconnect path, which additionally tells
// the remaining members who left.
func (h *Handlers) departure(client *session.Client, roomID, participantID, displayName string, announceLeft bool) {
	room, remaining, ok := h.hub.LeaveRoom(roomID, client, participantID)
	if !ok {
		return
	}
	metrics.ClientLeft()

	if remaining == 0 {
		metrics.RoomClosed()
		if h.events != nil {
			go func() {
				_ = h.events.PublishSessionEnded(roomID, room.CreatedAt)
			}()
		}
		h.log.Info("room closed", zap.String("roomId", roomID))
		return
	}

	count := models.ParticipantCount{Count: remaining}
	room.BroadcastAll(models.WSFrame{Type: models.FrameParticipantCount, Data: count})
	if announceLeft {
		room.BroadcastAll(models.WSFrame{Type: models.FrameParticipantLeft, Data: models.ParticipantLeft{
			ParticipantID: participantID,
			DisplayName:   displayName,
			Count:         remaining,
		}})
	}
}

// boundRoom resolves the sender's identity and the room named by the frame.
// Operations before join, against a mismatched room, or against a room with
// no registry entry never mutate state: the first two answer with an error
// frame, the last is a silent no-op (only join creates rooms).
func (h *Handlers) boundRoom(client *session.Client, frame models.WSFrame) (models.Participant, *session.Room, bool) {
	identity, ok := client.Identity()
	if !ok {
		client.Send(errFrame("join_required"))
		return models.Participant{}, nil, false
	}

	var ref struct {
		RoomID string `json:"roomId"`
	}
	marshal(frame.Data, &ref)
	if ref.RoomID != client.RoomID() {
		client.Send(errFrame("room_mismatch"))
		return models.Participant{}, nil, false
	}

	room, ok := h.hub.Get(ref.RoomID)
	if !ok {
		return models.Participant{}, nil, false
	}
	return identity, room, true
}

func marshal(in any, out any) { b, _ := json.Marshal(in); _ = json.Unmarshal(b, out) }

func errFrame(msg string) models.WSFrame {
	return models.WSFrame{Type: models.FrameError, Data: msg}
}

func unauthorizedFrame(msg string) models.WSFrame {
	return models.WSFrame{Type: models.FrameUnauthorized, Data: msg}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
