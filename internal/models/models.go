package models

import "encoding/json"

// Role of a participant inside a whiteboard room.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether the role is one the coordinator knows about.
func (r Role) Valid() bool { return r == RoleTeacher || r == RoleStudent }

/*** Wire protocol ***/

// WSFrame is the envelope for every inbound and outbound WebSocket message.
type WSFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Inbound frame types.
const (
	FrameJoin           = "join"
	FrameDraw           = "draw"
	FrameClear          = "clear"
	FrameSetLock        = "setLock"
	FrameShareDocument  = "shareDocument"
	FrameSetDocVisible  = "setDocumentVisibility"
	FrameRemoveDocument = "removeDocument"
	FrameLeave          = "leave"
)

// Outbound frame types.
const (
	FrameLockStatus        = "lockStatus"
	FrameDocVisibility     = "documentVisibilityChanged"
	FrameDocumentShared    = "documentShared"
	FrameDocumentRemoved   = "documentRemoved"
	FrameParticipantCount  = "participantCount"
	FrameParticipantJoined = "participantJoined"
	FrameParticipantLeft   = "participantLeft"
	FrameDrawBlocked       = "drawBlocked"
	FrameClearBlocked      = "clearBlocked"
	FrameUnauthorized      = "unauthorized"
	FrameError             = "error"
)

// JoinRequest binds a connection to a room. Identity fields are overridden
// by room token claims when the connection presented a valid token.
type JoinRequest struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Role          Role   `json:"role"`
}

// RelayRequest carries an opaque draw or clear payload. The coordinator
// never interprets Data; it is forwarded verbatim.
type RelayRequest struct {
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

type SetLockRequest struct {
	RoomID string `json:"roomId"`
	Locked bool   `json:"locked"`
}

type ShareDocumentRequest struct {
	RoomID            string `json:"roomId"`
	Payload           string `json:"payload"`
	FileName          string `json:"fileName"`
	SharerID          string `json:"sharerId"`
	VisibleToStudents bool   `json:"visibleToStudents"`
}

type SetDocVisibilityRequest struct {
	RoomID  string `json:"roomId"`
	Visible bool   `json:"visible"`
}

type RemoveDocumentRequest struct {
	RoomID string `json:"roomId"`
}

type LeaveRequest struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
}

/*** Outbound payloads ***/

type LockStatus struct {
	Locked bool `json:"locked"`
}

type DocVisibility struct {
	Visible bool `json:"visible"`
}

type ParticipantCount struct {
	Count int `json:"count"`
}

type ParticipantJoined struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Role          Role   `json:"role"`
	Count         int    `json:"count"`
}

type ParticipantLeft struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Count         int    `json:"count"`
}

/*** Room session state ***/

// Participant is a member of a room, keyed by id in the room's set.
type Participant struct {
	ID          string `json:"participantId"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// SharedDocument is the payload attached to a room for synchronized
// viewing (e.g. a rendered PDF page). Payload is opaque to the server.
type SharedDocument struct {
	Payload           string `json:"payload"`
	FileName          string `json:"fileName"`
	SharerID          string `json:"sharerId"`
	VisibleToStudents bool   `json:"visibleToStudents"`
}

// RoomState is the snapshot a late joiner needs to reconstruct live state.
type RoomState struct {
	Locked     bool
	DocVisible bool
	Doc        *SharedDocument
}

// RoomStatus is the REST view of a live room.
type RoomStatus struct {
	RoomID           string        `json:"roomId"`
	ParticipantCount int           `json:"participantCount"`
	Locked           bool          `json:"locked"`
	DocumentShared   bool          `json:"documentShared"`
	Participants     []Participant `json:"participants"`
}

// SessionEndedEvent is published when the last participant leaves a room.
type SessionEndedEvent struct {
	RoomID      string `json:"roomId"`
	InstanceID  string `json:"instanceId"`
	StartedAt   string `json:"startedAt"`
	EndedAt     string `json:"endedAt"`
	DurationSec int    `json:"durationSeconds"`
}
