package websocket

import (
	"encoding/json"

	"github.com/playrooms/tictactoe-backend/internal/entity"
)

const (
	ActionCreateRoom  = "create-room"
	ActionJoinRoom    = "join-room"
	ActionSubmitMove  = "submit-move"
	ActionStateUpdate = "state-update"
	ActionError       = "action-error"
)

// Message is the WebSocket envelope: an action name and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreateRoomPayload struct {
	PreferredRole string `json:"preferredRole,omitempty"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type SubmitMovePayload struct {
	RoomID    string `json:"roomId"`
	CellIndex int    `json:"cellIndex"`
	Role      string `json:"role"`
}

type CreateRoomAck struct {
	OK     bool   `json:"ok"`
	RoomID string `json:"roomId,omitempty"`
	Role   string `json:"role,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type JoinRoomAck struct {
	OK     bool   `json:"ok"`
	Role   string `json:"role,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type StatePayload struct {
	RoomID string       `json:"roomId"`
	Board  entity.Board `json:"board"`
	Next   string       `json:"next,omitempty"`
	Winner string       `json:"winner,omitempty"`
	YouAre string       `json:"youAre,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
