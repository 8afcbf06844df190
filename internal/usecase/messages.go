package usecase

import "github.com/playrooms/tictactoe-backend/internal/entity"

// Outbound is a message the coordinator pushes into a connection's outbox.
type Outbound interface{ isOutbound() }

// StateUpdate is the authoritative room snapshot sent after create, join and
// move. YouAre is personalized per recipient; board, next and winner are
// identical for everyone in the room.
type StateUpdate struct {
	RoomID string
	Board  entity.Board
	Next   string
	Winner string
	YouAre string
}

// CreateResult acknowledges a create-room request.
type CreateResult struct {
	OK     bool
	RoomID string
	Role   string
	Reason string
}

// JoinResult acknowledges a join-room request.
type JoinResult struct {
	OK     bool
	Role   string
	Reason string
}

// ActionError is a non-fatal error addressed to one connection only.
type ActionError struct {
	Message string
}

func (StateUpdate) isOutbound()  {}
func (CreateResult) isOutbound() {}
func (JoinResult) isOutbound()   {}
func (ActionError) isOutbound()  {}

type message interface {
	// sender is the connection the message originates from, empty for
	// internal queries.
	sender() string
}

type attachMsg struct {
	connID string
	outbox chan Outbound
}

type detachMsg struct {
	connID string
}

type createRoomMsg struct {
	connID    string
	preferred string
}

type joinRoomMsg struct {
	connID string
	roomID string
}

type submitMoveMsg struct {
	connID string
	roomID string
	mark   string
	cell   int
}

type roomCountMsg struct {
	reply chan int
}

func (that attachMsg) sender() string     { return that.connID }
func (that detachMsg) sender() string     { return that.connID }
func (that createRoomMsg) sender() string { return that.connID }
func (that joinRoomMsg) sender() string   { return that.connID }
func (that submitMoveMsg) sender() string { return that.connID }
func (roomCountMsg) sender() string       { return "" }
