package room

import (
	"github.com/playrooms/tictactoe-backend/internal/apperror"
	"github.com/playrooms/tictactoe-backend/internal/entity"
)

// Room is one live game session. Seats bind a mark to a transient connection
// ID; a vacated seat keeps the board and winner intact so a returning
// participant sees the history.
type Room struct {
	ID     string
	Board  entity.Board
	Turn   string // mark to move; cleared once the game is decided
	Winner string // empty until decided, then PlayerX, PlayerO or PlayerTie

	SeatX string // connection ID holding X, empty when vacant
	SeatO string // connection ID holding O, empty when vacant

	// RecordID is the archive identifier of this game, empty when the
	// initial archive write failed.
	RecordID string
}

func newRoom(id string) *Room {
	return &Room{
		ID:    id,
		Board: entity.NewBoard(),
		Turn:  entity.PlayerX,
	}
}

// IsConcluded - reports whether a winner or tie has been decided.
func (that *Room) IsConcluded() bool {
	return that.Winner != ""
}

// IsVacant - reports whether both seats are free.
func (that *Room) IsVacant() bool {
	return that.SeatX == "" && that.SeatO == ""
}

// SeatOf - returns the mark held by the given connection, or an empty string.
func (that *Room) SeatOf(connID string) string {
	switch connID {
	case "":
		return ""
	case that.SeatX:
		return entity.PlayerX
	case that.SeatO:
		return entity.PlayerO
	}
	return ""
}

// AssignSeat - seats the connection, X before O. A connection that already
// holds a seat gets that same seat back, so a rejoin never duplicates an
// assignment or evicts the opponent.
func (that *Room) AssignSeat(connID string) (string, error) {
	if mark := that.SeatOf(connID); mark != "" {
		return mark, nil
	}

	if that.SeatX == "" {
		that.SeatX = connID
		return entity.PlayerX, nil
	}

	if that.SeatO == "" {
		that.SeatO = connID
		return entity.PlayerO, nil
	}

	return "", apperror.ErrRoomFull
}

// ReconcileSeats - vacates any seat whose holder is not in the live set.
// Runs before every seat assignment to recover from ungraceful disconnects
// the transport has not reported yet.
func (that *Room) ReconcileSeats(live map[string]struct{}) {
	if that.SeatX != "" {
		if _, ok := live[that.SeatX]; !ok {
			that.SeatX = ""
		}
	}

	if that.SeatO != "" {
		if _, ok := live[that.SeatO]; !ok {
			that.SeatO = ""
		}
	}
}

// FreeSeat - vacates whichever seat the connection holds, no-op otherwise.
func (that *Room) FreeSeat(connID string) {
	if connID == "" {
		return
	}

	if that.SeatX == connID {
		that.SeatX = ""
	}

	if that.SeatO == connID {
		that.SeatO = ""
	}
}

// ApplyMove - validates the move and applies it. All checks happen before any
// mutation, so a rejected move leaves the room untouched.
func (that *Room) ApplyMove(mark string, cell int) error {
	if that.IsConcluded() {
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= entity.BoardSize {
		return apperror.ErrInvalidCell
	}

	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if that.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	that.Board[cell] = mark

	if outcome := that.Board.CheckOutcome(); outcome != "" {
		that.Winner = outcome
		that.Turn = ""
		return nil
	}

	that.Turn = entity.ToggleMark(mark)

	return nil
}
