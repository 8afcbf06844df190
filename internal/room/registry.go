package room

import (
	"crypto/rand"
	"math/big"

	"github.com/playrooms/tictactoe-backend/internal/apperror"
)

const (
	roomIDPrefix  = "room-"
	roomIDLength  = 6
	roomIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Registry owns every live room for the lifetime of the process. It is only
// touched from the coordinator's loop, so it needs no locking.
type Registry struct {
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom - allocates a room under a fresh identifier. The identifier is
// rechecked against the registry and regenerated on collision rather than
// trusting randomness alone.
func (that *Registry) CreateRoom() *Room {
	var id string
	for {
		id = generateRoomID()
		if _, exists := that.rooms[id]; !exists {
			break
		}
	}

	created := newRoom(id)
	that.rooms[id] = created

	return created
}

// GetByID - returns the room or apperror.ErrRoomNotFound.
func (that *Registry) GetByID(id string) (*Room, error) {
	existing, ok := that.rooms[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return existing, nil
}

// FreeSeatsHeldBy - vacates every seat the connection holds and returns the
// rooms that were touched.
func (that *Registry) FreeSeatsHeldBy(connID string) []*Room {
	var touched []*Room

	for _, current := range that.rooms {
		if current.SeatOf(connID) == "" {
			continue
		}

		current.FreeSeat(connID)
		touched = append(touched, current)
	}

	return touched
}

// SweepFinished - removes rooms whose game has concluded and whose seats are
// both vacant. Rooms that are still in progress or still occupied are never
// removed, so a reconnecting participant keeps their state.
func (that *Registry) SweepFinished() {
	for id, current := range that.rooms {
		if current.IsConcluded() && current.IsVacant() {
			delete(that.rooms, id)
		}
	}
}

// Len - number of live rooms.
func (that *Registry) Len() int {
	return len(that.rooms)
}

func generateRoomID() string {
	id := make([]byte, roomIDLength)
	for i := range id {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomIDCharset))))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			id[i] = roomIDCharset[0]
			continue
		}
		id[i] = roomIDCharset[n.Int64()]
	}

	return roomIDPrefix + string(id)
}
