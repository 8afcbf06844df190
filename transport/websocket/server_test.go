package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playrooms/tictactoe-backend/internal/entity"
	"github.com/playrooms/tictactoe-backend/internal/usecase"
)

type dispatchedAction struct {
	name   string
	roomID string
	mark   string
	cell   int
}

type fakeCoordinator struct {
	actions []dispatchedAction
}

func (that *fakeCoordinator) Attach(string, chan usecase.Outbound) {}
func (that *fakeCoordinator) Detach(string)                        {}

func (that *fakeCoordinator) CreateRoom(_, preferredRole string) {
	that.actions = append(that.actions, dispatchedAction{name: ActionCreateRoom, mark: preferredRole})
}

func (that *fakeCoordinator) JoinRoom(_, roomID string) {
	that.actions = append(that.actions, dispatchedAction{name: ActionJoinRoom, roomID: roomID})
}

func (that *fakeCoordinator) SubmitMove(_, roomID, mark string, cell int) {
	that.actions = append(that.actions, dispatchedAction{name: ActionSubmitMove, roomID: roomID, mark: mark, cell: cell})
}

func newTestServer() (*Server, *fakeCoordinator) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := &fakeCoordinator{}
	return New(logger, fake), fake
}

func TestServer_Dispatch(t *testing.T) {
	server, fake := newTestServer()
	log := server.logger

	// When: each client action arrives
	server.dispatch("conn-1", &Message{Action: ActionCreateRoom, Payload: json.RawMessage(`{"preferredRole":"O"}`)}, log)
	server.dispatch("conn-1", &Message{Action: ActionJoinRoom, Payload: json.RawMessage(`{"roomId":"room-abc123"}`)}, log)
	server.dispatch("conn-1", &Message{Action: ActionSubmitMove, Payload: json.RawMessage(`{"roomId":"room-abc123","cellIndex":4,"role":"X"}`)}, log)

	// Then: each is forwarded with its payload fields
	require.Len(t, fake.actions, 3)
	assert.Equal(t, dispatchedAction{name: ActionCreateRoom, mark: entity.PlayerO}, fake.actions[0])
	assert.Equal(t, dispatchedAction{name: ActionJoinRoom, roomID: "room-abc123"}, fake.actions[1])
	assert.Equal(t, dispatchedAction{name: ActionSubmitMove, roomID: "room-abc123", mark: entity.PlayerX, cell: 4}, fake.actions[2])
}

func TestServer_Dispatch_BadInput(t *testing.T) {
	server, fake := newTestServer()
	log := server.logger

	// When: an unknown action and a malformed payload arrive
	server.dispatch("conn-1", &Message{Action: "rematch"}, log)
	server.dispatch("conn-1", &Message{Action: ActionSubmitMove, Payload: json.RawMessage(`{"cellIndex":"four"}`)}, log)

	// Then: neither reaches the coordinator
	assert.Empty(t, fake.actions)
}

func TestEncodeOutbound(t *testing.T) {
	t.Run("State update", func(t *testing.T) {
		board := entity.NewBoard()
		board[4] = entity.PlayerX

		encoded, err := encodeOutbound(usecase.StateUpdate{
			RoomID: "room-abc123",
			Board:  board,
			Next:   entity.PlayerO,
			YouAre: entity.PlayerX,
		})
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(encoded, &msg))
		assert.Equal(t, ActionStateUpdate, msg.Action)

		var state StatePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		assert.Equal(t, "room-abc123", state.RoomID)
		assert.Equal(t, entity.PlayerX, state.Board[4])
		assert.Equal(t, entity.PlayerO, state.Next)
		assert.Equal(t, entity.PlayerX, state.YouAre)
		assert.Empty(t, state.Winner)
	})

	t.Run("Acks answer with the request's action name", func(t *testing.T) {
		encoded, err := encodeOutbound(usecase.CreateResult{OK: true, RoomID: "room-abc123", Role: entity.PlayerX})
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(encoded, &msg))
		assert.Equal(t, ActionCreateRoom, msg.Action)

		encoded, err = encodeOutbound(usecase.JoinResult{OK: false, Reason: "room is full"})
		require.NoError(t, err)

		require.NoError(t, json.Unmarshal(encoded, &msg))
		assert.Equal(t, ActionJoinRoom, msg.Action)

		var ack JoinRoomAck
		require.NoError(t, json.Unmarshal(msg.Payload, &ack))
		assert.False(t, ack.OK)
		assert.Equal(t, "room is full", ack.Reason)
	})

	t.Run("Action error", func(t *testing.T) {
		encoded, err := encodeOutbound(usecase.ActionError{Message: "room not found"})
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(encoded, &msg))
		assert.Equal(t, ActionError, msg.Action)
	})
}
