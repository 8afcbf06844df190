package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/playrooms/tictactoe-backend/internal/pkg"
	"github.com/playrooms/tictactoe-backend/internal/usecase"
)

const (
	outboxBuffer = 16
	writeTimeout = 3 * time.Second
)

// coordinator is the slice of the session coordinator the transport drives.
// The transport only posts actions and drains its own outbox; it never
// touches room state.
type coordinator interface {
	Attach(connID string, outbox chan usecase.Outbound)
	Detach(connID string)
	CreateRoom(connID, preferredRole string)
	JoinRoom(connID, roomID string)
	SubmitMove(connID, roomID, mark string, cell int)
}

type Server struct {
	logger      *slog.Logger
	coordinator coordinator
}

func New(logger *slog.Logger, coordinator coordinator) *Server {
	return &Server{
		logger:      logger.With("component", "websocket"),
		coordinator: coordinator,
	}
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.handleConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// handleConnection - upgrades the connection, registers it with the
// coordinator and pumps messages both ways until the peer goes away.
func (that *Server) handleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleConnection")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error("failed to accept websocket connection", "error", err)
		return
	}
	defer conn.CloseNow()

	connID := pkg.GenerateConnectionID()
	log.Info("WebSocket connection established", "connID", connID)

	outbox := make(chan usecase.Outbound, outboxBuffer)
	that.coordinator.Attach(connID, outbox)
	defer that.coordinator.Detach(connID)

	go that.writeLoop(ctx, conn, outbox)

	that.readLoop(ctx, conn, connID)

	log.Info("WebSocket connection closed", "connID", connID)
}

// readLoop - decodes client messages and posts them to the coordinator.
// Malformed input is logged and skipped, never answered in-band, so the
// writer goroutine stays the only writer on the connection.
func (that *Server) readLoop(ctx context.Context, conn *websocket.Conn, connID string) {
	log := that.logger.With("method", "readLoop", "connID", connID)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}

			log.Debug("read failed, dropping connection", "error", err)
			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		that.dispatch(connID, &msg, log)
	}
}

func (that *Server) dispatch(connID string, msg *Message, log *slog.Logger) {
	switch msg.Action {
	case ActionCreateRoom:
		var payload CreateRoomPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				log.Error("failed to unmarshal create payload", "error", err)
				return
			}
		}
		that.coordinator.CreateRoom(connID, payload.PreferredRole)

	case ActionJoinRoom:
		var payload JoinRoomPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			log.Error("failed to unmarshal join payload", "error", err)
			return
		}
		that.coordinator.JoinRoom(connID, payload.RoomID)

	case ActionSubmitMove:
		var payload SubmitMovePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			log.Error("failed to unmarshal move payload", "error", err)
			return
		}
		that.coordinator.SubmitMove(connID, payload.RoomID, payload.Role, payload.CellIndex)

	default:
		log.Error("unknown action", "action", msg.Action)
	}
}

// writeLoop - drains the outbox until the coordinator closes it on detach.
func (that *Server) writeLoop(ctx context.Context, conn *websocket.Conn, outbox <-chan usecase.Outbound) {
	log := that.logger.With("method", "writeLoop")

	for out := range outbox {
		payload, err := encodeOutbound(out)
		if err != nil {
			log.Error("failed to encode outbound message", "error", err)
			continue
		}

		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err = conn.Write(writeCtx, websocket.MessageText, payload)
		cancel()

		if err != nil {
			log.Debug("write failed", "error", err)
			return
		}
	}
}

// encodeOutbound - maps a coordinator message onto the wire envelope. Acks
// carry the action name of the request they answer.
func encodeOutbound(out usecase.Outbound) ([]byte, error) {
	var msg Message

	switch out := out.(type) {
	case usecase.StateUpdate:
		msg = newMessage(ActionStateUpdate, StatePayload{
			RoomID: out.RoomID,
			Board:  out.Board,
			Next:   out.Next,
			Winner: out.Winner,
			YouAre: out.YouAre,
		})
	case usecase.CreateResult:
		msg = newMessage(ActionCreateRoom, CreateRoomAck{
			OK:     out.OK,
			RoomID: out.RoomID,
			Role:   out.Role,
			Reason: out.Reason,
		})
	case usecase.JoinResult:
		msg = newMessage(ActionJoinRoom, JoinRoomAck{
			OK:     out.OK,
			Role:   out.Role,
			Reason: out.Reason,
		})
	case usecase.ActionError:
		msg = newMessage(ActionError, ErrorPayload{Message: out.Message})
	default:
		return nil, fmt.Errorf("unknown outbound message type %T", out)
	}

	encoded, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return encoded, nil
}

func newMessage(action string, payload any) Message {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	return Message{Action: action, Payload: raw}
}
