package usecase

import (
	"context"
	"log/slog"

	"github.com/playrooms/tictactoe-backend/internal/entity"
	"github.com/playrooms/tictactoe-backend/internal/room"
)

const inboxBuffer = 64

// gameArchive is the slice of the persistence gateway the coordinator writes
// to. Archive failures are logged and never block or corrupt live game state.
type gameArchive interface {
	RecordGameCreated(ctx context.Context, roomID, firstSeatLabel string) (string, error)
	RecordSeatAssigned(ctx context.Context, roomID, mark, label string) error
	RecordMove(ctx context.Context, gameID string, cell int, mark string) error
	RecordOutcome(ctx context.Context, gameID, winner string) error
}

// Coordinator owns the room registry and every connection outbox. All room
// mutations happen on its single loop goroutine: each action is handled to
// completion before the next one, which is what makes lock-free registry
// access safe.
type Coordinator struct {
	logger   *slog.Logger
	registry *room.Registry
	archive  gameArchive

	inbox chan message
	conns map[string]chan Outbound

	ctx    context.Context
	cancel context.CancelFunc
}

func NewCoordinator(parent context.Context, logger *slog.Logger, registry *room.Registry, archive gameArchive) *Coordinator {
	ctx, cancel := context.WithCancel(parent)

	coordinator := &Coordinator{
		logger:   logger.With("component", "coordinator"),
		registry: registry,
		archive:  archive,
		inbox:    make(chan message, inboxBuffer),
		conns:    make(map[string]chan Outbound),
		ctx:      ctx,
		cancel:   cancel,
	}

	go coordinator.loop()

	return coordinator
}

// Attach - registers a connection and the outbox its transport drains. The
// coordinator owns the outbox from here on and closes it on detach.
func (that *Coordinator) Attach(connID string, outbox chan Outbound) {
	that.post(attachMsg{connID: connID, outbox: outbox})
}

// Detach - frees every seat the connection holds, sweeps concluded empty
// rooms and closes the outbox.
func (that *Coordinator) Detach(connID string) {
	that.post(detachMsg{connID: connID})
}

// CreateRoom - allocates a room and seats the creator. The ack and the first
// state update arrive on the connection's outbox.
func (that *Coordinator) CreateRoom(connID, preferredRole string) {
	that.post(createRoomMsg{connID: connID, preferred: preferredRole})
}

// JoinRoom - seats the connection in an existing room.
func (that *Coordinator) JoinRoom(connID, roomID string) {
	that.post(joinRoomMsg{connID: connID, roomID: roomID})
}

// SubmitMove - fire-and-forget move command, validated entirely server-side.
func (that *Coordinator) SubmitMove(connID, roomID, mark string, cell int) {
	that.post(submitMoveMsg{connID: connID, roomID: roomID, mark: mark, cell: cell})
}

// RoomCount - number of live rooms, answered by the loop itself.
func (that *Coordinator) RoomCount() int {
	reply := make(chan int, 1)
	that.post(roomCountMsg{reply: reply})

	select {
	case n := <-reply:
		return n
	case <-that.ctx.Done():
		return 0
	}
}

// Shutdown - stops the loop and closes every outbox.
func (that *Coordinator) Shutdown() {
	that.cancel()
}

func (that *Coordinator) post(msg message) {
	select {
	case that.inbox <- msg:
	case <-that.ctx.Done():
	}
}

func (that *Coordinator) loop() {
	for {
		select {
		case <-that.ctx.Done():
			that.shutdown()
			return
		case msg := <-that.inbox:
			that.handle(msg)
		}
	}
}

// handle - dispatches one action. A panic inside a handler must not take the
// process down or corrupt other rooms, so it is caught here and answered with
// a generic action error.
func (that *Coordinator) handle(msg message) {
	defer func() {
		if r := recover(); r != nil {
			that.logger.Error("recovered from panic in action handler", "panic", r)
			that.send(msg.sender(), ActionError{Message: "internal server error"})
		}
	}()

	switch msg := msg.(type) {
	case attachMsg:
		that.handleAttach(msg)
	case detachMsg:
		that.handleDetach(msg)
	case createRoomMsg:
		that.handleCreateRoom(msg)
	case joinRoomMsg:
		that.handleJoinRoom(msg)
	case submitMoveMsg:
		that.handleSubmitMove(msg)
	case roomCountMsg:
		msg.reply <- that.registry.Len()
	}
}

func (that *Coordinator) handleAttach(msg attachMsg) {
	that.conns[msg.connID] = msg.outbox
}

func (that *Coordinator) handleDetach(msg detachMsg) {
	log := that.logger.With("method", "handleDetach")

	if outbox, ok := that.conns[msg.connID]; ok {
		delete(that.conns, msg.connID)
		close(outbox)
	}

	touched := that.registry.FreeSeatsHeldBy(msg.connID)
	if len(touched) > 0 {
		log.Info("freed seats on disconnect", "connID", msg.connID, "rooms", len(touched))
	}

	// disconnect is the opportunistic moment to drop concluded empty rooms
	that.registry.SweepFinished()
}

func (that *Coordinator) handleCreateRoom(msg createRoomMsg) {
	log := that.logger.With("method", "handleCreateRoom")

	created := that.registry.CreateRoom()

	mark := that.seatCreator(created, msg.connID, msg.preferred)

	recordID, err := that.archive.RecordGameCreated(that.ctx, created.ID, mark)
	if err != nil {
		log.Warn("failed to record created game", "roomID", created.ID, "error", err)
	} else {
		created.RecordID = recordID
	}

	that.broadcast(created)
	that.send(msg.connID, CreateResult{OK: true, RoomID: created.ID, Role: mark})

	log.Info("room created", "roomID", created.ID, "role", mark)
}

// seatCreator - the creator takes the seat matching the preferred role, X by
// default. First mover is always X regardless of which seat the creator took.
func (that *Coordinator) seatCreator(created *room.Room, connID, preferred string) string {
	if preferred == entity.PlayerO {
		created.SeatO = connID
		return entity.PlayerO
	}

	mark, _ := created.AssignSeat(connID) // both seats vacant, never fails
	return mark
}

func (that *Coordinator) handleJoinRoom(msg joinRoomMsg) {
	log := that.logger.With("method", "handleJoinRoom")

	existing, err := that.registry.GetByID(msg.roomID)
	if err != nil {
		that.send(msg.connID, JoinResult{OK: false, Reason: "room not found"})
		return
	}

	// recover seats left behind by ungraceful disconnects before assigning
	existing.ReconcileSeats(that.liveConns())

	mark, err := existing.AssignSeat(msg.connID)
	if err != nil {
		that.send(msg.connID, JoinResult{OK: false, Reason: "room is full"})
		return
	}

	if err = that.archive.RecordSeatAssigned(that.ctx, existing.ID, mark, mark); err != nil {
		log.Warn("failed to record seat assignment", "roomID", existing.ID, "error", err)
	}

	that.broadcast(existing)
	that.send(msg.connID, JoinResult{OK: true, Role: mark})

	log.Info("joined room", "roomID", existing.ID, "role", mark)
}

func (that *Coordinator) handleSubmitMove(msg submitMoveMsg) {
	log := that.logger.With("method", "handleSubmitMove")

	existing, err := that.registry.GetByID(msg.roomID)
	if err != nil {
		that.send(msg.connID, ActionError{Message: "room not found"})
		return
	}

	// the sender must hold the seat of the mark it claims to play
	if existing.SeatOf(msg.connID) != msg.mark {
		return
	}

	if err = existing.ApplyMove(msg.mark, msg.cell); err != nil {
		// rule-violating moves are silent no-ops toward game state
		return
	}

	that.persistMove(existing, msg.cell, msg.mark, log)
	that.broadcast(existing)
}

// persistMove - records the move and, when the move decided the game, the
// outcome. Outcome is only recorded after a successful move write so a
// concluded game never carries an orphaned outcome record.
func (that *Coordinator) persistMove(current *room.Room, cell int, mark string, log *slog.Logger) {
	if current.RecordID == "" {
		log.Warn("no archive record for room, skipping move record", "roomID", current.ID)
		return
	}

	if err := that.archive.RecordMove(that.ctx, current.RecordID, cell, mark); err != nil {
		log.Warn("failed to record move", "roomID", current.ID, "error", err)
		return
	}

	if !current.IsConcluded() {
		return
	}

	if err := that.archive.RecordOutcome(that.ctx, current.RecordID, current.Winner); err != nil {
		log.Warn("failed to record outcome", "roomID", current.ID, "error", err)
	}
}

// broadcast - sends a personalized snapshot to every seated, attached
// connection of the room.
func (that *Coordinator) broadcast(current *room.Room) {
	for _, connID := range []string{current.SeatX, current.SeatO} {
		if connID == "" {
			continue
		}

		that.send(connID, StateUpdate{
			RoomID: current.ID,
			Board:  current.Board,
			Next:   current.Turn,
			Winner: current.Winner,
			YouAre: current.SeatOf(connID),
		})
	}
}

// send - pushes to one connection's outbox. A connection that cannot keep up
// is dropped rather than allowed to stall the loop.
func (that *Coordinator) send(connID string, out Outbound) {
	outbox, ok := that.conns[connID]
	if !ok {
		return
	}

	select {
	case outbox <- out:
	default:
		that.logger.Warn("outbox full, dropping connection", "connID", connID)
		delete(that.conns, connID)
		close(outbox)
		that.registry.FreeSeatsHeldBy(connID)
	}
}

func (that *Coordinator) liveConns() map[string]struct{} {
	live := make(map[string]struct{}, len(that.conns))
	for connID := range that.conns {
		live[connID] = struct{}{}
	}

	return live
}

func (that *Coordinator) shutdown() {
	for connID, outbox := range that.conns {
		close(outbox)
		delete(that.conns, connID)
	}
}
