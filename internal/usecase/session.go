package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// RoomSession - owner of a single room. Every read-validate-write of the room
// runs under mu so events leave in commit order.
type RoomSession struct {
	id string

	mu   sync.Mutex
	room *entity.Room
}

func newRoomSession(roomID string) *RoomSession {
	return &RoomSession{
		id:   roomID,
		room: entity.NewRoom(roomID),
	}
}

func (that *RoomSession) ID() string {
	return that.id
}

func (that *RoomSession) Snapshot() *entity.Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.room.Snapshot()
}

// join - adds username to the room and attaches conn to its broadcast group.
// A member joining again keeps its slot and symbol.
func (that *RoomSession) join(username string, conn entity.Connection, hub broadcaster) (*entity.RoomJoined, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room := that.room

	if !room.HasPlayer(username) {
		if room.IsFull() {
			return nil, apperror.ErrRoomFull
		}

		room.AddPlayer(username)

		// the joiner is not attached yet and learns its symbol from the ack
		if room.AssignSymbols() {
			hub.Broadcast(room.ID, entity.NewGameStart(room))
		}
	}

	ack := &entity.RoomJoined{
		Username: username,
		Symbol:   entity.SymbolPtr(room.SymbolOf(username)),
		Room:     room.View(),
	}

	if conn != nil {
		hub.Attach(room.ID, conn)
		// a connection that cannot take the ack is dropped by the hub, the membership stays
		_ = hub.Send(conn, ack)
	}

	hub.Broadcast(room.ID, entity.NewPlayerJoined(room))

	return ack, nil
}

// move - validates and applies a move by username. The room is untouched on any error.
func (that *RoomSession) move(
	ctx context.Context, position int, username string, validator ruleValidator, hub broadcaster, timeout time.Duration,
) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room := that.room

	if !room.HasPlayer(username) {
		return nil, apperror.ErrPlayerNotInRoom
	}

	symbol := room.SymbolOf(username)
	if symbol == entity.NoSymbol {
		return nil, apperror.ErrSymbolNotAssigned
	}

	validateCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome, err := validator.Validate(validateCtx, entity.NewMoveRequest(room, position, symbol))
	if err != nil {
		return nil, err
	}

	if err = outcome.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrCollaboratorUnavailable, err)
	}

	room.Apply(outcome)

	hub.Broadcast(room.ID, entity.NewStateUpdate(room))

	if room.IsFinished() {
		hub.Broadcast(room.ID, entity.NewGameOver(room))
	}

	return room.Snapshot(), nil
}
