package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type identityDirectory interface {
	Lookup(ctx context.Context, username string) (*entity.User, error)
}

type ruleValidator interface {
	Validate(ctx context.Context, request entity.MoveRequest) (*entity.MoveOutcome, error)
}

type broadcaster interface {
	Attach(roomID string, conn entity.Connection)
	Broadcast(roomID string, event entity.Event)
	Send(conn entity.Connection, event entity.Event) error
}

// RoomManager - runs the join and move protocols on top of the registry.
type RoomManager struct {
	logger *slog.Logger

	registry  *RoomRegistry
	identity  identityDirectory
	validator ruleValidator
	hub       broadcaster

	timeout time.Duration
}

func NewRoomManager(
	logger *slog.Logger,
	registry *RoomRegistry,
	identity identityDirectory,
	validator ruleValidator,
	hub broadcaster,
	timeout time.Duration,
) *RoomManager {
	return &RoomManager{
		logger: logger.With("component", "room_manager"),

		registry:  registry,
		identity:  identity,
		validator: validator,
		hub:       hub,

		timeout: timeout,
	}
}

// CreateRoom - returns the identifier of the room in use, generating one when roomID is empty.
func (that *RoomManager) CreateRoom(roomID string) string {
	session := that.registry.CreateOrGet(roomID)

	that.logger.Debug("room ready", "method", "CreateRoom", "roomID", session.ID())

	return session.ID()
}

func (that *RoomManager) GetRoom(roomID string) (*entity.Room, error) {
	session, err := that.registry.Get(roomID)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}

	return session.Snapshot(), nil
}

func (that *RoomManager) RoomCount() int {
	return that.registry.Count()
}

// JoinRoom - adds username to the room, creating the room when it does not exist,
// and attaches conn to the room's broadcast group.
func (that *RoomManager) JoinRoom(ctx context.Context, roomID, username string, conn entity.Connection) (*entity.RoomJoined, error) {
	log := that.logger.With("method", "JoinRoom", "roomID", roomID, "username", username)

	if roomID == "" || username == "" {
		return nil, fmt.Errorf("%w: roomId and username required", apperror.ErrInvalidRequest)
	}

	session := that.registry.CreateOrGet(roomID)

	if err := that.lookup(ctx, username); err != nil {
		that.logFailure(log, "identity lookup failed", err)
		return nil, err
	}

	ack, err := session.join(username, conn, that.hub)
	if err != nil {
		that.logFailure(log, "failed to join room", err)
		return nil, err
	}

	log.Info("player joined room", "players", ack.Room.Players)

	return ack, nil
}

// MakeMove - applies a move of username at position and broadcasts the new state.
func (that *RoomManager) MakeMove(ctx context.Context, roomID string, position int, username string) (*entity.Room, error) {
	log := that.logger.With("method", "MakeMove", "roomID", roomID, "username", username, "position", position)

	session, err := that.registry.Get(roomID)
	if err != nil {
		log.Warn("move rejected", "error", err)
		return nil, err
	}

	room, err := session.move(ctx, position, username, that.validator, that.hub, that.timeout)
	if err != nil {
		err = classify(err)
		that.logFailure(log, "move rejected", err)
		return nil, err
	}

	log.Info("move applied", "nextTurn", room.NextTurn, "winner", room.Winner, "draw", room.Draw)

	return room, nil
}

func (that *RoomManager) lookup(ctx context.Context, username string) error {
	lookupCtx, cancel := context.WithTimeout(ctx, that.timeout)
	defer cancel()

	_, err := that.identity.Lookup(lookupCtx, username)
	if err == nil {
		return nil
	}

	return classify(err)
}

// classify - keeps known rejections and turns anything else caused by an expired call into Unavailable.
func classify(err error) error {
	if apperror.IsRejection(err) || errors.Is(err, apperror.ErrCollaboratorUnavailable) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", apperror.ErrCollaboratorUnavailable, err)
	}

	return err
}

func (that *RoomManager) logFailure(log *slog.Logger, msg string, err error) {
	if apperror.IsRejection(err) {
		log.Warn(msg, "reason", apperror.Reason(err), "error", err)
		return
	}

	log.Error(msg, "reason", apperror.Reason(err), "error", err)
}
