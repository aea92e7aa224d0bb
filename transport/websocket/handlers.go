package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type JoinPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type MovePayload struct {
	RoomID   string          `json:"roomId"`
	Position json.RawMessage `json:"position"`
	Player   string          `json:"player"`
}

func (that *MovePayload) hasPosition() bool {
	return len(that.Position) != 0 && string(that.Position) != "null"
}

// handleMessage - decodes an envelope and dispatches it. Failures are reported to conn only.
func (that *Server) handleMessage(ctx context.Context, conn *Conn, data []byte) {
	log := that.logger.With("method", "handleMessage", "connID", conn.ID())

	var message entity.Envelope
	if err := json.Unmarshal(data, &message); err != nil {
		log.Warn("failed to unmarshal message", "error", err)
		that.sendError(conn, "", fmt.Errorf("%w: malformed message", apperror.ErrInvalidRequest))
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action", "action", message.Action)
		that.sendError(conn, message.Action, fmt.Errorf("%w: unknown action %q", apperror.ErrInvalidRequest, message.Action))
		return
	}

	if err := handler(ctx, &message, conn); err != nil {
		that.sendError(conn, message.Action, err)
	}
}

func (that *Server) handleJoinRoom(ctx context.Context, msg *entity.Envelope, conn *Conn) error {
	var payload JoinPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: failed to unmarshal payload", apperror.ErrInvalidRequest)
	}

	// the acknowledgement and the broadcasts are sent by the room itself
	if _, err := that.rooms.JoinRoom(ctx, payload.RoomID, payload.Username, conn); err != nil {
		return err
	}

	return nil
}

func (that *Server) handleMove(ctx context.Context, msg *entity.Envelope, conn *Conn) error {
	var payload MovePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: failed to unmarshal payload", apperror.ErrInvalidRequest)
	}

	if payload.RoomID == "" || payload.Player == "" {
		return fmt.Errorf("%w: roomId and player required", apperror.ErrInvalidRequest)
	}

	if !payload.hasPosition() {
		return fmt.Errorf("%w: position required", apperror.ErrInvalidRequest)
	}

	if _, err := that.rooms.MakeMove(ctx, payload.RoomID, entity.ParsePosition(payload.Position), payload.Player); err != nil {
		return err
	}

	return nil
}

func (that *Server) sendError(conn *Conn, action string, err error) {
	event := entity.ErrorEvent{
		Action: action,
		Error:  err.Error(),
		Reason: apperror.Reason(err),
	}

	if sendErr := that.hub.Send(conn, event); sendErr != nil {
		that.logger.Debug("failed to send error", "connID", conn.ID(), "error", sendErr)
	}
}
