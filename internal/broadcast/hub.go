package broadcast

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Hub - per-room fan-out of events to attached connections.
// A connection belongs to at most one room group at a time.
type Hub struct {
	logger *slog.Logger

	mu     sync.RWMutex
	groups map[string]map[string]entity.Connection
	rooms  map[string]string
}

func New(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "broadcast"),
		groups: make(map[string]map[string]entity.Connection),
		rooms:  make(map[string]string),
	}
}

// Attach - adds conn to the room group, moving it out of any previous group.
func (that *Hub) Attach(roomID string, conn entity.Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if previous, ok := that.rooms[conn.ID()]; ok {
		if previous == roomID {
			return
		}
		that.removeLocked(previous, conn.ID())
	}

	group, ok := that.groups[roomID]
	if !ok {
		group = make(map[string]entity.Connection)
		that.groups[roomID] = group
	}

	group[conn.ID()] = conn
	that.rooms[conn.ID()] = roomID

	that.logger.Debug("connection attached", "roomID", roomID, "connID", conn.ID(), "connections", len(group))
}

// Detach - removes conn from its group. Room membership is not touched.
func (that *Hub) Detach(conn entity.Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, ok := that.rooms[conn.ID()]
	if !ok {
		return
	}

	that.removeLocked(roomID, conn.ID())

	that.logger.Debug("connection detached", "roomID", roomID, "connID", conn.ID())
}

func (that *Hub) removeLocked(roomID, connID string) {
	delete(that.rooms, connID)

	group, ok := that.groups[roomID]
	if !ok {
		return
	}

	delete(group, connID)
	if len(group) == 0 {
		delete(that.groups, roomID)
	}
}

// Broadcast - enqueues event on every connection of the room group without blocking.
// Connections that cannot take the event are detached and closed.
func (that *Hub) Broadcast(roomID string, event entity.Event) {
	log := that.logger.With("method", "Broadcast", "roomID", roomID, "event", event.EventName())

	data, err := entity.Encode(event)
	if err != nil {
		log.Error("failed to encode event", "error", err)
		return
	}

	var stale []entity.Connection

	that.mu.RLock()
	for _, conn := range that.groups[roomID] {
		if err = conn.Send(data); err != nil {
			stale = append(stale, conn)
		}
	}
	that.mu.RUnlock()

	for _, conn := range stale {
		that.drop(log, conn)
	}
}

// Send - delivers event to a single connection. A connection that cannot take it
// is detached and closed like in Broadcast.
func (that *Hub) Send(conn entity.Connection, event entity.Event) error {
	data, err := entity.Encode(event)
	if err != nil {
		return err
	}

	if err = conn.Send(data); err != nil {
		that.drop(that.logger.With("method", "Send", "event", event.EventName()), conn)
		return fmt.Errorf("failed to send %s to %s: %w", event.EventName(), conn.ID(), err)
	}

	return nil
}

func (that *Hub) drop(log *slog.Logger, conn entity.Connection) {
	log.Warn("dropping slow connection", "connID", conn.ID())

	that.Detach(conn)
	if err := conn.Close(); err != nil {
		log.Debug("failed to close connection", "connID", conn.ID(), "error", err)
	}
}

func (that *Hub) Stats() (rooms, connections int) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.groups), len(that.rooms)
}
