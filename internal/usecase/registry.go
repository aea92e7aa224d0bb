package usecase

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

// RoomRegistry - process-wide table of live rooms, created empty at start.
type RoomRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*RoomSession

	generateID func() string
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		sessions:   make(map[string]*RoomSession),
		generateID: pkg.GenerateRoomID,
	}
}

// CreateOrGet - returns the session for roomID, creating it when unknown.
// An empty roomID gets a freshly generated identifier.
func (that *RoomRegistry) CreateOrGet(roomID string) *RoomSession {
	if roomID != "" {
		that.mu.RLock()
		session, ok := that.sessions[roomID]
		that.mu.RUnlock()

		if ok {
			return session
		}
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if roomID == "" {
		roomID = that.generateID()
		for that.sessions[roomID] != nil {
			roomID = that.generateID()
		}
	}

	if session, ok := that.sessions[roomID]; ok {
		return session
	}

	session := newRoomSession(roomID)
	that.sessions[roomID] = session

	return session
}

func (that *RoomRegistry) Get(roomID string) (*RoomSession, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[roomID]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return session, nil
}

func (that *RoomRegistry) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions)
}
