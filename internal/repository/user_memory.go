package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type memoryUser struct {
	mu    sync.RWMutex
	users map[string]entity.User
}

// NewMemoryUserRepository - user store kept in process memory, used when redis is not configured.
func NewMemoryUserRepository() UserRepository {
	return &memoryUser{
		users: make(map[string]entity.User),
	}
}

func (that *memoryUser) Save(_ context.Context, user *entity.User) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.users[user.Username]; ok {
		return apperror.ErrUserAlreadyExists
	}

	that.users[user.Username] = *user

	return nil
}

func (that *memoryUser) Find(_ context.Context, username string) (*entity.User, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	user, ok := that.users[username]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}

	return &user, nil
}
