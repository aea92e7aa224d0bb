package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const userKeyPrefix = "user:"

type UserRepository interface {
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, username string) (*entity.User, error)
}

type dbUser struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) UserRepository {
	return &dbUser{
		client: client,
	}
}

// Save - stores a new user, usernames are unique.
func (that *dbUser) Save(ctx context.Context, user *entity.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	created, err := that.client.SetNX(ctx, userKeyPrefix+user.Username, userJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set user: %w", err)
	}

	if !created {
		return apperror.ErrUserAlreadyExists
	}

	return nil
}

func (that *dbUser) Find(ctx context.Context, username string) (*entity.User, error) {
	response, err := that.client.Get(ctx, userKeyPrefix+username).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	var existingUser entity.User
	if err = json.Unmarshal([]byte(response), &existingUser); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &existingUser, nil
}
