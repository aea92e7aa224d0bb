package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type UserService interface {
	Register(ctx context.Context, username string) (*entity.User, error)
	GetUser(ctx context.Context, username string) (*entity.User, error)
}

type userRepo interface {
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, username string) (*entity.User, error)
}

type userService struct {
	userRepo userRepo
}

func NewUserService(userRepo userRepo) UserService {
	return &userService{
		userRepo: userRepo,
	}
}

func (that *userService) Register(ctx context.Context, username string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username required", apperror.ErrInvalidRequest)
	}

	user := &entity.User{
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}

	if err := that.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("could not save user: %w", err)
	}

	return user, nil
}

func (that *userService) GetUser(ctx context.Context, username string) (*entity.User, error) {
	user, err := that.userRepo.Find(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("could not get user %q: %w", username, err)
	}

	return user, nil
}
