package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
	"golang.org/x/sync/errgroup"
)

type identityDirectory interface {
	Lookup(ctx context.Context, username string) (*entity.User, error)
}

type ruleValidator interface {
	Validate(ctx context.Context, request entity.MoveRequest) (*entity.MoveOutcome, error)
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo, closeStore, err := newUserRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	client := &http.Client{Timeout: conf.CollaboratorTimeout}

	var identity identityDirectory = service.NewLocalIdentityDirectory(userRepo)
	if conf.Identity.IsRemote() {
		identity = service.NewRemoteIdentityDirectory(conf.Identity.BaseURL, client)
	}

	var validator ruleValidator = service.NewLocalRuleValidator()
	if conf.Validator.IsRemote() {
		validator = service.NewRemoteRuleValidator(conf.Validator.BaseURL, client)
	}

	hub := broadcast.New(logger)
	rooms := usecase.NewRoomManager(logger, usecase.NewRoomRegistry(), identity, validator, hub, conf.CollaboratorTimeout)
	users := service.NewUserService(userRepo)

	router := rest.NewRouter(logger, conf.LogLevel == "debug", rooms, users, hub)
	wsServer := websocket.New(logger, rooms, hub, conf.Websocket)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(groupCtx, conf.HTTPPort, router); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(groupCtx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}
		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func newUserRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.UserRepository, func(), error) {
	if conf.UserStore == config.UserStoreMemory {
		log.Info("Using in-memory user store")
		return repository.NewMemoryUserRepository(), func() {}, nil
	}

	redisStorage, err := storage.New(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStore := func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewUserRepository(redisStorage), closeStore, nil
}
