package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type roomManager interface {
	JoinRoom(ctx context.Context, roomID, username string, conn entity.Connection) (*entity.RoomJoined, error)
	MakeMove(ctx context.Context, roomID string, position int, username string) (*entity.Room, error)
}

type connectionHub interface {
	Detach(conn entity.Connection)
	Send(conn entity.Connection, event entity.Event) error
}

type Server struct {
	logger *slog.Logger
	rooms  roomManager
	hub    connectionHub
	conf   config.Websocket

	upgrader websocket.Upgrader

	handlers map[string]func(ctx context.Context, message *entity.Envelope, conn *Conn) error
}

func New(logger *slog.Logger, rooms roomManager, hub connectionHub, conf config.Websocket) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		rooms:  rooms,
		hub:    hub,
		conf:   conf,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers: make(map[string]func(context.Context, *entity.Envelope, *Conn) error),
	}

	server.handlers[entity.ActionJoinRoom] = server.handleJoinRoom
	server.handlers[entity.ActionMove] = server.handleMove

	return server
}

// Handler - serves the socket endpoint. Connections are closed once ctx is done.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(ctx),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	}
}

// upgradeToWebSocket - upgrades the connection and runs its pumps until the client leaves.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	conn := newConn(ws, that.conf, that.logger)
	log = log.With("connID", conn.ID())
	log.Info("WebSocket connection established")

	go conn.writePump()
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-conn.done:
		}
	}()

	conn.readPump(func(data []byte) {
		that.handleMessage(ctx, conn, data)
	})

	// membership stays with the room, only the socket leaves its group
	that.hub.Detach(conn)
	_ = conn.Close()

	log.Info("WebSocket connection closed")
}
