package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

type roomManager interface {
	CreateRoom(roomID string) string
	GetRoom(roomID string) (*entity.Room, error)
	RoomCount() int
}

type userService interface {
	Register(ctx context.Context, username string) (*entity.User, error)
	GetUser(ctx context.Context, username string) (*entity.User, error)
}

type connectionStats interface {
	Stats() (rooms, connections int)
}

type handlers struct {
	logger *slog.Logger

	rooms roomManager
	users userService
	stats connectionStats
}

// NewRouter - builds the HTTP API of the room, user and game services.
func NewRouter(logger *slog.Logger, debug bool, rooms roomManager, users userService, stats connectionStats) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	that := &handlers{
		logger: logger.With("component", "rest"),
		rooms:  rooms,
		users:  users,
		stats:  stats,
	}

	router := gin.New()
	router.Use(gin.Recovery(), that.requestLogger())

	router.GET("/ping", that.ping)
	router.GET("/health", that.health)
	router.GET("/stats", that.getStats)

	router.POST("/rooms", that.createRoom)
	router.GET("/rooms/:roomId", that.getRoom)

	router.POST("/register", that.register)
	router.POST("/login", that.login)
	router.GET("/users/:username", that.getUser)

	router.POST("/move", that.move)

	return router
}

func (that *handlers) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		that.logger.Debug("request served",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (that *handlers) ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (that *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (that *handlers) getStats(c *gin.Context) {
	groups, connections := that.stats.Stats()

	c.JSON(http.StatusOK, gin.H{
		"rooms":       that.rooms.RoomCount(),
		"groups":      groups,
		"connections": connections,
	})
}

type createRoomRequest struct {
	RoomID string `json:"roomId"`
}

func (that *handlers) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		that.fail(c, apperror.ErrInvalidRequest)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"roomId": that.rooms.CreateRoom(req.RoomID)})
}

func (that *handlers) getRoom(c *gin.Context) {
	room, err := that.rooms.GetRoom(c.Param("roomId"))
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, room.View())
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (that *handlers) register(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		that.fail(c, apperror.ErrInvalidRequest)
		return
	}

	user, err := that.users.Register(c.Request.Context(), req.Username)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (that *handlers) login(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		that.fail(c, apperror.ErrInvalidRequest)
		return
	}

	user, err := that.users.GetUser(c.Request.Context(), req.Username)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

func (that *handlers) getUser(c *gin.Context) {
	user, err := that.users.GetUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

type moveRequest struct {
	Board        []string        `json:"board"`
	Position     json.RawMessage `json:"position"`
	Symbol       string          `json:"symbol"`
	ExpectedTurn *string         `json:"expectedTurn"`
}

// move - stateless rule check, the counterpart of the remote rule validator.
func (that *handlers) move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		that.fail(c, apperror.ErrInvalidRequest)
		return
	}

	// non-integer positions are reported by the validator in its own order
	outcome, err := tictactoe.ApplyMove(entity.MoveRequest{
		Board:        req.Board,
		Position:     entity.ParsePosition(req.Position),
		Symbol:       req.Symbol,
		ExpectedTurn: entity.SymbolValue(req.ExpectedTurn),
	})
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func (that *handlers) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		that.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, gin.H{"error": err.Error(), "reason": apperror.Reason(err)})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrUserNotFound), errors.Is(err, apperror.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrCollaboratorUnavailable):
		return http.StatusServiceUnavailable
	case apperror.IsRejection(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
