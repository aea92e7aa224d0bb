package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConf = config.Websocket{
	SendBuffer:     16,
	WriteWait:      time.Second,
	PongWait:       time.Minute,
	MaxMessageSize: 4096,
}

type testServer struct {
	url    string
	hub    *broadcast.Hub
	cancel context.CancelFunc
}

func newTestServer(t *testing.T, usernames ...string) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	userRepo := repository.NewMemoryUserRepository()
	users := service.NewUserService(userRepo)
	for _, username := range usernames {
		_, err := users.Register(ctx, username)
		require.NoError(t, err)
	}

	hub := broadcast.New(logger)
	rooms := usecase.NewRoomManager(logger, usecase.NewRoomRegistry(),
		service.NewLocalIdentityDirectory(userRepo), service.NewLocalRuleValidator(), hub, time.Second)

	srv := httptest.NewServer(New(logger, rooms, hub, testConf).Handler(ctx))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return &testServer{
		url:    "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		hub:    hub,
		cancel: cancel,
	}
}

func (that *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	ws, resp, err := websocket.DefaultDialer.Dial(that.url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { ws.Close() })

	return ws
}

func send(t *testing.T, ws *websocket.Conn, action string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(entity.Envelope{Action: action, Payload: data}))
}

// expect - reads the next envelope, checks its action and decodes the payload into v.
func expect(t *testing.T, ws *websocket.Conn, action string, v any) {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	var envelope entity.Envelope
	require.NoError(t, ws.ReadJSON(&envelope))
	require.Equal(t, action, envelope.Action, "payload: %s", envelope.Payload)

	if v != nil {
		require.NoError(t, json.Unmarshal(envelope.Payload, v))
	}
}

func TestServer_Game(t *testing.T) {
	// Given: two registered players connected to the server
	server := newTestServer(t, "alice", "bob")
	alice := server.dial(t)
	bob := server.dial(t)

	// When: alice joins first
	send(t, alice, entity.ActionJoinRoom, JoinPayload{RoomID: "r1", Username: "alice"})

	// Then: alice gets her acknowledgement without a symbol and the membership broadcast
	var ack entity.RoomJoined
	expect(t, alice, entity.EventRoomJoined, &ack)
	assert.Equal(t, "alice", ack.Username)
	assert.Nil(t, ack.Symbol)
	expect(t, alice, entity.EventPlayerJoined, nil)

	// When: bob completes the room
	send(t, bob, entity.ActionJoinRoom, JoinPayload{RoomID: "r1", Username: "bob"})

	// Then: alice sees the game start before the new membership
	var start entity.GameStart
	expect(t, alice, entity.EventGameStart, &start)
	assert.Equal(t, map[string]string{"alice": entity.SymbolX, "bob": entity.SymbolO}, start.Symbols)
	var joined entity.PlayerJoined
	expect(t, alice, entity.EventPlayerJoined, &joined)
	assert.Equal(t, []string{"alice", "bob"}, joined.Players)

	// And: bob learns his symbol from the acknowledgement
	expect(t, bob, entity.EventRoomJoined, &ack)
	require.NotNil(t, ack.Symbol)
	assert.Equal(t, entity.SymbolO, *ack.Symbol)
	expect(t, bob, entity.EventPlayerJoined, nil)

	// When: alice plays the center
	send(t, alice, entity.ActionMove, map[string]any{"roomId": "r1", "position": 4, "player": "alice"})

	// Then: both receive the new board
	for _, ws := range []*websocket.Conn{alice, bob} {
		var update entity.StateUpdate
		expect(t, ws, entity.EventStateUpdate, &update)
		assert.Equal(t, entity.SymbolX, update.Board[4])
		require.NotNil(t, update.NextTurnSymbol)
		assert.Equal(t, entity.SymbolO, *update.NextTurnSymbol)
	}

	// When: bob plays the same cell
	send(t, bob, entity.ActionMove, map[string]any{"roomId": "r1", "position": 4, "player": "bob"})

	// Then: only bob is told why
	var rejection entity.ErrorEvent
	expect(t, bob, entity.EventError, &rejection)
	assert.Equal(t, entity.ActionMove, rejection.Action)
	assert.Equal(t, "PositionTaken", rejection.Reason)

	// And: alice's next message is the following accepted move
	send(t, bob, entity.ActionMove, map[string]any{"roomId": "r1", "position": 0, "player": "bob"})
	expect(t, alice, entity.EventStateUpdate, nil)
	expect(t, bob, entity.EventStateUpdate, nil)
}

func TestServer_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantAction string
		wantReason string
	}{
		{
			name:       "malformed envelope",
			raw:        `{"action":`,
			wantReason: "InvalidRequest",
		},
		{
			name:       "unknown action",
			raw:        `{"action":"dance","payload":{}}`,
			wantAction: "dance",
			wantReason: "InvalidRequest",
		},
		{
			name:       "join without username",
			raw:        `{"action":"join_room","payload":{"roomId":"r1"}}`,
			wantAction: entity.ActionJoinRoom,
			wantReason: "InvalidRequest",
		},
		{
			name:       "join as unknown user",
			raw:        `{"action":"join_room","payload":{"roomId":"r1","username":"mallory"}}`,
			wantAction: entity.ActionJoinRoom,
			wantReason: "UserNotFound",
		},
		{
			name:       "move without position",
			raw:        `{"action":"move","payload":{"roomId":"r1","player":"alice"}}`,
			wantAction: entity.ActionMove,
			wantReason: "InvalidRequest",
		},
		{
			name:       "move in unknown room",
			raw:        `{"action":"move","payload":{"roomId":"nope","position":1,"player":"alice"}}`,
			wantAction: entity.ActionMove,
			wantReason: "RoomNotFound",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, "alice")
			ws := server.dial(t)

			require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(tt.raw)))

			var rejection entity.ErrorEvent
			expect(t, ws, entity.EventError, &rejection)
			assert.Equal(t, tt.wantAction, rejection.Action)
			assert.Equal(t, tt.wantReason, rejection.Reason)
			assert.NotEmpty(t, rejection.Error)
		})
	}
}

func TestServer_NonIntegerPosition(t *testing.T) {
	// Given: a started game
	server := newTestServer(t, "alice", "bob")
	alice := server.dial(t)
	send(t, alice, entity.ActionJoinRoom, JoinPayload{RoomID: "r1", Username: "alice"})
	expect(t, alice, entity.EventRoomJoined, nil)
	expect(t, alice, entity.EventPlayerJoined, nil)

	bob := server.dial(t)
	send(t, bob, entity.ActionJoinRoom, JoinPayload{RoomID: "r1", Username: "bob"})
	expect(t, bob, entity.EventRoomJoined, nil)

	expect(t, alice, entity.EventGameStart, nil)
	expect(t, alice, entity.EventPlayerJoined, nil)

	for _, position := range []string{`2.5`, `"4"`} {
		// When: alice sends a position that is not a bare integer
		require.NoError(t, alice.WriteMessage(websocket.TextMessage,
			[]byte(`{"action":"move","payload":{"roomId":"r1","position":`+position+`,"player":"alice"}}`)))

		// Then: it is rejected as an invalid position
		var rejection entity.ErrorEvent
		expect(t, alice, entity.EventError, &rejection)
		assert.Equal(t, "InvalidPosition", rejection.Reason, "position %s", position)
	}

	// And: the board is still empty, so alice can take the center
	send(t, alice, entity.ActionMove, map[string]any{"roomId": "r1", "position": 4, "player": "alice"})
	var update entity.StateUpdate
	expect(t, alice, entity.EventStateUpdate, &update)
	assert.Equal(t, [9]string{"", "", "", "", "X", "", "", "", ""}, update.Board)
}

func TestServer_Disconnect(t *testing.T) {
	// Given: a player attached to a room
	server := newTestServer(t, "alice")
	ws := server.dial(t)
	send(t, ws, entity.ActionJoinRoom, JoinPayload{RoomID: "r1", Username: "alice"})
	expect(t, ws, entity.EventRoomJoined, nil)

	_, connections := server.hub.Stats()
	require.Equal(t, 1, connections)

	// When: the client goes away
	require.NoError(t, ws.Close())

	// Then: its connection leaves the group
	require.Eventually(t, func() bool {
		_, connections := server.hub.Stats()
		return connections == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_Shutdown(t *testing.T) {
	// Given: a connected client
	server := newTestServer(t, "alice")
	ws := server.dial(t)
	send(t, ws, entity.ActionJoinRoom, JoinPayload{RoomID: "r1", Username: "alice"})
	expect(t, ws, entity.EventRoomJoined, nil)
	expect(t, ws, entity.EventPlayerJoined, nil)

	// When: the server context is canceled
	server.cancel()

	// Then: the client receives a normal close
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestConn_Send(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conn := newConn(nil, config.Websocket{SendBuffer: 1}, logger)

	require.NoError(t, conn.Send([]byte("first")))
	require.ErrorIs(t, conn.Send([]byte("second")), ErrSendBufferFull)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	require.ErrorIs(t, conn.Send([]byte("third")), ErrConnClosed)
}
