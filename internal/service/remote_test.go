package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteIdentityDirectory_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/alice":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"username":"alice","createdAt":"2024-01-01T00:00:00Z"}`))
		case "/users/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"user not found"}`))
		}
	}))
	t.Cleanup(server.Close)

	directory := NewRemoteIdentityDirectory(server.URL+"/", server.Client())

	t.Run("Found", func(t *testing.T) {
		user, err := directory.Lookup(context.Background(), "alice")

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := directory.Lookup(context.Background(), "bob")

		require.ErrorIs(t, err, apperror.ErrUserNotFound)
	})

	t.Run("Server error is transient", func(t *testing.T) {
		_, err := directory.Lookup(context.Background(), "broken")

		require.ErrorIs(t, err, apperror.ErrCollaboratorUnavailable)
	})
}

func TestRemoteIdentityDirectory_Timeout(t *testing.T) {
	// Given: a user service that never answers in time
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// When: looking up a user
	_, err := NewRemoteIdentityDirectory(server.URL, server.Client()).Lookup(ctx, "alice")

	// Then: the failure is reported as unavailable
	require.ErrorIs(t, err, apperror.ErrCollaboratorUnavailable)
}

func TestRemoteRuleValidator_Validate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var received map[string]any
		if r.URL.Path != "/move" || json.NewDecoder(r.Body).Decode(&received) != nil || received["expectedTurn"] != "X" {
			w.WriteHeader(http.StatusTeapot)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		switch received["position"] {
		case float64(4):
			_, _ = w.Write([]byte(`{"board":["","","","","X","","","",""],"nextTurnSymbol":"O","winner":null,"draw":false}`))
		case float64(0):
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"position already taken","reason":"PositionTaken"}`))
		case float64(2):
			_, _ = w.Write([]byte(`{"board":["Z","","","","","","","",""],"nextTurnSymbol":"X","winner":"O","draw":true}`))
		case float64(1):
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"something odd","reason":"Weird"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	validator := NewRemoteRuleValidator(server.URL, server.Client())
	room := entity.NewRoom("r1")

	t.Run("Accepted", func(t *testing.T) {
		outcome, err := validator.Validate(context.Background(), entity.NewMoveRequest(room, 4, entity.SymbolX))

		require.NoError(t, err)
		assert.Equal(t, entity.SymbolX, outcome.Board[4])
		assert.Equal(t, entity.SymbolO, outcome.NextTurn)
	})

	t.Run("Rejected with known reason", func(t *testing.T) {
		_, err := validator.Validate(context.Background(), entity.NewMoveRequest(room, 0, entity.SymbolX))

		require.ErrorIs(t, err, apperror.ErrPositionTaken)
	})

	t.Run("Inconsistent outcome", func(t *testing.T) {
		// When: the game service accepts with a state no room can hold
		outcome, err := validator.Validate(context.Background(), entity.NewMoveRequest(room, 2, entity.SymbolX))

		// Then: the outcome is discarded as a collaborator failure
		require.ErrorIs(t, err, apperror.ErrCollaboratorUnavailable)
		require.ErrorIs(t, err, entity.ErrInvalidOutcome)
		assert.Nil(t, outcome)
	})

	t.Run("Rejected with unknown reason", func(t *testing.T) {
		_, err := validator.Validate(context.Background(), entity.NewMoveRequest(room, 1, entity.SymbolX))

		require.ErrorIs(t, err, apperror.ErrCollaboratorUnavailable)
	})

	t.Run("Server failure", func(t *testing.T) {
		_, err := validator.Validate(context.Background(), entity.NewMoveRequest(room, 8, entity.SymbolX))

		require.ErrorIs(t, err, apperror.ErrCollaboratorUnavailable)
	})
}

func TestLocalRuleValidator_Validate(t *testing.T) {
	validator := NewLocalRuleValidator()
	room := entity.NewRoom("r1")

	t.Run("Delegates to the rules", func(t *testing.T) {
		outcome, err := validator.Validate(context.Background(), entity.NewMoveRequest(room, 4, entity.SymbolX))

		require.NoError(t, err)
		assert.Equal(t, entity.SymbolO, outcome.NextTurn)
	})

	t.Run("Expired context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := validator.Validate(ctx, entity.NewMoveRequest(room, 4, entity.SymbolX))

		require.ErrorIs(t, err, apperror.ErrCollaboratorUnavailable)
	})
}
