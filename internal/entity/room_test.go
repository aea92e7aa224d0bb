package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoom(t *testing.T) {
	// Given: a new room
	room := NewRoom("abc")

	// Then: it is empty and X moves first
	assert.Equal(t, "abc", room.ID)
	assert.Empty(t, room.Players)
	assert.Empty(t, room.Symbols)
	assert.Equal(t, [BoardSize]string{}, room.Board)
	assert.Equal(t, SymbolX, room.NextTurn)
	assert.False(t, room.IsFinished())
}

func TestRoom_AssignSymbols(t *testing.T) {
	t.Run("Not assigned with one player", func(t *testing.T) {
		// Given: a room with one member
		room := NewRoom("abc")
		room.AddPlayer("alice")

		// When: assigning symbols
		assigned := room.AssignSymbols()

		// Then: nothing happens
		assert.False(t, assigned)
		assert.Empty(t, room.Symbols)
	})

	t.Run("First member gets X", func(t *testing.T) {
		// Given: a full room
		room := NewRoom("abc")
		room.AddPlayer("alice")
		room.AddPlayer("bob")

		// When: assigning symbols
		assigned := room.AssignSymbols()

		// Then: the first joiner is X and the second is O
		require.True(t, assigned)
		assert.Equal(t, SymbolX, room.SymbolOf("alice"))
		assert.Equal(t, SymbolO, room.SymbolOf("bob"))
		assert.True(t, room.IsFull())
	})

	t.Run("Assignment is immutable", func(t *testing.T) {
		// Given: a room with symbols already assigned
		room := NewRoom("abc")
		room.AddPlayer("alice")
		room.AddPlayer("bob")
		require.True(t, room.AssignSymbols())

		// When: assigning again
		assigned := room.AssignSymbols()

		// Then: the existing assignment is kept
		assert.False(t, assigned)
		assert.Equal(t, map[string]string{"alice": SymbolX, "bob": SymbolO}, room.Symbols)
	})
}

func TestRoom_Snapshot(t *testing.T) {
	// Given: a room with state
	room := NewRoom("abc")
	room.AddPlayer("alice")
	room.AddPlayer("bob")
	room.AssignSymbols()

	// When: the snapshot is mutated
	snapshot := room.Snapshot()
	snapshot.Players[0] = "mallory"
	snapshot.Symbols["mallory"] = SymbolX
	snapshot.Board[0] = SymbolO

	// Then: the room is untouched
	assert.Equal(t, []string{"alice", "bob"}, room.Players)
	assert.NotContains(t, room.Symbols, "mallory")
	assert.Equal(t, EmptyCell, room.Board[0])
}

func TestRoom_Apply(t *testing.T) {
	// Given: a room and a winning outcome
	room := NewRoom("abc")
	outcome := &MoveOutcome{
		Board:  [BoardSize]string{SymbolX, SymbolX, SymbolX, SymbolO, SymbolO, "", "", "", ""},
		Winner: SymbolX,
	}

	// When: the outcome is applied
	room.Apply(outcome)

	// Then: the room is finished
	assert.True(t, room.IsFinished())
	assert.Equal(t, NoSymbol, room.NextTurn)
	assert.Equal(t, outcome.Board, room.Board)
}

func TestRoom_View(t *testing.T) {
	// Given: a fresh room
	room := NewRoom("abc")

	// When: the view is encoded
	data, err := json.Marshal(room.View())
	require.NoError(t, err)

	// Then: absent winner is null and next turn is X
	assert.JSONEq(t, `{
		"roomId": "abc",
		"players": [],
		"symbols": {},
		"board": ["","","","","","","","",""],
		"nextTurnSymbol": "X",
		"winner": null,
		"draw": false
	}`, string(data))
}

func TestOpponent(t *testing.T) {
	assert.Equal(t, SymbolO, Opponent(SymbolX))
	assert.Equal(t, SymbolX, Opponent(SymbolO))
}
