package entity

import (
	"encoding/json"
	"fmt"
)

// inbound actions.
const (
	ActionJoinRoom = "join_room"
	ActionMove     = "move"
)

// outbound events.
const (
	EventPlayerJoined = "player_joined"
	EventGameStart    = "game_start"
	EventStateUpdate  = "state_update"
	EventGameOver     = "game_over"
	EventRoomJoined   = "room_joined"
	EventError        = "error"
)

// Event - server-to-client message. The set of implementations is closed.
type Event interface {
	EventName() string
}

type PlayerJoined struct {
	RoomID  string   `json:"roomId"`
	Players []string `json:"players"`
}

type GameStart struct {
	RoomID         string            `json:"roomId"`
	Players        []string          `json:"players"`
	Symbols        map[string]string `json:"symbols"`
	NextTurnSymbol *string           `json:"nextTurnSymbol"`
}

type StateUpdate struct {
	RoomID         string            `json:"roomId"`
	Board          [BoardSize]string `json:"board"`
	NextTurnSymbol *string           `json:"nextTurnSymbol"`
	Winner         *string           `json:"winner"`
	Draw           bool              `json:"draw"`
}

type GameOver struct {
	RoomID string  `json:"roomId"`
	Winner *string `json:"winner"`
	Draw   bool    `json:"draw"`
}

// RoomJoined - acknowledgement sent only to the joining connection.
type RoomJoined struct {
	Username string   `json:"username"`
	Symbol   *string  `json:"symbol"`
	Room     RoomView `json:"room"`
}

type ErrorEvent struct {
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func (PlayerJoined) EventName() string { return EventPlayerJoined }
func (GameStart) EventName() string    { return EventGameStart }
func (StateUpdate) EventName() string  { return EventStateUpdate }
func (GameOver) EventName() string     { return EventGameOver }
func (RoomJoined) EventName() string   { return EventRoomJoined }
func (ErrorEvent) EventName() string   { return EventError }

func NewPlayerJoined(room *Room) PlayerJoined {
	snapshot := room.Snapshot()

	return PlayerJoined{RoomID: snapshot.ID, Players: snapshot.Players}
}

func NewGameStart(room *Room) GameStart {
	snapshot := room.Snapshot()

	return GameStart{
		RoomID:         snapshot.ID,
		Players:        snapshot.Players,
		Symbols:        snapshot.Symbols,
		NextTurnSymbol: SymbolPtr(snapshot.NextTurn),
	}
}

func NewStateUpdate(room *Room) StateUpdate {
	return StateUpdate{
		RoomID:         room.ID,
		Board:          room.Board,
		NextTurnSymbol: SymbolPtr(room.NextTurn),
		Winner:         SymbolPtr(room.Winner),
		Draw:           room.Draw,
	}
}

func NewGameOver(room *Room) GameOver {
	return GameOver{
		RoomID: room.ID,
		Winner: SymbolPtr(room.Winner),
		Draw:   room.Draw,
	}
}

// Envelope - frame exchanged over the socket in both directions.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Encode - wraps event into an envelope and marshals it.
func Encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.EventName(), err)
	}

	data, err := json.Marshal(Envelope{Action: event.EventName(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	return data, nil
}
