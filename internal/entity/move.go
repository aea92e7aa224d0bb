package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidOutcome = errors.New("invalid move outcome")

// MoveRequest - input of the rule validator. Board stays a slice because
// requests from the network may carry any number of cells.
type MoveRequest struct {
	Board        []string
	Position     int
	Symbol       string
	ExpectedTurn string
}

type moveRequestJSON struct {
	Board        []string `json:"board"`
	Position     int      `json:"position"`
	Symbol       string   `json:"symbol"`
	ExpectedTurn *string  `json:"expectedTurn"`
}

func NewMoveRequest(room *Room, position int, symbol string) MoveRequest {
	board := make([]string, BoardSize)
	copy(board, room.Board[:])

	return MoveRequest{
		Board:        board,
		Position:     position,
		Symbol:       symbol,
		ExpectedTurn: room.NextTurn,
	}
}

// ParsePosition - reads a position from a raw JSON value. Anything but a bare
// non-negative integer, quoted numbers included, yields -1.
func ParsePosition(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return -1
	}

	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return -1
	}

	value, err := number.Int64()
	if err != nil || value < 0 {
		return -1
	}

	return int(value)
}

func (that MoveRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(moveRequestJSON{
		Board:        that.Board,
		Position:     that.Position,
		Symbol:       that.Symbol,
		ExpectedTurn: SymbolPtr(that.ExpectedTurn),
	})
}

// MoveOutcome - result of an accepted move.
type MoveOutcome struct {
	Board    [BoardSize]string
	NextTurn string
	Winner   string
	Draw     bool
}

type moveOutcomeJSON struct {
	Board          []string `json:"board"`
	NextTurnSymbol *string  `json:"nextTurnSymbol"`
	Winner         *string  `json:"winner"`
	Draw           bool     `json:"draw"`
}

func (that MoveOutcome) IsTerminal() bool {
	return that.Winner != NoSymbol || that.Draw
}

func (that MoveOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(moveOutcomeJSON{
		Board:          that.Board[:],
		NextTurnSymbol: SymbolPtr(that.NextTurn),
		Winner:         SymbolPtr(that.Winner),
		Draw:           that.Draw,
	})
}

func (that *MoveOutcome) UnmarshalJSON(data []byte) error {
	var raw moveOutcomeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal move outcome: %w", err)
	}

	if len(raw.Board) != BoardSize {
		return fmt.Errorf("%w: board has %d cells", ErrInvalidOutcome, len(raw.Board))
	}

	var outcome MoveOutcome
	copy(outcome.Board[:], raw.Board)
	outcome.NextTurn = SymbolValue(raw.NextTurnSymbol)
	outcome.Winner = SymbolValue(raw.Winner)
	outcome.Draw = raw.Draw

	if err := outcome.Validate(); err != nil {
		return err
	}

	*that = outcome

	return nil
}

// Validate - checks the outcome can be applied to a room as is.
func (that MoveOutcome) Validate() error {
	for i, cell := range that.Board {
		if cell != EmptyCell && cell != SymbolX && cell != SymbolO {
			return fmt.Errorf("%w: cell %d holds %q", ErrInvalidOutcome, i, cell)
		}
	}

	if that.NextTurn != NoSymbol && that.NextTurn != SymbolX && that.NextTurn != SymbolO {
		return fmt.Errorf("%w: next turn %q", ErrInvalidOutcome, that.NextTurn)
	}

	if that.Winner != NoSymbol && that.Winner != SymbolX && that.Winner != SymbolO {
		return fmt.Errorf("%w: winner %q", ErrInvalidOutcome, that.Winner)
	}

	if that.Winner != NoSymbol && that.Draw {
		return fmt.Errorf("%w: both a winner and a draw", ErrInvalidOutcome)
	}

	if that.IsTerminal() != (that.NextTurn == NoSymbol) {
		return fmt.Errorf("%w: next turn %q does not match a finished=%t game", ErrInvalidOutcome, that.NextTurn, that.IsTerminal())
	}

	return nil
}
