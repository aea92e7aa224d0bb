package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// ApplyMove - validates a move against a board snapshot and returns the resulting state.
// It never mutates its input.
func ApplyMove(request entity.MoveRequest) (*entity.MoveOutcome, error) {
	var board [entity.BoardSize]string

	if err := validateBoard(request.Board); err != nil {
		return nil, err
	}
	copy(board[:], request.Board)

	if request.Position < 0 || request.Position >= entity.BoardSize {
		return nil, fmt.Errorf("%w: got %d", apperror.ErrInvalidPosition, request.Position)
	}

	if !isSymbol(request.Symbol) {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidSymbol, request.Symbol)
	}

	// no expected turn means the game is over, report it as such
	if !isSymbol(request.ExpectedTurn) {
		if err := checkTerminal(board); err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: expected turn %q", apperror.ErrInvalidSymbol, request.ExpectedTurn)
	}

	if request.ExpectedTurn != request.Symbol {
		return nil, apperror.ErrNotYourTurn
	}

	if err := checkTerminal(board); err != nil {
		return nil, err
	}

	if board[request.Position] != entity.EmptyCell {
		return nil, apperror.ErrPositionTaken
	}

	board[request.Position] = request.Symbol

	outcome := &entity.MoveOutcome{
		Board:  board,
		Winner: winnerOf(board),
	}
	outcome.Draw = outcome.Winner == entity.NoSymbol && isFull(board)

	if !outcome.IsTerminal() {
		outcome.NextTurn = entity.Opponent(request.Symbol)
	}

	return outcome, nil
}

func validateBoard(board []string) error {
	if len(board) != entity.BoardSize {
		return fmt.Errorf("%w: must have %d cells, got %d", apperror.ErrInvalidBoard, entity.BoardSize, len(board))
	}

	for i, cell := range board {
		if cell != entity.EmptyCell && !isSymbol(cell) {
			return fmt.Errorf("%w: cell %d is %q", apperror.ErrInvalidBoard, i, cell)
		}
	}

	return nil
}

func checkTerminal(board [entity.BoardSize]string) error {
	if winnerOf(board) != entity.NoSymbol {
		return apperror.ErrGameAlreadyWon
	}

	if isFull(board) {
		return apperror.ErrBoardFull
	}

	return nil
}

func winnerOf(board [entity.BoardSize]string) string {
	for _, combo := range entity.WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a
		}
	}

	return entity.NoSymbol
}

func isFull(board [entity.BoardSize]string) bool {
	for _, cell := range board {
		if cell == entity.EmptyCell {
			return false
		}
	}

	return true
}

func isSymbol(symbol string) bool {
	return symbol == entity.SymbolX || symbol == entity.SymbolO
}
