package apperror

import (
	"errors"
	"fmt"
)

// rule validator rejections.
var (
	ErrInvalidBoard    = errors.New("invalid board")
	ErrInvalidPosition = errors.New("position must be a number between 0 and 8")
	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrGameAlreadyOver = errors.New("game is already over")
	ErrGameAlreadyWon  = fmt.Errorf("%w: game already won", ErrGameAlreadyOver)
	ErrBoardFull       = fmt.Errorf("%w: board full - game is a draw", ErrGameAlreadyOver)
	ErrPositionTaken   = errors.New("position already taken")
)

// room session rejections.
var (
	ErrRoomFull          = errors.New("room full")
	ErrRoomNotFound      = errors.New("room not found")
	ErrPlayerNotInRoom   = errors.New("player not in room")
	ErrSymbolNotAssigned = errors.New("symbols are not assigned yet")
	ErrInvalidRequest    = errors.New("invalid request")
)

// identity and collaborator failures.
var (
	ErrUserNotFound            = errors.New("user not found")
	ErrUserAlreadyExists       = errors.New("username already exists")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

const ReasonInternal = "Internal"

type reason struct {
	code string
	err  error
}

// reasons is ordered so wrapped errors resolve to the most specific code first.
var reasons = []reason{
	{"GameAlreadyWon", ErrGameAlreadyWon},
	{"BoardFull", ErrBoardFull},
	{"GameAlreadyOver", ErrGameAlreadyOver},
	{"InvalidBoard", ErrInvalidBoard},
	{"InvalidPosition", ErrInvalidPosition},
	{"InvalidSymbol", ErrInvalidSymbol},
	{"NotYourTurn", ErrNotYourTurn},
	{"PositionTaken", ErrPositionTaken},
	{"RoomFull", ErrRoomFull},
	{"RoomNotFound", ErrRoomNotFound},
	{"PlayerNotInRoom", ErrPlayerNotInRoom},
	{"SymbolNotAssigned", ErrSymbolNotAssigned},
	{"InvalidRequest", ErrInvalidRequest},
	{"UserNotFound", ErrUserNotFound},
	{"UserAlreadyExists", ErrUserAlreadyExists},
	{"Unavailable", ErrCollaboratorUnavailable},
}

// Reason - returns the machine-readable code sent to clients for err.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}

	return ReasonInternal
}

// FromReason - returns the sentinel error for a reason code, or nil when the code is unknown.
func FromReason(code string) error {
	for _, r := range reasons {
		if r.code == code {
			return r.err
		}
	}

	return nil
}

// IsRejection - reports whether err is a rule or state rejection rather than an infrastructure failure.
func IsRejection(err error) bool {
	if err == nil || errors.Is(err, ErrCollaboratorUnavailable) {
		return false
	}

	return Reason(err) != ReasonInternal
}
