package entity

const (
	SymbolX = "X"
	SymbolO = "O"

	// NoSymbol - marks an absent next turn or winner.
	NoSymbol = ""

	EmptyCell = ""

	BoardSize  = 9
	MaxPlayers = 2
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Room - shared state of a single game. It is not safe for concurrent use,
// the owning session serializes access to it.
type Room struct {
	ID       string
	Players  []string
	Symbols  map[string]string
	Board    [BoardSize]string
	NextTurn string
	Winner   string
	Draw     bool
}

func NewRoom(id string) *Room {
	return &Room{
		ID:       id,
		Players:  make([]string, 0, MaxPlayers),
		Symbols:  make(map[string]string, MaxPlayers),
		NextTurn: SymbolX,
	}
}

func (that *Room) HasPlayer(username string) bool {
	for _, player := range that.Players {
		if player == username {
			return true
		}
	}

	return false
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= MaxPlayers
}

func (that *Room) AddPlayer(username string) {
	that.Players = append(that.Players, username)
}

// AssignSymbols - gives X to the first member and O to the second once the room is full.
// It reports whether symbols were assigned by this call.
func (that *Room) AssignSymbols() bool {
	if len(that.Players) != MaxPlayers || len(that.Symbols) != 0 {
		return false
	}

	that.Symbols[that.Players[0]] = SymbolX
	that.Symbols[that.Players[1]] = SymbolO

	return true
}

func (that *Room) SymbolOf(username string) string {
	return that.Symbols[username]
}

func (that *Room) IsFinished() bool {
	return that.Winner != NoSymbol || that.Draw
}

// Apply - overwrites the game state with an accepted move outcome.
func (that *Room) Apply(outcome *MoveOutcome) {
	that.Board = outcome.Board
	that.NextTurn = outcome.NextTurn
	that.Winner = outcome.Winner
	that.Draw = outcome.Draw
}

// Snapshot - returns a deep copy that can be read without holding the session lock.
func (that *Room) Snapshot() *Room {
	players := make([]string, len(that.Players))
	copy(players, that.Players)

	symbols := make(map[string]string, len(that.Symbols))
	for username, symbol := range that.Symbols {
		symbols[username] = symbol
	}

	return &Room{
		ID:       that.ID,
		Players:  players,
		Symbols:  symbols,
		Board:    that.Board,
		NextTurn: that.NextTurn,
		Winner:   that.Winner,
		Draw:     that.Draw,
	}
}

// RoomView - wire representation of a room.
type RoomView struct {
	RoomID         string            `json:"roomId"`
	Players        []string          `json:"players"`
	Symbols        map[string]string `json:"symbols"`
	Board          [BoardSize]string `json:"board"`
	NextTurnSymbol *string           `json:"nextTurnSymbol"`
	Winner         *string           `json:"winner"`
	Draw           bool              `json:"draw"`
}

func (that *Room) View() RoomView {
	snapshot := that.Snapshot()

	return RoomView{
		RoomID:         snapshot.ID,
		Players:        snapshot.Players,
		Symbols:        snapshot.Symbols,
		Board:          snapshot.Board,
		NextTurnSymbol: SymbolPtr(snapshot.NextTurn),
		Winner:         SymbolPtr(snapshot.Winner),
		Draw:           snapshot.Draw,
	}
}

// SymbolPtr - converts NoSymbol to nil so it is encoded as JSON null.
func SymbolPtr(symbol string) *string {
	if symbol == NoSymbol {
		return nil
	}

	return &symbol
}

// SymbolValue - reverse of SymbolPtr.
func SymbolValue(symbol *string) string {
	if symbol == nil {
		return NoSymbol
	}

	return *symbol
}

func Opponent(symbol string) string {
	if symbol == SymbolX {
		return SymbolO
	}

	return SymbolX
}
