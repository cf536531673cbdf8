package engine

// TurnTimeoutSlots is the ordering-marker distance after which the seat
// on turn counts as stalled and any seated player may skip it.
const TurnTimeoutSlots = 240

// EmptySeat marks an unoccupied player slot.
const EmptySeat = ""

// recordVersion tags the persisted game format.
const recordVersion = uint8(0)

// State is the game lifecycle state. Winner is meaningful only while
// the state is StateWon.
type State uint8

const (
	StateWaiting State = iota
	StateActive
	StateTie
	StateWon
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	case StateTie:
		return "tie"
	case StateWon:
		return "won"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, bool) {
	switch s {
	case "waiting":
		return StateWaiting, true
	case "active":
		return StateActive, true
	case "tie":
		return StateTie, true
	case "won":
		return StateWon, true
	case "cancelled":
		return StateCancelled, true
	}
	return 0, false
}

// Config is the creation-time shape of a single game instance.
type Config struct {
	Rows       uint8
	Cols       uint8
	Connect    uint8
	MinPlayers uint8
	MaxPlayers uint8
	Wager      int64
}

// Tile addresses one board cell in a play request.
type Tile struct {
	Row uint8 `json:"row"`
	Col uint8 `json:"col"`
}

// Outcome reports what an accepted Play did to the game.
type Outcome uint8

const (
	OutcomeNextTurn Outcome = iota
	OutcomeWon
	OutcomeTie
)

// Game is the full durable game record. All mutation goes through the
// operation methods below; each validates completely before touching
// any field, so a returned error always leaves the record unchanged.
type Game struct {
	Version uint8
	Creator string
	Nonce   uint32
	Config

	Players [MaxSeats]string
	Joined  uint8

	Board              Board
	Moves              uint16
	CurrentPlayerIndex uint8
	State              State
	Winner             string

	InitTimestamp int64
	LastMoveSlot  uint64
}

// NewGame validates the configuration and returns a Waiting game with
// the creator seated at index 0. The creator's wager is collected by
// the caller at the same time (see the service layer).
func NewGame(creator string, nonce uint32, cfg Config, now int64) (*Game, error) {
	if cfg.Rows < 1 || cfg.Rows > MaxRows {
		return nil, errf(CodeInvalidConfig, "rows %d outside [1,%d]", cfg.Rows, MaxRows)
	}
	if cfg.Cols < 1 || cfg.Cols > MaxCols {
		return nil, errf(CodeInvalidConfig, "cols %d outside [1,%d]", cfg.Cols, MaxCols)
	}
	max := cfg.Rows
	if cfg.Cols > max {
		max = cfg.Cols
	}
	if cfg.Connect < 1 || cfg.Connect > max {
		return nil, errf(CodeInvalidConfig, "connect %d outside [1,%d]", cfg.Connect, max)
	}
	if cfg.MinPlayers < 2 {
		return nil, errf(CodeInvalidConfig, "min players %d below 2", cfg.MinPlayers)
	}
	if cfg.MinPlayers > cfg.MaxPlayers {
		return nil, errf(CodeInvalidConfig, "min players %d above max players %d", cfg.MinPlayers, cfg.MaxPlayers)
	}
	if cfg.MaxPlayers > MaxSeats {
		return nil, errf(CodeInvalidConfig, "max players %d above seat cap %d", cfg.MaxPlayers, MaxSeats)
	}
	if cfg.Wager < 0 {
		return nil, errf(CodeInvalidConfig, "negative wager %d", cfg.Wager)
	}

	g := &Game{
		Version:       recordVersion,
		Creator:       creator,
		Nonce:         nonce,
		Config:        cfg,
		Joined:        1,
		Board:         NewBoard(cfg.Rows, cfg.Cols),
		State:         StateWaiting,
		InitTimestamp: now,
	}
	g.Players[0] = creator
	return g, nil
}

// Seat returns the seat index occupied by player, if any.
func (g *Game) Seat(player string) (int, bool) {
	for i := 0; i < int(g.Joined); i++ {
		if g.Players[i] == player {
			return i, true
		}
	}
	return -1, false
}

// Join seats the player at the first empty slot. Seat order is join
// order is turn order. Returns true when the join activated the game.
func (g *Game) Join(player string, slot uint64) (bool, error) {
	if g.State != StateWaiting {
		return false, errf(CodeGameNotWaiting, "game is %s", g.State)
	}
	if _, ok := g.Seat(player); ok {
		return false, errf(CodeAlreadyJoined, "%s already occupies a seat", player)
	}
	if g.Joined >= g.MaxPlayers {
		return false, errf(CodeGameFull, "all %d seats taken", g.MaxPlayers)
	}

	g.Players[g.Joined] = player
	g.Joined++

	if g.Joined == g.MinPlayers {
		g.State = StateActive
		g.CurrentPlayerIndex = 0
		g.LastMoveSlot = slot
		return true, nil
	}
	return false, nil
}

// Play claims the tile for the seat on turn. The turn check covers
// out-of-turn seats and strangers alike.
func (g *Game) Play(player string, tile Tile, slot uint64) (Outcome, error) {
	if g.State != StateActive {
		return 0, errf(CodeGameAlreadyOver, "game is %s", g.State)
	}
	onTurn := g.Players[g.CurrentPlayerIndex]
	if onTurn != player {
		return 0, errf(CodeNotPlayersTurn, "turn belongs to %s, not %s", onTurn, player)
	}
	if err := g.Board.Place(tile.Row, tile.Col, int8(g.CurrentPlayerIndex)); err != nil {
		return 0, err
	}

	g.Moves++
	g.LastMoveSlot = slot

	if winner, ok := g.Board.ScanForWin(tile.Row, tile.Col, g.Connect); ok {
		g.State = StateWon
		g.Winner = g.Players[winner]
		return OutcomeWon, nil
	}
	if g.Board.IsFull() {
		g.State = StateTie
		return OutcomeTie, nil
	}

	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % g.Joined
	return OutcomeNextTurn, nil
}

// Cancel voids a game that never started. Only the creator may cancel;
// the caller refunds contributions and destroys the records.
func (g *Game) Cancel(player string) error {
	if g.State != StateWaiting {
		return errf(CodeGameNotWaiting, "game is %s", g.State)
	}
	if g.Creator != player {
		return errf(CodeNotAuthorized, "only creator %s may cancel, not %s", g.Creator, player)
	}
	g.State = StateCancelled
	return nil
}

// SkipTurn advances the turn past a stalled seat. Any seated player may
// submit it once the seat on turn has been idle for TurnTimeoutSlots.
func (g *Game) SkipTurn(player string, slot uint64) error {
	if g.State != StateActive {
		return errf(CodeGameAlreadyOver, "game is %s", g.State)
	}
	if _, ok := g.Seat(player); !ok {
		return errf(CodeNotAuthorized, "%s is not seated in this game", player)
	}
	if slot < g.LastMoveSlot+TurnTimeoutSlots {
		return errf(CodeTurnNotExpired, "turn expires at slot %d, current slot %d", g.LastMoveSlot+TurnTimeoutSlots, slot)
	}
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % g.Joined
	g.LastMoveSlot = slot
	return nil
}

// SeatedPlayers returns the joined identities in seat order.
func (g *Game) SeatedPlayers() []string {
	out := make([]string, 0, g.Joined)
	for i := 0; i < int(g.Joined); i++ {
		out = append(out, g.Players[i])
	}
	return out
}
