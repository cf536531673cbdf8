package models

import (
	"time"

	"github.com/connect-squares/connect-services/internal/gamesvc/engine"
)

// Game is the persisted shape of a game record, exchanged with the
// store and returned over the API. The engine struct is the source of
// truth for semantics; this is its storage/wire projection.
type Game struct {
	ID      string `json:"id"` // derived from (creator, nonce)
	Bump    uint8  `json:"bump"`
	Version uint8  `json:"version"`
	Creator string `json:"creator"`
	Nonce   uint32 `json:"nonce"`

	Rows       uint8 `json:"rows"`
	Cols       uint8 `json:"cols"`
	Connect    uint8 `json:"connect"`
	MinPlayers uint8 `json:"min_players"`
	MaxPlayers uint8 `json:"max_players"`
	Wager      int64 `json:"wager"`

	Players            []string `json:"players"` // seat order, empty slots trimmed
	Joined             uint8    `json:"joined"`
	Board              string   `json:"board"` // engine.EncodeBoard form
	Moves              uint16   `json:"moves"`
	CurrentPlayerIndex uint8    `json:"current_player_index"`
	State              string   `json:"state"`
	Winner             string   `json:"winner,omitempty"`

	PotID         string `json:"pot_id"`
	InitTimestamp int64  `json:"init_timestamp"`
	LastMoveSlot  uint64 `json:"last_move_slot"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromEngine projects the domain record onto the persisted shape,
// preserving the identity fields already set on the model.
func (m *Game) FromEngine(g *engine.Game) {
	m.Version = g.Version
	m.Creator = g.Creator
	m.Nonce = g.Nonce
	m.Rows = g.Rows
	m.Cols = g.Cols
	m.Connect = g.Connect
	m.MinPlayers = g.MinPlayers
	m.MaxPlayers = g.MaxPlayers
	m.Wager = g.Wager
	m.Players = g.SeatedPlayers()
	m.Joined = g.Joined
	m.Board = engine.EncodeBoard(&g.Board)
	m.Moves = g.Moves
	m.CurrentPlayerIndex = g.CurrentPlayerIndex
	m.State = g.State.String()
	m.Winner = g.Winner
	m.InitTimestamp = g.InitTimestamp
	m.LastMoveSlot = g.LastMoveSlot
}

// ToEngine rebuilds the domain record.
func (m *Game) ToEngine() (*engine.Game, error) {
	state, ok := engine.ParseState(m.State)
	if !ok {
		return nil, &engine.Error{Code: engine.CodeInvalidConfig, Detail: "unknown state " + m.State}
	}
	board, err := engine.DecodeBoard(m.Rows, m.Cols, m.Board)
	if err != nil {
		return nil, err
	}

	g := &engine.Game{
		Version: m.Version,
		Creator: m.Creator,
		Nonce:   m.Nonce,
		Config: engine.Config{
			Rows:       m.Rows,
			Cols:       m.Cols,
			Connect:    m.Connect,
			MinPlayers: m.MinPlayers,
			MaxPlayers: m.MaxPlayers,
			Wager:      m.Wager,
		},
		Joined:             m.Joined,
		Board:              board,
		Moves:              m.Moves,
		CurrentPlayerIndex: m.CurrentPlayerIndex,
		State:              state,
		Winner:             m.Winner,
		InitTimestamp:      m.InitTimestamp,
		LastMoveSlot:       m.LastMoveSlot,
	}
	for i, p := range m.Players {
		if i >= engine.MaxSeats {
			break
		}
		g.Players[i] = p
	}
	return g, nil
}
