package models

import "time"

// Pot is the escrow record owned by exactly one game. The balance
// itself lives in the ledger; this record carries identity and the
// back-reference.
type Pot struct {
	ID        string    `json:"id"` // derived from the game id
	Bump      uint8     `json:"bump"`
	GameID    string    `json:"game_id"`
	CreatedAt time.Time `json:"created_at"`
}
