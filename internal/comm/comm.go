package comm

import (
	"encoding/json"
	"time"

	"github.com/connect-squares/connect-services/internal/gamesvc/models"
)

// NATS subjects shared by the services.
const (
	SubjectGameEvents = "game.events"
)

// Game event types carried on SubjectGameEvents.
const (
	EventGameCreated   = "game.created"
	EventPlayerJoined  = "player.joined"
	EventGameStarted   = "game.started"
	EventMovePlayed    = "move.played"
	EventTurnSkipped   = "turn.skipped"
	EventGameWon       = "game.won"
	EventGameTie       = "game.tie"
	EventGameCancelled = "game.cancelled"
)

// WSMessage is the frame exchanged with socket clients.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "watch-game", "game-event"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// GameEvent is published by the game service after every committed
// operation and fanned out to sockets and the archive.
type GameEvent struct {
	Type      string       `json:"type"`
	GameID    string       `json:"game_id"`
	Player    string       `json:"player,omitempty"`
	Row       *uint8       `json:"row,omitempty"`
	Col       *uint8       `json:"col,omitempty"`
	Move      uint16       `json:"move,omitempty"`
	Winner    string       `json:"winner,omitempty"`
	Game      *models.Game `json:"game,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// WatchRequest registers a socket for one game's events.
type WatchRequest struct {
	GameID string `json:"game_id"`
	Player string `json:"player"`
}

// ServiceHeartbeat is sent periodically by long-running services.
type ServiceHeartbeat struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}
