package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/connect-squares/connect-services/internal/comm"
)

const (
	movesCollection = "moves"
	gamesCollection = "games"
)

// MoveDoc is one archived move or skip, appended per event.
type MoveDoc struct {
	GameID    string    `bson:"game_id"`
	Player    string    `bson:"player"`
	Type      string    `bson:"type"` // move.played | turn.skipped
	Row       *uint8    `bson:"row,omitempty"`
	Col       *uint8    `bson:"col,omitempty"`
	Move      uint16    `bson:"move"`
	Timestamp time.Time `bson:"timestamp"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// GameDoc is the final snapshot of a resolved or cancelled game.
type GameDoc struct {
	GameID     string      `bson:"game_id"`
	Outcome    string      `bson:"outcome"` // game.won | game.tie | game.cancelled
	Winner     string      `bson:"winner,omitempty"`
	Game       interface{} `bson:"game,omitempty"`
	ResolvedAt time.Time   `bson:"resolved_at"`
}

// ArchiveStore writes the move history and final snapshots to mongo.
type ArchiveStore struct {
	db            *mongo.Database
	moveRetention time.Duration
}

func NewArchiveStore(db *mongo.Database, moveRetention time.Duration) *ArchiveStore {
	return &ArchiveStore{db: db, moveRetention: moveRetention}
}

func (s *ArchiveStore) InsertMove(ctx context.Context, ev *comm.GameEvent) error {
	doc := MoveDoc{
		GameID:    ev.GameID,
		Player:    ev.Player,
		Type:      ev.Type,
		Row:       ev.Row,
		Col:       ev.Col,
		Move:      ev.Move,
		Timestamp: ev.Timestamp,
		ExpiresAt: ev.Timestamp.Add(s.moveRetention),
	}

	_, err := s.db.Collection(movesCollection).InsertOne(ctx, doc)
	return err
}

func (s *ArchiveStore) UpsertFinalGame(ctx context.Context, ev *comm.GameEvent) error {
	doc := GameDoc{
		GameID:     ev.GameID,
		Outcome:    ev.Type,
		Winner:     ev.Winner,
		Game:       ev.Game,
		ResolvedAt: ev.Timestamp,
	}

	_, err := s.db.Collection(gamesCollection).UpdateOne(ctx,
		bson.M{"game_id": ev.GameID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	return err
}

// GetMoves returns a game's archived moves in play order.
func (s *ArchiveStore) GetMoves(ctx context.Context, gameID string) ([]MoveDoc, error) {
	cur, err := s.db.Collection(movesCollection).Find(ctx,
		bson.M{"game_id": gameID},
		options.Find().SetSort(bson.M{"move": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var moves []MoveDoc
	if err := cur.All(ctx, &moves); err != nil {
		return nil, err
	}
	return moves, nil
}
