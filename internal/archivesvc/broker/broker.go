package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/connect-squares/connect-services/internal/archivesvc/store"
	"github.com/connect-squares/connect-services/internal/comm"
)

// Broker consumes the game event stream and archives it. Moves and
// skips land in the move history; terminal events freeze the final
// snapshot.
type Broker struct {
	Conn  *nats.Conn
	Store *store.ArchiveStore
}

func NewBroker(conn *nats.Conn, archiveStore *store.ArchiveStore) *Broker {
	return &Broker{Conn: conn, Store: archiveStore}
}

// SubscribeGameEvents joins the archive queue group, so running more
// than one instance does not duplicate documents.
func (b *Broker) SubscribeGameEvents() (*nats.Subscription, error) {
	return b.Conn.QueueSubscribe(comm.SubjectGameEvents, "archive", b.handleGameEvent)
}

func (b *Broker) handleGameEvent(msgNats *nats.Msg) {
	event := &comm.GameEvent{}
	if err := json.Unmarshal(msgNats.Data, event); err != nil {
		log.Errorf("error decoding game event %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch event.Type {
	case comm.EventMovePlayed, comm.EventTurnSkipped:
		if err := b.Store.InsertMove(ctx, event); err != nil {
			log.Errorf("error archiving %s for game %s: %s", event.Type, event.GameID, err)
		}
	case comm.EventGameWon, comm.EventGameTie, comm.EventGameCancelled:
		if err := b.Store.UpsertFinalGame(ctx, event); err != nil {
			log.Errorf("error archiving final state of game %s: %s", event.GameID, err)
		}
	}
}
