package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/connect-squares/connect-services/internal/comm"
	"github.com/connect-squares/connect-services/internal/gamesvc/service"
)

// SubjectSocketRequests carries read requests from the socket service.
const SubjectSocketRequests = "game.requests"

// SubjectSocketResponses carries the replies back to the socket service.
const SubjectSocketResponses = "socket.responses"

type Broker struct {
	Conn           *nats.Conn
	GameService    *service.GameService
	BalanceService *service.BalanceService
}

func NewBroker(nc *nats.Conn, gameService *service.GameService, balanceService *service.BalanceService) *Broker {
	return &Broker{
		Conn:           nc,
		GameService:    gameService,
		BalanceService: balanceService,
	}
}

// PublishGameEvent fans a committed operation out on the event subject.
// Delivery is best effort; the record store is the source of truth.
func (b *Broker) PublishGameEvent(ev comm.GameEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("error marshaling game event %s for game %s: %s", ev.Type, ev.GameID, err)
		return
	}
	if err := b.Conn.Publish(comm.SubjectGameEvents, payload); err != nil {
		log.Errorf("error publishing game event %s for game %s: %s", ev.Type, ev.GameID, err)
	}
}

// handleMessage serves read requests coming from the socket service.
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNat.Data, msg); err != nil {
		log.Errorf("error decoding nats message %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch msg.Type {
	case "get-game":
		var req comm.WatchRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("error decoding get-game request %s", err)
			return
		}

		game, err := b.GameService.Get(ctx, req.GameID)
		if err != nil {
			log.Errorf("error [GameService.Get] game %s: %s", req.GameID, err)
			return
		}
		b.respond("get-game-response", game, msg.SocketId)

	case "get-balance":
		var req struct {
			Player string `json:"player"`
		}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("error decoding get-balance request %s", err)
			return
		}

		balance, err := b.BalanceService.PlayerBalance(ctx, req.Player)
		if err != nil {
			log.Errorf("error [BalanceService.PlayerBalance] player %s: %s", req.Player, err)
			return
		}
		b.respond("get-balance-response", map[string]int64{"balance": balance}, msg.SocketId)

	default:
		log.Warnf("unknown socket request type %s", msg.Type)
	}
}

func (b *Broker) respond(msgType string, data interface{}, socketId string) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Errorf("error marshaling %s payload: %s", msgType, err)
		return
	}

	payload, err := json.Marshal(&comm.WSMessage{
		Type:     msgType,
		Data:     raw,
		SocketId: socketId,
	})
	if err != nil {
		log.Errorf("error marshaling %s frame: %s", msgType, err)
		return
	}

	b.Publish(SubjectSocketResponses, payload)
}

// consume read requests from the socket service
func (b *Broker) SubscribSocketService(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessage)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

var _ service.Publisher = (*Broker)(nil)
