package broker

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/connect-squares/connect-services/internal/comm"
)

// SubjectGameRequests carries client read requests to the game service.
const SubjectGameRequests = "game.requests"

// SubjectGameResponses carries the game service's replies back here.
const SubjectGameResponses = "socket.responses"

type Broker struct {
	Conn           *nats.Conn
	GetConnection  func(string) (*websocket.Conn, bool)
	GetGameSockets func(string) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*websocket.Conn, bool), fncGetGameSockets func(string) ([]string, bool)) *Broker {
	return &Broker{
		Conn:           conn,
		GetConnection:  fncGetConnection,
		GetGameSockets: fncGetGameSockets,
	}
}

// SubscribeGameEvents consumes the committed-operation stream from the
// game service and fans each event out to the sockets watching that
// game.
func (b *Broker) SubscribeGameEvents() (*nats.Subscription, error) {
	return b.Conn.Subscribe(comm.SubjectGameEvents, b.handleGameEvent)
}

// SubscribeResponses consumes direct replies addressed to one socket.
func (b *Broker) SubscribeResponses() (*nats.Subscription, error) {
	return b.Conn.Subscribe(SubjectGameResponses, b.handleResponse)
}

// publish message to the game service
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

func (b *Broker) handleGameEvent(msgNats *nats.Msg) {
	event := &comm.GameEvent{}
	if err := json.Unmarshal(msgNats.Data, event); err != nil {
		log.Errorf("error decoding game event %s", err)
		return
	}

	sockets, ok := b.GetGameSockets(event.GameID)
	if !ok {
		return
	}

	frame := &comm.WSMessage{Type: "game-event"}
	frame.Data = msgNats.Data

	for _, socketId := range sockets {
		if conn, ok := b.GetConnection(socketId); ok {
			if err := conn.WriteJSON(frame); err != nil {
				log.Errorf("error pushing %s to socket %s: %s", event.Type, socketId, err)
			}
		}
	}
}

func (b *Broker) handleResponse(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, message); err != nil {
		log.Errorf("error decoding response frame %s", err)
		return
	}

	switch message.Type {
	case "get-game-response", "get-balance-response":
		b.sendMessage(message)
	default:
		log.Errorf("unknown response message %s", message.Type)
	}
}

// send socket message to the web client
func (b *Broker) sendMessage(m *comm.WSMessage) {
	socketId := m.SocketId
	if conn, ok := b.GetConnection(socketId); ok {
		if err := conn.WriteJSON(m); err != nil {
			log.Println(err)
		}
	}
}
