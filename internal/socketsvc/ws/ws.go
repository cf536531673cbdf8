package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/connect-squares/connect-services/internal/comm"
	"github.com/connect-squares/connect-services/internal/socketsvc/broker"
)

type Ws struct {
	connMap  sync.Map // socketId -> *websocket.Conn
	watchMap sync.Map // socketId -> gameId being watched
	Broker   *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "watch-game":
		s.handleWatchGame(socketId, message)
	case "unwatch-game":
		s.watchMap.Delete(socketId)
	case "get-balance":
		s.forward(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

// handleWatchGame registers the socket for a game's event stream and
// asks the game service for the current snapshot.
func (s *Ws) handleWatchGame(socketId string, msg *comm.WSMessage) {
	var payload comm.WatchRequest
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("malformed watch-game payload: %s", err)
		return
	}
	if payload.GameID == "" {
		log.Error("watch-game payload missing game id")
		return
	}

	s.watchMap.Store(socketId, payload.GameID)

	// snapshot request travels as get-game
	msg.Type = "get-game"
	s.forward(socketId, msg)
}

// forward pushes a client request to the game service over NATS,
// stamped with the socket id so the response finds its way back.
func (s *Ws) forward(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("failed to marshal WSMessage for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(broker.SubjectGameRequests, bytes); err != nil {
		log.Errorf("failed to publish to NATS topic %s: %v", broker.SubjectGameRequests, err)
	}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// GetGameSockets lists the sockets watching one game.
func (s *Ws) GetGameSockets(gameId string) ([]string, bool) {
	var sockets []string
	found := false

	s.watchMap.Range(func(key, value interface{}) bool {
		if value.(string) == gameId {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.watchMap.Delete(socketId)
}
