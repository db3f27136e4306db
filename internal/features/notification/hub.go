package notification

import (
	"sync"

	"go.uber.org/zap"
)

const (
	sendBuffer = 16
	// textMessage mirrors websocket.TextMessage
	textMessage = 1
)

// Socket is the subset of a websocket connection the hub needs
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	socket Socket
	send   chan []byte
}

// Hub fans notifications out to every live socket of a user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		log:     log,
	}
}

// Serve registers the socket for userID and blocks until the peer goes away.
func (h *Hub) Serve(userID string, socket Socket) {
	c := &client{socket: socket, send: make(chan []byte, sendBuffer)}
	h.register(userID, c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range c.send {
			if err := socket.WriteMessage(textMessage, msg); err != nil {
				h.log.Debug("websocket write failed", zap.String("user_id", userID), zap.Error(err))
				_ = socket.Close()
				// keep draining so Publish never blocks on this client
				for range c.send {
				}
				return
			}
		}
	}()

	for {
		if _, _, err := socket.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(userID, c)
	<-done
}

// Publish queues payload for every socket of userID and returns how many got it.
// Slow sockets with a full buffer miss the message.
func (h *Hub) Publish(userID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
			delivered++
		default:
			h.log.Warn("dropping notification for slow socket", zap.String("user_id", userID))
		}
	}
	return delivered
}

// Connections reports the number of live sockets for userID
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) register(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
}

func (h *Hub) unregister(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}
