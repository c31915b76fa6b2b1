package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"goclean/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is the frame written to connected clients.
type Message struct {
	Event     string             `json:"event"`
	UserID    primitive.ObjectID `json:"user_id"`
	Timestamp int64              `json:"timestamp"`
	Data      interface{}        `json:"data,omitempty"`
}

// Hub tracks connected clients in one room per user. A user may hold several
// connections at once, one per device.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     log,
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// client connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.joinRoom(client, userRoom(client.UserID))

	h.logger.WithUserID(client.UserID).Debug("WebSocket client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)

	for roomID := range client.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}

	h.logger.WithUserID(client.UserID).Debug("WebSocket client unregistered")
}

func (h *Hub) shutdown() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.rooms = make(map[string]map[*Client]bool)
}

// SendToUser delivers event to every connection the user holds on this
// instance and reports whether at least one connection accepted it.
func (h *Hub) SendToUser(userID primitive.ObjectID, event string, data interface{}) bool {
	payload, err := json.Marshal(Message{
		Event:     event,
		UserID:    userID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode WebSocket message")
		return false
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	delivered := false
	for client := range h.rooms[userRoom(userID)] {
		select {
		case client.send <- payload:
			delivered = true
		default:
			// Slow consumer; the read pump unregisters it once the socket dies.
			h.logger.WithUserID(userID).Warn("WebSocket send buffer full, dropping message")
		}
	}

	return delivered
}

func (h *Hub) IsOnline(userID primitive.ObjectID) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.rooms[userRoom(userID)]) > 0
}

func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func userRoom(userID primitive.ObjectID) string {
	return "user_" + userID.Hex()
}
