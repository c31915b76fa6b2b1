package websocket

import (
	"net/http"
	"time"

	"goclean/internal/config"
	"goclean/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	hub        *Hub
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
	pongWait   time.Duration
}

func NewHandler(hub *Hub, cfg *config.WebSocketConfig) *Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = true
	}

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			HandshakeTimeout:  cfg.HandshakeTimeout,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		pingPeriod: cfg.PingInterval,
		pongWait:   cfg.PongTimeout,
	}
}

// HandleWebSocket upgrades an authenticated request. It expects the auth
// middleware to have stored the caller's ObjectID under "user_id".
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.WithUserID(userObjectID).WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, userObjectID, h.pingPeriod, h.pongWait)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

