package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades viewer connections and hands them to the hub.
type WebSocketHandler struct {
	hub    *Hub
	logger *WebSocketLogger
}

func NewWebSocketHandler(hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: NewWebSocketLogger(),
	}
}

func (h *WebSocketHandler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "", err)
		return
	}

	viewerID := c.Query("viewer_id")
	if viewerID == "" {
		viewerID = uuid.New().String()
	}

	client := NewClient(h.hub, conn, viewerID, h.logger)
	h.hub.register <- client
}
