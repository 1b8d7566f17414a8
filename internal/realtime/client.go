package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client represents a single connected viewer.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	viewerID     string
	contacts     map[uuid.UUID]bool
	connectedAt  time.Time
	lastActivity time.Time
	logger       *WebSocketLogger
}

// ClientMessage represents a message from the viewer.
type ClientMessage struct {
	Type      string    `json:"type"`
	ContactID uuid.UUID `json:"contact_id,omitempty"`
}

func NewClient(hub *Hub, conn *websocket.Conn, viewerID string, logger *WebSocketLogger) *Client {
	now := time.Now()
	return &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, 256),
		viewerID:     viewerID,
		contacts:     make(map[uuid.UUID]bool),
		connectedAt:  now,
		lastActivity: now,
		logger:       logger,
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastActivity = time.Now()
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket unexpected close", c.viewerID, err)
			}
			break
		}

		raw = bytes.TrimSpace(bytes.Replace(raw, newline, space, -1))
		c.lastActivity = time.Now()

		if err := c.handleMessage(raw); err != nil {
			c.logger.Error("websocket handle message failed", c.viewerID, err)
		}
	}
}

func (c *Client) handleMessage(raw []byte) error {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}

	switch msg.Type {
	case "join":
		c.hub.subscribe <- &subscription{client: c, contactID: msg.ContactID, active: true}
	case "leave":
		c.hub.subscribe <- &subscription{client: c, contactID: msg.ContactID, active: false}
	case "ping":
		c.handlePing()
	default:
		c.logger.Warn("unknown message type", c.viewerID)
	}
	return nil
}

func (c *Client) handlePing() {
	c.hub.mu.RLock()
	joined := make([]uuid.UUID, 0, len(c.contacts))
	for contactID := range c.contacts {
		joined = append(joined, contactID)
	}
	// The send channel is closed under the hub's write lock once the client
	// leaves the map, so only reply while still registered.
	if _, registered := c.hub.clients[c.viewerID]; registered {
		select {
		case c.send <- []byte(`{"type":"pong"}`):
		default:
		}
	}
	c.hub.mu.RUnlock()

	// Keep the viewing TTL alive for every joined conversation.
	if c.hub.presence != nil {
		for _, contactID := range joined {
			_ = c.hub.presence.Heartbeat(context.Background(), contactID)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
