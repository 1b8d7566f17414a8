package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"waconsole/internal/events"
	"waconsole/internal/transport/httpdto"

	"github.com/google/uuid"
)

// PresenceTracker mirrors viewer focus into the unread-suppression store.
type PresenceTracker interface {
	MarkViewing(ctx context.Context, contactID uuid.UUID, viewerID string) error
	MarkIdle(ctx context.Context, contactID uuid.UUID, viewerID string) error
	Heartbeat(ctx context.Context, contactID uuid.UUID) error
}

// Hub maintains the set of connected viewers and fans canonical events out
// to them. Scoped message events reach viewers that joined the contact's
// conversation; preview events reach everyone.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	subscribe  chan *subscription
	broadcast  chan events.Event
	bus        events.Bus
	presence   PresenceTracker
	logger     *WebSocketLogger
	mu         sync.RWMutex
	stopChan   chan struct{}
	isRunning  int32
}

type subscription struct {
	client    *Client
	contactID uuid.UUID
	active    bool
}

func NewHub(bus events.Bus, presence PresenceTracker) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		subscribe:  make(chan *subscription, 256),
		broadcast:  make(chan events.Event, 256),
		bus:        bus,
		presence:   presence,
		logger:     NewWebSocketLogger(),
		stopChan:   make(chan struct{}),
	}
}

// Run starts the Hub
func (h *Hub) Run() {
	atomic.StoreInt32(&h.isRunning, 1)
	defer atomic.StoreInt32(&h.isRunning, 0)

	h.subscribeToBus()

	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case sub := <-h.subscribe:
			h.handleSubscribe(sub)

		case event := <-h.broadcast:
			h.handleBroadcast(event)

		case <-h.stopChan:
			return
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.viewerID] = client
	h.logger.Info("viewer connected", client.viewerID)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.viewerID]; !ok {
		return
	}
	delete(h.clients, client.viewerID)

	if h.presence != nil {
		for contactID := range client.contacts {
			_ = h.presence.MarkIdle(context.Background(), contactID, client.viewerID)
		}
	}

	close(client.send)
	client.conn.Close()
	h.logger.Info("viewer disconnected", client.viewerID)
}

func (h *Hub) handleSubscribe(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[sub.client.viewerID]; !ok {
		return
	}

	if sub.active {
		sub.client.contacts[sub.contactID] = true
		if h.presence != nil {
			_ = h.presence.MarkViewing(context.Background(), sub.contactID, sub.client.viewerID)
		}
	} else {
		delete(sub.client.contacts, sub.contactID)
		if h.presence != nil {
			_ = h.presence.MarkIdle(context.Background(), sub.contactID, sub.client.viewerID)
		}
	}
}

// wireEvent is the payload written to viewers: the event with its domain
// entities mapped to their wire shapes.
type wireEvent struct {
	Type          events.EventType     `json:"type"`
	ContactID     uuid.UUID            `json:"contact_id"`
	CorrelationID string               `json:"correlation_id,omitempty"`
	Message       *httpdto.MessageView `json:"message,omitempty"`
	Contact       *httpdto.ContactView `json:"contact,omitempty"`
}

func newWireEvent(event events.Event) wireEvent {
	wire := wireEvent{
		Type:          event.Type,
		ContactID:     event.ContactID,
		CorrelationID: event.CorrelationID,
	}
	if event.Message != nil {
		m := httpdto.NewMessageView(*event.Message)
		wire.Message = &m
	}
	if event.Contact != nil {
		ct := httpdto.NewContactView(*event.Contact)
		wire.Contact = &ct
	}
	return wire
}

func (h *Hub) handleBroadcast(event events.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(newWireEvent(event))
	if err != nil {
		return
	}

	for _, client := range h.clients {
		// Preview events go to every viewer; scoped message events only to
		// viewers that joined the contact's conversation.
		if event.Type == events.EventNewMessage && !client.contacts[event.ContactID] {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn("viewer send buffer full", client.viewerID)
		}
	}
}

func (h *Hub) subscribeToBus() {
	if h.bus == nil {
		return
	}
	forward := events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		select {
		case h.broadcast <- event:
		case <-h.stopChan:
		}
		return nil
	})
	h.bus.Subscribe(events.EventNewMessage, forward)
	h.bus.Subscribe(events.EventContactUpdated, forward)
}

// Stop gracefully shuts down the Hub
func (h *Hub) Stop() {
	close(h.stopChan)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
		client.conn.Close()
	}
	h.clients = make(map[string]*Client)
}
