package realtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"waconsole/internal/domain/message"
	"waconsole/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type recordingPresence struct {
	mu      sync.Mutex
	viewing []string
	idle    []string
}

func (p *recordingPresence) MarkViewing(ctx context.Context, contactID uuid.UUID, viewerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewing = append(p.viewing, contactID.String())
	return nil
}

func (p *recordingPresence) MarkIdle(ctx context.Context, contactID uuid.UUID, viewerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idle = append(p.idle, contactID.String())
	return nil
}

func (p *recordingPresence) Heartbeat(ctx context.Context, contactID uuid.UUID) error {
	return nil
}

func (p *recordingPresence) viewingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.viewing)
}

func (p *recordingPresence) idleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", NewWebSocketHandler(hub).Handle)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, viewerID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?viewer_id=" + viewerID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func join(t *testing.T, conn *websocket.Conn, contactID uuid.UUID) {
	t.Helper()
	msg, _ := json.Marshal(ClientMessage{Type: "join", ContactID: contactID})
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		t.Fatalf("join write failed: %v", err)
	}
}

func waitForViewers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		n := len(hub.clients)
		hub.mu.RUnlock()
		if n == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d viewers", want)
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.Contains(string(raw), `"Valid"`) {
		t.Fatalf("payload leaks nullable column wrappers: %s", raw)
	}
	var event wireEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("decoding event %q: %v", raw, err)
	}
	return event
}

func TestScopedEventsReachOnlyJoinedViewers(t *testing.T) {
	hub := NewHub(nil, nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := newTestServer(t, hub)
	contactID := uuid.New()

	joined := dial(t, srv, "viewer-a")
	bystander := dial(t, srv, "viewer-b")
	waitForViewers(t, hub, 2)

	join(t, joined, contactID)
	// Wait until the subscription is applied by the run loop.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.RLock()
		subscribed := hub.clients["viewer-a"] != nil && hub.clients["viewer-a"].contacts[contactID]
		hub.mu.RUnlock()
		if subscribed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("join never applied")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.broadcast <- events.Event{
		Type:      events.EventNewMessage,
		ContactID: contactID,
		Message: &message.Message{
			ID:        uuid.New(),
			ContactID: contactID,
			Text:      sql.NullString{String: "hello", Valid: true},
		},
	}

	event := readEvent(t, joined)
	if event.Type != events.EventNewMessage || event.ContactID != contactID {
		t.Fatalf("joined viewer got wrong event: %+v", event)
	}
	if event.Message == nil || event.Message.Text == nil || *event.Message.Text != "hello" {
		t.Fatalf("expected plain text payload, got %+v", event.Message)
	}

	// The bystander never joined the conversation, so nothing arrives.
	bystander.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := bystander.ReadMessage(); err == nil {
		t.Fatalf("bystander should not receive scoped events")
	}
}

func TestPreviewEventsReachAllViewers(t *testing.T) {
	hub := NewHub(nil, nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := newTestServer(t, hub)

	a := dial(t, srv, "viewer-a")
	b := dial(t, srv, "viewer-b")
	waitForViewers(t, hub, 2)

	contactID := uuid.New()
	hub.broadcast <- events.Event{Type: events.EventContactUpdated, ContactID: contactID}

	for _, conn := range []*websocket.Conn{a, b} {
		event := readEvent(t, conn)
		if event.Type != events.EventContactUpdated || event.ContactID != contactID {
			t.Fatalf("expected preview event, got %+v", event)
		}
	}
}

func TestJoinLeaveDrivesPresence(t *testing.T) {
	presence := &recordingPresence{}
	hub := NewHub(nil, presence)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := newTestServer(t, hub)
	conn := dial(t, srv, "viewer-a")
	waitForViewers(t, hub, 1)

	contactID := uuid.New()
	join(t, conn, contactID)

	deadline := time.Now().Add(2 * time.Second)
	for presence.viewingCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("presence never marked viewing")
		}
		time.Sleep(10 * time.Millisecond)
	}

	leave, _ := json.Marshal(ClientMessage{Type: "leave", ContactID: contactID})
	if err := conn.WriteMessage(websocket.TextMessage, leave); err != nil {
		t.Fatalf("leave write failed: %v", err)
	}

	deadline = time.Now().Add(2 * time.Second)
	for presence.idleCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("presence never marked idle")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDisconnectMarksJoinedConversationsIdle(t *testing.T) {
	presence := &recordingPresence{}
	hub := NewHub(nil, presence)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := newTestServer(t, hub)
	conn := dial(t, srv, "viewer-a")
	waitForViewers(t, hub, 1)

	contactID := uuid.New()
	join(t, conn, contactID)
	deadline := time.Now().Add(2 * time.Second)
	for presence.viewingCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("presence never marked viewing")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()
	waitForViewers(t, hub, 0)

	if presence.idleCount() == 0 {
		t.Fatalf("expected idle mark on disconnect")
	}
}

func TestPingAfterShutdownDoesNotPanic(t *testing.T) {
	hub := NewHub(nil, nil)
	go hub.Run()

	srv := newTestServer(t, hub)
	dial(t, srv, "viewer-a")
	waitForViewers(t, hub, 1)

	hub.mu.RLock()
	client := hub.clients["viewer-a"]
	hub.mu.RUnlock()

	// Stop closes every send channel; a ping still in flight on the read
	// side must not write to it.
	hub.Stop()
	client.handlePing()

	if _, ok := <-client.send; ok {
		t.Fatalf("expected no pong after shutdown")
	}
}

func TestPingGetsPong(t *testing.T) {
	hub := NewHub(nil, nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := newTestServer(t, hub)
	conn := dial(t, srv, "viewer-a")
	waitForViewers(t, hub, 1)

	ping, _ := json.Marshal(ClientMessage{Type: "ping"})
	if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
		t.Fatalf("ping write failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(raw), "pong") {
		t.Fatalf("expected pong reply, got %q", raw)
	}
}
