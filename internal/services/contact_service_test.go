package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"waconsole/internal/domain/message"
	"waconsole/internal/events"
	waerrors "waconsole/pkg/errors"

	"github.com/google/uuid"
)

type recordBus struct {
	published []events.Event
}

func (b *recordBus) Start() error { return nil }
func (b *recordBus) Stop() error  { return nil }

func (b *recordBus) Publish(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordBus) Subscribe(eventType events.EventType, handler events.Handler) error { return nil }

func TestListAttachesLastMessagePreview(t *testing.T) {
	contacts := newMemContacts()
	messages := &memMessages{}
	svc := NewContactService(contacts, messages, nil, nil)

	withHistory, _ := contacts.UpsertByPhone(context.Background(), "+15550040", "Asha")
	fresh, _ := contacts.UpsertByPhone(context.Background(), "+15550041", "Ravi")

	messages.Create(context.Background(), &message.Message{
		ID:        uuid.New(),
		ContactID: withHistory.ID,
		Text:      sql.NullString{String: "first", Valid: true},
	})
	messages.Create(context.Background(), &message.Message{
		ID:        uuid.New(),
		ContactID: withHistory.ID,
		Text:      sql.NullString{String: "latest", Valid: true},
	})

	previews, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(previews) != 2 {
		t.Fatalf("expected 2 previews, got %d", len(previews))
	}

	for _, p := range previews {
		switch p.ID {
		case withHistory.ID:
			if p.LastMessage == nil || p.LastMessage.Text.String != "latest" {
				t.Fatalf("expected latest message preview, got %+v", p.LastMessage)
			}
		case fresh.ID:
			if p.LastMessage != nil {
				t.Fatalf("expected no preview for empty conversation, got %+v", p.LastMessage)
			}
		}
	}
}

func TestMarkReadBroadcastsRefreshedPreview(t *testing.T) {
	contacts := newMemContacts()
	bus := &recordBus{}
	svc := NewContactService(contacts, &memMessages{}, bus, nil)

	ct, _ := contacts.UpsertByPhone(context.Background(), "+15550042", "Asha")
	contacts.byID[ct.ID].UnreadCount = 4

	if err := svc.MarkRead(context.Background(), ct.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	if got := contacts.byID[ct.ID].UnreadCount; got != 0 {
		t.Fatalf("expected unread reset, got %d", got)
	}
	if len(bus.published) != 1 || bus.published[0].Type != events.EventContactUpdated {
		t.Fatalf("expected one contactUpdated broadcast, got %+v", bus.published)
	}
	if bus.published[0].Contact == nil || bus.published[0].Contact.UnreadCount != 0 {
		t.Fatalf("broadcast should carry the zeroed counter: %+v", bus.published[0].Contact)
	}
}

func TestMarkReadUnknownContact(t *testing.T) {
	svc := NewContactService(newMemContacts(), &memMessages{}, &recordBus{}, nil)
	if err := svc.MarkRead(context.Background(), uuid.New()); !errors.Is(err, waerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
