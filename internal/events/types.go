package events

import (
	"context"

	"waconsole/internal/domain/contact"
	"waconsole/internal/domain/message"

	"github.com/google/uuid"
)

type EventType string

const (
	// EventNewMessage carries one canonical persisted message. Published
	// exactly once per logical message, after the store append succeeded.
	EventNewMessage EventType = "newMessage"
	// EventContactUpdated refreshes contact-list previews (last activity,
	// unread badge) for the unscoped audience.
	EventContactUpdated EventType = "contactUpdated"
)

// Redis channels. Scoped message events go to the contact's channel,
// preview events to the shared contacts channel.
const (
	ChannelPrefixContact = "channel:contact:"
	ChannelContacts      = "channel:contacts"
)

type Event struct {
	Type      EventType `json:"type"`
	ContactID uuid.UUID `json:"contact_id"`
	// CorrelationID echoes the client-supplied id of an outbound send
	// intent so viewers can replace their optimistic placeholder.
	CorrelationID string           `json:"correlation_id,omitempty"`
	Message       *message.Message `json:"message,omitempty"`
	Contact       *contact.Contact `json:"contact,omitempty"`
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out to subscribers. Publish must only ever be called
// after the corresponding store write succeeded.
type Bus interface {
	Start() error
	Stop() error
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler) error
}
