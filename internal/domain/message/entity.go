package message

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Sender identity used for outbound messages. Inbound messages carry the
// customer's phone number instead.
const SenderBusiness = "business"

// Message kinds
const (
	KindText        = "text"
	KindImage       = "image"
	KindDocument    = "document"
	KindProduct     = "product"
	KindUnsupported = "unsupported"
)

// QuotedFallback is used when the message a reply points at no longer
// exists at send/ingest time.
const QuotedFallback = "an earlier message"

// Message represents the messages table. Rows are append-only: nothing is
// mutated after creation, deletion is an explicit operator action.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContactID uuid.UUID `gorm:"type:uuid;index"`
	Sender    string
	Recipient string
	Kind      string
	Text      sql.NullString
	MediaURL  sql.NullString
	Price     sql.NullFloat64
	// ReplyToText is a denormalized snapshot of the quoted message's text,
	// not a foreign key: the quoted message may be deleted later.
	ReplyToText sql.NullString
	// ExternalID is the provider's message id. Unique when present; this is
	// the dedup key for webhook retries.
	ExternalID sql.NullString `gorm:"uniqueIndex"`
	CreatedAt  time.Time
}

func (Message) TableName() string {
	return "messages"
}

// Inbound reports whether the message came from the customer.
func (m Message) Inbound() bool {
	return m.Sender != SenderBusiness
}
