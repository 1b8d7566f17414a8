package repository

import (
	"context"

	"waconsole/internal/domain/contact"
	"waconsole/internal/domain/message"
	"waconsole/internal/domain/product"
	"waconsole/internal/domain/quotation"

	"github.com/google/uuid"
)

// ContactRepository owns the mutable contact summary: display data, unread
// counter, last-activity timestamp.
type ContactRepository interface {
	UpsertByPhone(ctx context.Context, phone, name string) (contact.Contact, error)
	GetByID(ctx context.Context, id uuid.UUID) (contact.Contact, error)
	GetByPhone(ctx context.Context, phone string) (contact.Contact, error)
	List(ctx context.Context) ([]contact.Contact, error)
	IncrementUnread(ctx context.Context, id uuid.UUID) error
	ResetUnread(ctx context.Context, id uuid.UUID) error
	TouchActivity(ctx context.Context, id uuid.UUID) error
	UpdateLastAddress(ctx context.Context, id uuid.UUID, address string) error
}

// MessageRepository owns the append-only message log.
type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	GetByExternalID(ctx context.Context, externalID string) (message.Message, error)
	ListByContact(ctx context.Context, contactID uuid.UUID) ([]message.Message, error)
	LastByContact(ctx context.Context, contactID uuid.UUID) (message.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *product.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (product.Product, error)
	List(ctx context.Context) ([]product.Product, error)
	Update(ctx context.Context, p product.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type QuotationRepository interface {
	Create(ctx context.Context, q *quotation.Quotation) error
	GetByID(ctx context.Context, id uuid.UUID) (quotation.Quotation, error)
	GetByPaymentLinkID(ctx context.Context, linkID string) (quotation.Quotation, error)
	List(ctx context.Context) ([]quotation.Quotation, error)
	SetPaymentLink(ctx context.Context, id uuid.UUID, linkID string) error
	UpdatePayment(ctx context.Context, id uuid.UUID, paymentID, status string) error
}
