package httpdto

import (
	"database/sql"
	"time"

	"waconsole/internal/domain/contact"
	"waconsole/internal/domain/message"
	"waconsole/internal/domain/product"
	"waconsole/internal/domain/quotation"

	"github.com/google/uuid"
)

// Wire shapes for domain entities. Nullable columns serialize as plain
// values or disappear, instead of leaking sql.Null* wrappers.

type MessageView struct {
	ID          uuid.UUID `json:"id"`
	ContactID   uuid.UUID `json:"contact_id"`
	Sender      string    `json:"sender"`
	Recipient   string    `json:"recipient"`
	Kind        string    `json:"kind"`
	Text        *string   `json:"text,omitempty"`
	MediaURL    *string   `json:"media_url,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	ReplyToText *string   `json:"reply_to_text,omitempty"`
	ExternalID  *string   `json:"external_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewMessageView(m message.Message) MessageView {
	return MessageView{
		ID:          m.ID,
		ContactID:   m.ContactID,
		Sender:      m.Sender,
		Recipient:   m.Recipient,
		Kind:        m.Kind,
		Text:        stringValue(m.Text),
		MediaURL:    stringValue(m.MediaURL),
		Price:       floatValue(m.Price),
		ReplyToText: stringValue(m.ReplyToText),
		ExternalID:  stringValue(m.ExternalID),
		CreatedAt:   m.CreatedAt,
	}
}

func NewMessageViews(msgs []message.Message) []MessageView {
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, NewMessageView(m))
	}
	return views
}

type ContactView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	LastAddress *string   `json:"last_address,omitempty"`
	UnreadCount int       `json:"unread_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewContactView(ct contact.Contact) ContactView {
	return ContactView{
		ID:          ct.ID,
		Name:        ct.Name,
		Phone:       ct.Phone,
		AvatarURL:   stringValue(ct.AvatarURL),
		LastAddress: stringValue(ct.LastAddress),
		UnreadCount: ct.UnreadCount,
		CreatedAt:   ct.CreatedAt,
		UpdatedAt:   ct.UpdatedAt,
	}
}

// ContactPreviewView is one sidebar row.
type ContactPreviewView struct {
	ContactView
	LastMessage *MessageView `json:"last_message,omitempty"`
}

func NewContactPreviewView(ct contact.Contact, last *message.Message) ContactPreviewView {
	view := ContactPreviewView{ContactView: NewContactView(ct)}
	if last != nil {
		m := NewMessageView(*last)
		view.LastMessage = &m
	}
	return view
}

type ProductView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewProductView(p product.Product) ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: stringValue(p.Description),
		Price:       p.Price,
		Images:      p.ImageList(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewProductViews(products []product.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductView(p))
	}
	return views
}

type QuotationView struct {
	ID            uuid.UUID `json:"id"`
	CustomerName  string    `json:"customer_name"`
	ContactNumber string    `json:"contact_number"`
	Address       *string   `json:"address,omitempty"`
	ProductID     uuid.UUID `json:"product_id"`
	ContactID     uuid.UUID `json:"contact_id"`
	Quantity      int       `json:"quantity"`
	Price         float64   `json:"price"`
	Total         float64   `json:"total"`
	PaymentLinkID *string   `json:"payment_link_id,omitempty"`
	PaymentID     *string   `json:"payment_id,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewQuotationView(q quotation.Quotation) QuotationView {
	return QuotationView{
		ID:            q.ID,
		CustomerName:  q.CustomerName,
		ContactNumber: q.ContactNumber,
		Address:       stringValue(q.Address),
		ProductID:     q.ProductID,
		ContactID:     q.ContactID,
		Quantity:      q.Quantity,
		Price:         q.Price,
		Total:         q.Total,
		PaymentLinkID: stringValue(q.PaymentLinkID),
		PaymentID:     stringValue(q.PaymentID),
		PaymentStatus: q.PaymentStatus,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

func NewQuotationViews(quotations []quotation.Quotation) []QuotationView {
	views := make([]QuotationView, 0, len(quotations))
	for _, q := range quotations {
		views = append(views, NewQuotationView(q))
	}
	return views
}

func stringValue(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func floatValue(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}
