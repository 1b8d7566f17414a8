package quotation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Payment lifecycle of a sent quotation, driven by provider link events.
const (
	PaymentStatusCreated = "CREATED"
	PaymentStatusPaid    = "PAID"
	PaymentStatusFailed  = "FAILED"
)

// Quotation represents the quotations table.
type Quotation struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerName  string
	ContactNumber string
	Address       sql.NullString
	ProductID     uuid.UUID `gorm:"type:uuid"`
	ContactID     uuid.UUID `gorm:"type:uuid;index"`
	Quantity      int
	Price         float64
	Total         float64
	// PaymentLinkID ties provider payment webhooks back to the quotation
	// that issued the link.
	PaymentLinkID sql.NullString `gorm:"index"`
	PaymentID     sql.NullString
	PaymentStatus string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Quotation) TableName() string {
	return "quotations"
}
