package contact

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Contact represents the contacts table. The phone number is the join key
// for inbound provider events and must stay unique.
type Contact struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string
	Phone       string    `gorm:"uniqueIndex"`
	AvatarURL   sql.NullString
	LastAddress sql.NullString
	UnreadCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Contact) TableName() string {
	return "contacts"
}
