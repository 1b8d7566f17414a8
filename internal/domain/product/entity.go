package product

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product represents the products table.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string
	Description sql.NullString
	Price       float64
	// Images holds a comma-separated list of image URLs.
	Images    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Product) TableName() string {
	return "products"
}

// ImageList splits the stored image URLs, dropping empty entries.
func (p Product) ImageList() []string {
	var urls []string
	for _, u := range strings.Split(p.Images, ",") {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}
