package database

import (
	"log"

	"waconsole/internal/domain/contact"
	"waconsole/internal/domain/product"

	"github.com/google/uuid"
)

// Seed inserts a demo contact and a couple of products for local
// development. Existing rows are left alone.
func Seed() error {
	var count int64
	if err := DB.Model(&contact.Contact{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := contact.Contact{
		ID:    uuid.New(),
		Name:  "Test User",
		Phone: "+911234567890",
	}
	if err := DB.Create(&demo).Error; err != nil {
		return err
	}

	products := []product.Product{
		{
			ID:     uuid.New(),
			Name:   "Steel Office Chair",
			Price:  500,
			Images: "https://example.com/chair-front.jpg,https://example.com/chair-side.jpg",
		},
		{
			ID:     uuid.New(),
			Name:   "Standing Desk",
			Price:  4200,
			Images: "https://example.com/desk.jpg",
		},
	}
	for i := range products {
		if err := DB.Create(&products[i]).Error; err != nil {
			return err
		}
	}

	log.Println("Seeded demo contact and products")
	return nil
}
