package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"waconsole/internal/domain/contact"
	waerrors "waconsole/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &PostgresContactRepository{db: db}
}

func (r *PostgresContactRepository) UpsertByPhone(ctx context.Context, phone, name string) (contact.Contact, error) {
	existing, err := r.GetByPhone(ctx, phone)
	if err == nil {
		if name != "" && name != existing.Name {
			res := r.db.WithContext(ctx).
				Model(&contact.Contact{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{"name": name, "updated_at": time.Now()})
			if res.Error != nil {
				return contact.Contact{}, res.Error
			}
			existing.Name = name
		}
		return existing, nil
	}
	if !errors.Is(err, waerrors.ErrNotFound) {
		return contact.Contact{}, err
	}

	created := contact.Contact{
		ID:    uuid.New(),
		Name:  name,
		Phone: phone,
	}
	if created.Name == "" {
		created.Name = phone
	}
	res := r.db.WithContext(ctx).Create(&created)
	if res.Error != nil {
		// Concurrent upsert for the same phone; the other writer won.
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return r.GetByPhone(ctx, phone)
		}
		return contact.Contact{}, res.Error
	}
	return created, nil
}

func (r *PostgresContactRepository) GetByID(ctx context.Context, id uuid.UUID) (contact.Contact, error) {
	var c contact.Contact
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return contact.Contact{}, waerrors.ErrNotFound
		}
		return contact.Contact{}, err
	}
	return c, nil
}

func (r *PostgresContactRepository) GetByPhone(ctx context.Context, phone string) (contact.Contact, error) {
	var c contact.Contact
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return contact.Contact{}, waerrors.ErrNotFound
		}
		return contact.Contact{}, err
	}
	return c, nil
}

func (r *PostgresContactRepository) List(ctx context.Context) ([]contact.Contact, error) {
	var contacts []contact.Contact
	err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *PostgresContactRepository) IncrementUnread(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&contact.Contact{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"unread_count": gorm.Expr("unread_count + 1"),
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return waerrors.ErrNotFound
	}
	return nil
}

func (r *PostgresContactRepository) ResetUnread(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&contact.Contact{}).
		Where("id = ?", id).
		Update("unread_count", 0)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return waerrors.ErrNotFound
	}
	return nil
}

func (r *PostgresContactRepository) TouchActivity(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&contact.Contact{}).
		Where("id = ?", id).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return waerrors.ErrNotFound
	}
	return nil
}

func (r *PostgresContactRepository) UpdateLastAddress(ctx context.Context, id uuid.UUID, address string) error {
	res := r.db.WithContext(ctx).
		Model(&contact.Contact{}).
		Where("id = ?", id).
		Update("last_address", sql.NullString{String: address, Valid: address != ""})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return waerrors.ErrNotFound
	}
	return nil
}
