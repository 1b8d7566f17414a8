package repository

import (
	"context"
	"errors"
	"time"

	"waconsole/internal/domain/message"
	waerrors "waconsole/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return waerrors.ErrAlreadyExists
		}
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return waerrors.ErrNotFound
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, waerrors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) GetByExternalID(ctx context.Context, externalID string) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, waerrors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]message.Message, error) {
	var messages []message.Message
	// Creation time is the canonical per-contact order; id breaks ties.
	err := r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) LastByContact(ctx context.Context, contactID uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, waerrors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&message.Message{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return waerrors.ErrNotFound
	}
	return nil
}
