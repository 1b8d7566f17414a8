package repository

import (
	"context"
	"errors"

	"waconsole/internal/domain/quotation"
	waerrors "waconsole/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresQuotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) QuotationRepository {
	return &PostgresQuotationRepository{db: db}
}

func (r *PostgresQuotationRepository) Create(ctx context.Context, q *quotation.Quotation) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *PostgresQuotationRepository) GetByID(ctx context.Context, id uuid.UUID) (quotation.Quotation, error) {
	var q quotation.Quotation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return quotation.Quotation{}, waerrors.ErrNotFound
		}
		return quotation.Quotation{}, err
	}
	return q, nil
}

func (r *PostgresQuotationRepository) GetByPaymentLinkID(ctx context.Context, linkID string) (quotation.Quotation, error) {
	var q quotation.Quotation
	err := r.db.WithContext(ctx).Where("payment_link_id = ?", linkID).First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return quotation.Quotation{}, waerrors.ErrNotFound
		}
		return quotation.Quotation{}, err
	}
	return q, nil
}

func (r *PostgresQuotationRepository) SetPaymentLink(ctx context.Context, id uuid.UUID, linkID string) error {
	result := r.db.WithContext(ctx).Model(&quotation.Quotation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_link_id": linkID,
			"payment_status":  quotation.PaymentStatusCreated,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return waerrors.ErrNotFound
	}
	return nil
}

func (r *PostgresQuotationRepository) UpdatePayment(ctx context.Context, id uuid.UUID, paymentID, status string) error {
	result := r.db.WithContext(ctx).Model(&quotation.Quotation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_id":     paymentID,
			"payment_status": status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return waerrors.ErrNotFound
	}
	return nil
}

func (r *PostgresQuotationRepository) List(ctx context.Context) ([]quotation.Quotation, error) {
	var quotations []quotation.Quotation
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&quotations).Error
	if err != nil {
		return nil, err
	}
	return quotations, nil
}
