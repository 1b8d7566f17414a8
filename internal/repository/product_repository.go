package repository

import (
	"context"
	"errors"
	"time"

	"waconsole/internal/domain/product"
	waerrors "waconsole/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &PostgresProductRepository{db: db}
}

func (r *PostgresProductRepository) Create(ctx context.Context, p *product.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).Create(p)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return waerrors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id uuid.UUID) (product.Product, error) {
	var p product.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return product.Product{}, waerrors.ErrNotFound
		}
		return product.Product{}, err
	}
	return p, nil
}

func (r *PostgresProductRepository) List(ctx context.Context) ([]product.Product, error) {
	var products []product.Product
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PostgresProductRepository) Update(ctx context.Context, p product.Product) error {
	p.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Save(&p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return waerrors.ErrNotFound
	}
	return nil
}

func (r *PostgresProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&product.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return waerrors.ErrNotFound
	}
	return nil
}
