package services

import (
	"context"
	"strings"

	"waconsole/internal/domain/product"
	"waconsole/internal/repository"
	waerrors "waconsole/pkg/errors"

	"github.com/google/uuid"
)

// ProductService manages the product catalog behind product shares and
// quotations.
type ProductService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

// ProductInput carries the mutable fields of a product.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Images      []string
}

func (i ProductInput) validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return waerrors.ErrInvalidInput
	}
	if i.Price < 0 {
		return waerrors.ErrInvalidInput
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, input ProductInput) (product.Product, error) {
	if err := input.validate(); err != nil {
		return product.Product{}, err
	}

	p := product.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: nullStringOf(input.Description),
		Price:       input.Price,
		Images:      strings.Join(input.Images, ","),
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (product.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context) ([]product.Product, error) {
	return s.products.List(ctx)
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (product.Product, error) {
	if err := input.validate(); err != nil {
		return product.Product{}, err
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return product.Product{}, err
	}

	p.Name = strings.TrimSpace(input.Name)
	p.Description = nullStringOf(input.Description)
	p.Price = input.Price
	p.Images = strings.Join(input.Images, ",")

	if err := s.products.Update(ctx, p); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}
