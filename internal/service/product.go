package service

import (
	"context"
	"fmt"

	"github.com/danhyun/simpleshop/internal/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProductService handles catalog CRUD. Ownership-checked deletion of a
// product is delegated to the ImageService so remote blobs never outlive
// their product.
type ProductService struct {
	products domain.ProductRepository
	images   *ImageService
}

// NewProductService creates a new ProductService.
func NewProductService(products domain.ProductRepository, images *ImageService) *ProductService {
	return &ProductService{products: products, images: images}
}

// Create registers a new product owned by the caller. The image list starts
// empty; uploads go through the ImageService.
func (s *ProductService) Create(ctx context.Context, callerID int64, name, description string, price int64) (*domain.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}

	product := &domain.Product{
		Name:        name,
		Description: description,
		Price:       price,
		WriterID:    callerID,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// GetByID returns a product with its images ordered by position.
func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// List returns one page of products. Page is zero-based; size defaults to 10
// and is capped at 100. Unrecognized sort keys silently fall back to "latest".
func (s *ProductService) List(ctx context.Context, page, size int, sortBy string) (*domain.ProductPage, error) {
	if size == 0 {
		size = defaultPageSize
	}
	if page < 0 || size < 1 || size > maxPageSize {
		return nil, fmt.Errorf("%w: page must be >= 0 and size between 1 and %d", domain.ErrInvalidInput, maxPageSize)
	}

	sort := domain.SortKey(sortBy)
	switch sort {
	case domain.SortPriceAsc, domain.SortPriceDesc:
	default:
		sort = domain.SortLatest
	}

	return s.products.List(ctx, domain.ListParams{Page: page, Size: size, Sort: sort})
}

// UpdateFields carries a partial product update. Nil fields keep their
// prior value.
type UpdateFields struct {
	Name        *string
	Description *string
	Price       *int64
}

// Update applies a partial update after an ownership check.
func (s *ProductService) Update(ctx context.Context, callerID, id int64, fields UpdateFields) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.WriterID != callerID {
		return nil, domain.ErrForbidden
	}

	if fields.Name != nil {
		if *fields.Name == "" {
			return nil, fmt.Errorf("%w: product name must not be empty", domain.ErrInvalidInput)
		}
		product.Name = *fields.Name
	}
	if fields.Description != nil {
		product.Description = *fields.Description
	}
	if fields.Price != nil {
		if *fields.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
		}
		product.Price = *fields.Price
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product after an ownership check, cascading through the
// image lifecycle so remote blobs are released first.
func (s *ProductService) Delete(ctx context.Context, callerID, id int64) error {
	return s.images.DeleteProductCascade(ctx, id, callerID)
}
