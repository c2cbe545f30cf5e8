package domain

import (
	"context"
	"time"
)

// Product is the aggregate root for a shop listing. It exclusively owns its
// ordered image list: images are loaded and saved with the product and cannot
// outlive it. WriterID is set at creation and never reassigned.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       int64 // smallest currency unit, never negative
	WriterID    int64
	Images      []ProductImage
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductImage is one entry in a product's ordered image list. Position is
// zero-based and dense: after every successful mutation the positions of a
// product's N images are exactly 0..N-1.
type ProductImage struct {
	ID         int64
	ProductID  int64
	ImageURL   string
	StorageKey string
	Position   int
	CreatedAt  time.Time
}

// SortKey selects the ordering of a product listing.
type SortKey string

const (
	SortLatest    SortKey = "latest"
	SortPriceAsc  SortKey = "priceAsc"
	SortPriceDesc SortKey = "priceDesc"
)

// ListParams carries paging and sorting for product listings.
// Page is zero-based.
type ListParams struct {
	Page int
	Size int
	Sort SortKey
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items []Product
	Page  int
	Size  int
	Total int
}

// ProductRepository persists product aggregates. GetByID returns the product
// with its images ordered by position. Save writes the product row and
// replaces the image list in one transaction; it returns ErrConflict when the
// aggregate was modified since it was loaded (stale version).
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, params ListParams) (*ProductPage, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id int64) error
}
