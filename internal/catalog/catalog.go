package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrProductNotFound occurs when a purchase references an unknown product.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidProduct rejects products without a name or a positive price.
	ErrInvalidProduct = errors.New("invalid product data")
)

// Product is a purchasable catalog item. Price is in base currency units.
type Product struct {
	ID          string
	Name        string
	Price       int64
	Description string
	CreatedAt   time.Time
}

// Repository persists catalog products.
type Repository interface {
	Create(ctx context.Context, product Product) error
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context) ([]Product, error)
}
