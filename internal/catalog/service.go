package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service exposes catalog operations.
type Service struct {
	repo Repository
}

// NewService builds a catalog service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput captures data required to add a product.
type CreateInput struct {
	Name        string
	Price       int64
	Description string
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	if input.Name == "" || input.Price <= 0 {
		return Product{}, ErrInvalidProduct
	}

	product := Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Price:       input.Price,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// Get fetches a product by identifier.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns all products, newest first.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}
