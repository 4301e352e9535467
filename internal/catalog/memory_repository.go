package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Product
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Product)}
}

func (r *memoryRepository) Create(_ context.Context, product Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[product.ID]; exists {
		return errors.New("product exists")
	}
	r.storage[product.ID] = product
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.storage[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return product, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	products := make([]Product, 0, len(r.storage))
	for _, product := range r.storage {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}
