// Package memory provides an in-memory ProductStore for development and
// tests. Safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	catalog "github.com/bimdevops/catalog-api"
	"github.com/google/uuid"
)

// Store is a mutex-guarded map-backed product store.
type Store struct {
	mu       sync.RWMutex
	products map[uuid.UUID]catalog.Product
	skus     map[string]uuid.UUID
}

// compile-time check
var _ catalog.ProductStore = (*Store)(nil)

// Option seeds the store at construction.
type Option func(*Store)

// WithProduct adds a product to the store. Panics on a duplicate SKU so a
// bad seed fails loudly at startup.
func WithProduct(p catalog.Product) Option {
	return func(s *Store) {
		if err := s.insert(p); err != nil {
			panic("memory: seed: " + err.Error())
		}
	}
}

// New creates an empty store, then applies seed options.
func New(opts ...Option) *Store {
	s := &Store{
		products: make(map[uuid.UUID]catalog.Product),
		skus:     make(map[string]uuid.UUID),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewSeeded creates a store pre-loaded with the demo catalog.
func NewSeeded() *Store {
	s := New()
	for _, p := range seedCatalog() {
		if err := s.insert(p); err != nil {
			panic("memory: seed: " + err.Error())
		}
	}
	return s
}

// List returns active products ordered by name.
func (s *Store) List(ctx context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.IsActive {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

// Get returns the product with the given id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

// Create inserts a product, assigning an id if none is set.
func (s *Store) Create(ctx context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return s.insert(*p)
}

// Update replaces an existing product.
func (s *Store) Update(ctx context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	if p.SKU != "" {
		if owner, taken := s.skus[p.SKU]; taken && owner != p.ID {
			return catalog.ErrDuplicateSKU
		}
	}
	if existing.SKU != "" && existing.SKU != p.SKU {
		delete(s.skus, existing.SKU)
	}
	if p.SKU != "" {
		s.skus[p.SKU] = p.ID
	}
	s.products[p.ID] = *p
	return nil
}

// Delete removes a product.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if p.SKU != "" {
		delete(s.skus, p.SKU)
	}
	delete(s.products, id)
	return nil
}

// insert requires s.mu held (or a store not yet shared).
func (s *Store) insert(p catalog.Product) error {
	if p.SKU != "" {
		if _, taken := s.skus[p.SKU]; taken {
			return catalog.ErrDuplicateSKU
		}
		s.skus[p.SKU] = p.ID
	}
	s.products[p.ID] = p
	return nil
}

// seedCatalog mirrors the demo inventory the service ships with.
func seedCatalog() []catalog.Product {
	type row struct {
		name     string
		price    float64
		stock    int
		category string
		sku      string
	}
	rows := []row{
		{"Product A", 99.99, 100, "Category 1", "SKU001"},
		{"Product B", 149.99, 75, "Category 1", "SKU002"},
		{"Product C", 199.99, 50, "Category 2", "SKU003"},
		{"Product D", 249.99, 60, "Category 2", "SKU004"},
		{"Product E", 299.99, 40, "Category 3", "SKU005"},
		{"Product F", 349.99, 30, "Category 3", "SKU006"},
		{"Product G", 399.99, 25, "Category 4", "SKU007"},
		{"Product H", 449.99, 20, "Category 4", "SKU008"},
		{"Product I", 499.99, 15, "Category 5", "SKU009"},
		{"Product J", 549.99, 10, "Category 5", "SKU010"},
		{"Product K", 599.99, 5, "Category 6", "SKU011"},
	}

	now := time.Now().UTC()
	products := make([]catalog.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, catalog.Product{
			ID:            uuid.New(),
			Name:          r.name,
			Description:   "Description for " + r.name,
			Price:         r.price,
			StockQuantity: r.stock,
			Category:      r.category,
			SKU:           r.sku,
			IsActive:      true,
			CreatedAt:     now,
		})
	}
	return products
}
