// Package postgres provides a pgx-backed ProductStore.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalog "github.com/bimdevops/catalog-api"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Store persists products in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// compile-time check
var _ catalog.ProductStore = (*Store)(nil)

// New connects to the database and verifies the connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// EnsureSchema creates the products table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id             UUID PRIMARY KEY,
			name           VARCHAR(200) NOT NULL,
			description    VARCHAR(1000),
			price          NUMERIC(18,2) NOT NULL,
			stock_quantity INTEGER NOT NULL,
			category       VARCHAR(50),
			sku            VARCHAR(100),
			is_active      BOOLEAN NOT NULL DEFAULT TRUE,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ,
			created_by     VARCHAR(100),
			updated_by     VARCHAR(100)
		);
		CREATE UNIQUE INDEX IF NOT EXISTS products_sku_key ON products (sku) WHERE sku IS NOT NULL;
	`)
	if err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// Seed inserts the given products when the table is empty.
func (s *Store) Seed(ctx context.Context, products []catalog.Product) error {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("postgres: seed count: %w", err)
	}
	if count > 0 {
		return nil
	}
	for i := range products {
		if err := s.Create(ctx, &products[i]); err != nil {
			return fmt.Errorf("postgres: seed: %w", err)
		}
	}
	return nil
}

const productColumns = `id, name, description, price, stock_quantity, category, sku, is_active, created_at, updated_at, created_by, updated_by`

// List returns active products ordered by name.
func (s *Store) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	return products, nil
}

// Get returns the product with the given id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get product: %w", err)
	}
	return &p, nil
}

// Create inserts a product, assigning an id if none is set.
func (s *Store) Create(ctx context.Context, p *catalog.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Name, nullable(p.Description), p.Price, p.StockQuantity,
		nullable(p.Category), nullable(p.SKU), p.IsActive,
		p.CreatedAt, p.UpdatedAt, nullable(p.CreatedBy), nullable(p.UpdatedBy))
	if isUniqueViolation(err) {
		return catalog.ErrDuplicateSKU
	}
	if err != nil {
		return fmt.Errorf("postgres: create product: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing product.
func (s *Store) Update(ctx context.Context, p *catalog.Product) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE products SET
			name = $2, description = $3, price = $4, stock_quantity = $5,
			category = $6, sku = $7, is_active = $8, updated_at = $9, updated_by = $10
		WHERE id = $1`,
		p.ID, p.Name, nullable(p.Description), p.Price, p.StockQuantity,
		nullable(p.Category), nullable(p.SKU), p.IsActive, p.UpdatedAt, nullable(p.UpdatedBy))
	if isUniqueViolation(err) {
		return catalog.ErrDuplicateSKU
	}
	if err != nil {
		return fmt.Errorf("postgres: update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (catalog.Product, error) {
	var (
		p           catalog.Product
		description *string
		category    *string
		sku         *string
		createdBy   *string
		updatedBy   *string
	)
	err := row.Scan(&p.ID, &p.Name, &description, &p.Price, &p.StockQuantity,
		&category, &sku, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &createdBy, &updatedBy)
	if err != nil {
		return catalog.Product{}, err
	}
	p.Description = deref(description)
	p.Category = deref(category)
	p.SKU = deref(sku)
	p.CreatedBy = deref(createdBy)
	p.UpdatedBy = deref(updatedBy)
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
