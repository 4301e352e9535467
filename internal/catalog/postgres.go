package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores products in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a product record.
func (r *PostgresRepository) Create(ctx context.Context, product Product) error {
	productID, err := uuid.Parse(product.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO products (id, name, price, description, created_at)
        VALUES ($1, $2, $3, $4, $5)`, productID, product.Name, product.Price, product.Description, product.CreatedAt.UTC())
	return err
}

// Get fetches a product by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return Product{}, ErrProductNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, name, price, description, created_at FROM products WHERE id = $1`, productID)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return product, nil
}

// List returns all products, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, price, description, created_at FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		product   Product
	)
	if err := row.Scan(&id, &product.Name, &product.Price, &product.Description, &createdAt); err != nil {
		return Product{}, err
	}
	product.ID = id.String()
	product.CreatedAt = createdAt.UTC()
	return product, nil
}
