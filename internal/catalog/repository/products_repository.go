package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"pronto/internal/domain"
	apperrors "pronto/internal/errors"
)

type MySQLProductRepository struct {
	db *sql.DB
}

func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

func (r *MySQLProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, category, isAvailable, createdAt, updatedAt
		FROM products
		WHERE id = ?
	`

	var (
		product domain.Product
		price   string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.Description, &price,
		&product.Category, &product.IsAvailable, &product.CreatedAt, &product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by id: %w", err)
	}

	product.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parsing product price: %w", err)
	}

	return &product, nil
}

func (r *MySQLProductRepository) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, description, price, category, isAvailable, createdAt, updatedAt
		FROM products
		WHERE isAvailable = TRUE
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			product domain.Product
			price   string
		)
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &price,
			&product.Category, &product.IsAvailable, &product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		product.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parsing product price: %w", err)
		}
		products = append(products, product)
	}

	return products, rows.Err()
}
