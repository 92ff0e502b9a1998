package catalog

import (
	"context"

	"pronto/internal/domain"
)

// Repository is the catalog collaborator the order core consumes: resolve a
// product's current price, availability and category at checkout time.
type Repository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	ListAvailable(ctx context.Context) ([]domain.Product, error)
}
