package coupon

import (
	"context"

	"pronto/internal/domain"
)

type Repository interface {
	Insert(ctx context.Context, c *domain.Coupon) error
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	SetActive(ctx context.Context, code string, active bool) error
}

// ProductResolver prices the candidate cart for the validation preview.
type ProductResolver interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
}
