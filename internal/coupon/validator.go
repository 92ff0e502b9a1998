package coupon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pronto/internal/domain"
	"pronto/internal/dto"
	apperrors "pronto/internal/errors"
)

// Validator runs the discount engine against a candidate cart without
// touching any order. Rejections come back as valid=false with the reason,
// not as errors: a preview is allowed to fail.
//
// The first-time-only check is skipped here; it needs the customer identity
// that only checkout has.
type Validator struct {
	repo     Repository
	products ProductResolver
	logger   *zap.Logger
}

func NewValidator(repo Repository, products ProductResolver, logger *zap.Logger) *Validator {
	return &Validator{
		repo:     repo,
		products: products,
		logger:   logger,
	}
}

func (v *Validator) Preview(ctx context.Context, req dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error) {
	candidate, err := v.buildCandidate(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	coupon, err := v.repo.FindByCode(ctx, req.Code)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return &dto.ValidateCouponResponse{
				Valid:    false,
				Reason:   "Invalid or expired coupon code",
				Subtotal: candidate.Subtotal,
				Discount: decimal.Zero,
			}, nil
		}
		return nil, err
	}

	if err := coupon.ValidateForOrder(candidate, time.Now().UTC()); err != nil {
		cre, ok := apperrors.IsCouponRejectedError(err)
		if !ok {
			return nil, err
		}
		return &dto.ValidateCouponResponse{
			Valid:    false,
			Reason:   cre.Reason,
			Subtotal: candidate.Subtotal,
			Discount: decimal.Zero,
		}, nil
	}

	return &dto.ValidateCouponResponse{
		Valid:    true,
		Subtotal: candidate.Subtotal,
		Discount: coupon.ComputeDiscount(candidate.Subtotal),
	}, nil
}

func (v *Validator) buildCandidate(ctx context.Context, items []dto.OrderItemRequest) (domain.OrderCandidate, error) {
	candidate := domain.OrderCandidate{Subtotal: decimal.Zero}

	for _, it := range items {
		product, err := v.products.FindByID(ctx, it.ProductID)
		if err != nil {
			if _, ok := apperrors.IsNotFoundError(err); ok {
				return candidate, apperrors.NewItemUnavailableError(it.ProductID, "product not found")
			}
			return candidate, err
		}
		if !product.IsAvailable {
			return candidate, apperrors.NewItemUnavailableError(it.ProductID, "product is currently unavailable")
		}

		candidate.Items = append(candidate.Items, domain.CandidateItem{
			ProductID: product.ID,
			Category:  product.Category,
		})
		candidate.Subtotal = candidate.Subtotal.Add(
			product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	return candidate, nil
}
