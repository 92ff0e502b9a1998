package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "pronto/internal/errors"
)

type CouponKind string

const (
	CouponPercentage CouponKind = "percentage"
	CouponFixed      CouponKind = "fixed"
)

// Coupon is the live discount policy. Orders capture a DiscountSnapshot at
// creation and never re-read this record.
type Coupon struct {
	ID                   string
	Code                 string
	Name                 string
	Description          string
	Kind                 CouponKind
	Value                decimal.Decimal
	MinOrderAmount       decimal.Decimal
	MaxDiscountAmount    *decimal.Decimal
	ValidFrom            time.Time
	ValidUntil           time.Time
	UsageLimit           *int
	UsedCount            int
	ApplicableCategories []string
	ApplicableProducts   []string
	ExcludedProducts     []string
	FirstTimeOnly        bool
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// OrderCandidate is the slice of an order the discount engine looks at.
type OrderCandidate struct {
	Subtotal decimal.Decimal
	Items    []CandidateItem
}

type CandidateItem struct {
	ProductID string
	Category  string
}

// ValidateForOrder runs the eligibility checks in a fixed order and stops at
// the first failure. It reads coupon state only; consuming usage is the order
// transaction's job so the usage-limit check can be redone atomically there.
func (c *Coupon) ValidateForOrder(candidate OrderCandidate, now time.Time) error {
	if !c.IsActive {
		return apperrors.NewCouponRejectedError(c.Code, "Coupon is inactive")
	}

	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return apperrors.NewCouponRejectedError(c.Code, "Coupon is expired or not yet valid")
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return apperrors.NewCouponRejectedError(c.Code, "Coupon usage limit exceeded")
	}

	if candidate.Subtotal.LessThan(c.MinOrderAmount) {
		return apperrors.NewCouponRejectedError(c.Code,
			fmt.Sprintf("Minimum order amount of $%s required", c.MinOrderAmount.StringFixed(2)))
	}

	if len(c.ApplicableCategories) > 0 {
		if !anyCategoryMatches(candidate.Items, c.ApplicableCategories) {
			return apperrors.NewCouponRejectedError(c.Code, "Coupon not applicable to items in cart")
		}
	}

	if len(c.ApplicableProducts) > 0 {
		if !anyProductMatches(candidate.Items, c.ApplicableProducts) {
			return apperrors.NewCouponRejectedError(c.Code, "Coupon not applicable to items in cart")
		}
	}

	if len(c.ExcludedProducts) > 0 {
		if anyProductMatches(candidate.Items, c.ExcludedProducts) {
			return apperrors.NewCouponRejectedError(c.Code, "Coupon not applicable to some items in cart")
		}
	}

	return nil
}

// ComputeDiscount turns the coupon terms into a concrete amount: percentage
// of the subtotal or the fixed value, capped by MaxDiscountAmount when set,
// never more than the subtotal, rounded half up to 2 places.
func (c *Coupon) ComputeDiscount(subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	if c.Kind == CouponPercentage {
		amount = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100))
	} else {
		amount = c.Value
	}

	if c.MaxDiscountAmount != nil && amount.GreaterThan(*c.MaxDiscountAmount) {
		amount = *c.MaxDiscountAmount
	}

	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}

	return RoundMoney(amount)
}

func anyCategoryMatches(items []CandidateItem, categories []string) bool {
	for _, it := range items {
		for _, cat := range categories {
			if it.Category == cat {
				return true
			}
		}
	}
	return false
}

func anyProductMatches(items []CandidateItem, products []string) bool {
	for _, it := range items {
		for _, id := range products {
			if it.ProductID == id {
				return true
			}
		}
	}
	return false
}
