package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateCouponRequest struct {
	Code                 string           `json:"code"`
	Name                 string           `json:"name"`
	Description          string           `json:"description,omitempty"`
	Kind                 string           `json:"kind"`
	Value                decimal.Decimal  `json:"value"`
	MinOrderAmount       decimal.Decimal  `json:"minOrderAmount"`
	MaxDiscountAmount    *decimal.Decimal `json:"maxDiscountAmount,omitempty"`
	ValidFrom            time.Time        `json:"validFrom"`
	ValidUntil           time.Time        `json:"validUntil"`
	UsageLimit           *int             `json:"usageLimit,omitempty"`
	ApplicableCategories []string         `json:"applicableCategories,omitempty"`
	ApplicableProducts   []string         `json:"applicableProducts,omitempty"`
	ExcludedProducts     []string         `json:"excludedProducts,omitempty"`
	FirstTimeOnly        bool             `json:"firstTimeOnly"`
}

type CouponResponse struct {
	ID                   string           `json:"id"`
	Code                 string           `json:"code"`
	Name                 string           `json:"name"`
	Description          string           `json:"description,omitempty"`
	Kind                 string           `json:"kind"`
	Value                decimal.Decimal  `json:"value"`
	MinOrderAmount       decimal.Decimal  `json:"minOrderAmount"`
	MaxDiscountAmount    *decimal.Decimal `json:"maxDiscountAmount,omitempty"`
	ValidFrom            time.Time        `json:"validFrom"`
	ValidUntil           time.Time        `json:"validUntil"`
	UsageLimit           *int             `json:"usageLimit,omitempty"`
	UsedCount            int              `json:"usedCount"`
	ApplicableCategories []string         `json:"applicableCategories,omitempty"`
	ApplicableProducts   []string         `json:"applicableProducts,omitempty"`
	ExcludedProducts     []string         `json:"excludedProducts,omitempty"`
	FirstTimeOnly        bool             `json:"firstTimeOnly"`
	IsActive             bool             `json:"isActive"`
}

type ValidateCouponRequest struct {
	Code  string             `json:"code"`
	Items []OrderItemRequest `json:"items"`
}

type ValidateCouponResponse struct {
	Valid    bool            `json:"valid"`
	Reason   string          `json:"reason,omitempty"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
}

type ToggleCouponRequest struct {
	IsActive bool `json:"isActive"`
}
