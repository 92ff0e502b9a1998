package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pronto/internal/errors"
)

func intPtr(i int) *int { return &i }

func moneyPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func welcome10() *Coupon {
	return &Coupon{
		ID:                "cpn-1",
		Code:              "WELCOME10",
		Name:              "Welcome Discount",
		Kind:              CouponPercentage,
		Value:             money("10"),
		MinOrderAmount:    money("20"),
		MaxDiscountAmount: moneyPtr("10"),
		ValidFrom:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UsageLimit:        intPtr(1000),
		IsActive:          true,
	}
}

func candidate(subtotal string, items ...CandidateItem) OrderCandidate {
	return OrderCandidate{Subtotal: money(subtotal), Items: items}
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func rejectionReason(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	cre, ok := apperrors.IsCouponRejectedError(err)
	require.True(t, ok, "expected coupon rejection, got %v", err)
	return cre.Reason
}

func TestValidateForOrder_Valid(t *testing.T) {
	err := welcome10().ValidateForOrder(candidate("20.00"), testNow)
	assert.NoError(t, err)
}

func TestValidateForOrder_Inactive(t *testing.T) {
	c := welcome10()
	c.IsActive = false

	reason := rejectionReason(t, c.ValidateForOrder(candidate("20.00"), testNow))
	assert.Equal(t, "Coupon is inactive", reason)
}

func TestValidateForOrder_OutsideWindow(t *testing.T) {
	c := welcome10()

	early := c.ValidFrom.Add(-time.Hour)
	reason := rejectionReason(t, c.ValidateForOrder(candidate("20.00"), early))
	assert.Equal(t, "Coupon is expired or not yet valid", reason)

	late := c.ValidUntil.Add(time.Hour)
	reason = rejectionReason(t, c.ValidateForOrder(candidate("20.00"), late))
	assert.Equal(t, "Coupon is expired or not yet valid", reason)
}

func TestValidateForOrder_UsageExhausted(t *testing.T) {
	c := welcome10()
	c.UsageLimit = intPtr(5)
	c.UsedCount = 5

	reason := rejectionReason(t, c.ValidateForOrder(candidate("20.00"), testNow))
	assert.Equal(t, "Coupon usage limit exceeded", reason)
}

func TestValidateForOrder_NoUsageLimit(t *testing.T) {
	c := welcome10()
	c.UsageLimit = nil
	c.UsedCount = 1_000_000

	assert.NoError(t, c.ValidateForOrder(candidate("20.00"), testNow))
}

func TestValidateForOrder_BelowMinimum_ScenarioB(t *testing.T) {
	reason := rejectionReason(t, welcome10().ValidateForOrder(candidate("15.00"), testNow))
	assert.Equal(t, "Minimum order amount of $20.00 required", reason)
}

func TestValidateForOrder_CheckOrderShortCircuits(t *testing.T) {
	// Inactive wins over every later check.
	c := welcome10()
	c.IsActive = false
	c.UsedCount = 9999
	c.UsageLimit = intPtr(1)

	reason := rejectionReason(t, c.ValidateForOrder(candidate("1.00"), testNow))
	assert.Equal(t, "Coupon is inactive", reason)
}

func TestValidateForOrder_ApplicableCategories(t *testing.T) {
	c := welcome10()
	c.ApplicableCategories = []string{"Veg"}

	err := c.ValidateForOrder(candidate("25.00", CandidateItem{ProductID: "pz-1", Category: "Non-Veg"}), testNow)
	reason := rejectionReason(t, err)
	assert.Equal(t, "Coupon not applicable to items in cart", reason)

	err = c.ValidateForOrder(candidate("25.00",
		CandidateItem{ProductID: "pz-1", Category: "Non-Veg"},
		CandidateItem{ProductID: "pz-2", Category: "Veg"},
	), testNow)
	assert.NoError(t, err, "one matching category is enough")
}

func TestValidateForOrder_ApplicableProducts(t *testing.T) {
	c := welcome10()
	c.ApplicableProducts = []string{"pz-7"}

	err := c.ValidateForOrder(candidate("25.00", CandidateItem{ProductID: "pz-1"}), testNow)
	reason := rejectionReason(t, err)
	assert.Equal(t, "Coupon not applicable to items in cart", reason)

	err = c.ValidateForOrder(candidate("25.00", CandidateItem{ProductID: "pz-7"}), testNow)
	assert.NoError(t, err)
}

func TestValidateForOrder_ExcludedProducts(t *testing.T) {
	c := welcome10()
	c.ExcludedProducts = []string{"pz-9"}

	err := c.ValidateForOrder(candidate("25.00",
		CandidateItem{ProductID: "pz-1"},
		CandidateItem{ProductID: "pz-9"},
	), testNow)
	reason := rejectionReason(t, err)
	assert.Equal(t, "Coupon not applicable to some items in cart", reason)

	err = c.ValidateForOrder(candidate("25.00", CandidateItem{ProductID: "pz-1"}), testNow)
	assert.NoError(t, err)
}

func TestComputeDiscount_Percentage_ScenarioA(t *testing.T) {
	amount := welcome10().ComputeDiscount(money("20.00"))
	assert.True(t, amount.Equal(money("2.00")), "discount = %s", amount)
}

func TestComputeDiscount_Fixed(t *testing.T) {
	c := &Coupon{Code: "SAVE5", Kind: CouponFixed, Value: money("5")}

	amount := c.ComputeDiscount(money("30.00"))
	assert.True(t, amount.Equal(money("5.00")))
}

func TestComputeDiscount_CappedByMax(t *testing.T) {
	c := welcome10()

	// 10% of $500 is $50, capped at $10.
	amount := c.ComputeDiscount(money("500.00"))
	assert.True(t, amount.Equal(money("10.00")), "discount = %s", amount)
}

func TestComputeDiscount_MaxCapAppliesToFixedToo(t *testing.T) {
	c := &Coupon{Code: "BIG", Kind: CouponFixed, Value: money("50"), MaxDiscountAmount: moneyPtr("20")}

	amount := c.ComputeDiscount(money("100.00"))
	assert.True(t, amount.Equal(money("20.00")))
}

func TestComputeDiscount_NeverExceedsSubtotal(t *testing.T) {
	c := &Coupon{Code: "SAVE5", Kind: CouponFixed, Value: money("5")}

	amount := c.ComputeDiscount(money("3.50"))
	assert.True(t, amount.Equal(money("3.50")))
}

func TestComputeDiscount_RoundsHalfUp(t *testing.T) {
	c := &Coupon{Code: "ODD", Kind: CouponPercentage, Value: money("10")}

	// 10% of $10.05 = $1.005 -> $1.01
	amount := c.ComputeDiscount(money("10.05"))
	assert.True(t, amount.Equal(money("1.01")), "discount = %s", amount)
}

func TestComputeDiscount_NeverNegative(t *testing.T) {
	c := &Coupon{Code: "ZERO", Kind: CouponPercentage, Value: money("0")}

	amount := c.ComputeDiscount(money("20.00"))
	assert.True(t, amount.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, amount.Equal(decimal.Zero.Round(2)))
}
