package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	couponrepo "pronto/internal/coupon/repository"
	"pronto/internal/domain"
	apperrors "pronto/internal/errors"
	orderrepo "pronto/internal/order/repository"
	"pronto/internal/testutil"
)

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, isDuplicateKeyError(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isDuplicateKeyError(&mysql.MySQLError{Number: 1213}))
	assert.False(t, isDuplicateKeyError(sql.ErrNoRows))
	assert.False(t, isDuplicateKeyError(nil))
}

func checkoutFixture(id, orderNumber string) *domain.Order {
	return domain.NewOrder(domain.NewOrderParams{
		ID:          id,
		OrderNumber: orderNumber,
		Customer: domain.CustomerInfo{
			Name:  "John Doe",
			Phone: "5551234567",
			Address: domain.Address{
				Street:  "123 Main St",
				City:    "Springfield",
				State:   "IL",
				ZipCode: "62701",
			},
		},
		Items: []domain.OrderItem{
			{ProductID: "pz-1", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.00"), Quantity: 1, LineTotal: decimal.RequireFromString("12.00")},
		},
		DeliveryFee:   decimal.RequireFromString("2.99"),
		TaxRate:       decimal.RequireFromString("0.08"),
		PaymentMethod: "Razorpay",
		Now:           time.Now().UTC().Truncate(time.Second),
	})
}

func TestPlaceOrder_CommitsOrderAndCouponTogether(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	orders := orderrepo.NewMySQLOrderRepository(db)
	coupons := couponrepo.NewMySQLCouponRepository(db)
	svc := NewCheckoutService(db, orders, coupons, zap.NewNop(), 5)

	limit := 5
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, coupons.Insert(context.Background(), &domain.Coupon{
		ID:             "cpn-1",
		Code:           "WELCOME10",
		Name:           "Welcome",
		Kind:           domain.CouponPercentage,
		Value:          decimal.RequireFromString("10"),
		MinOrderAmount: decimal.Zero,
		ValidFrom:      now.Add(-time.Hour),
		ValidUntil:     now.Add(time.Hour),
		UsageLimit:     &limit,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}))

	order := checkoutFixture("ord-checkout-1", domain.NewOrderNumber(now))

	require.NoError(t, svc.PlaceOrder(context.Background(), order, "cpn-1"))

	found, err := orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, found.OrderNumber)

	coupon, err := coupons.FindByCode(context.Background(), "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)
}

func TestPlaceOrder_ExhaustedCouponRollsBackOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	orders := orderrepo.NewMySQLOrderRepository(db)
	coupons := couponrepo.NewMySQLCouponRepository(db)
	svc := NewCheckoutService(db, orders, coupons, zap.NewNop(), 5)

	limit := 0
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, coupons.Insert(context.Background(), &domain.Coupon{
		ID:             "cpn-empty",
		Code:           "EMPTY",
		Name:           "Exhausted",
		Kind:           domain.CouponFixed,
		Value:          decimal.RequireFromString("5"),
		MinOrderAmount: decimal.Zero,
		ValidFrom:      now.Add(-time.Hour),
		ValidUntil:     now.Add(time.Hour),
		UsageLimit:     &limit,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}))

	order := checkoutFixture("ord-checkout-2", domain.NewOrderNumber(now))

	err := svc.PlaceOrder(context.Background(), order, "cpn-empty")

	require.Error(t, err)
	_, ok := apperrors.IsCouponRejectedError(err)
	assert.True(t, ok)

	_, err = orders.FindByID(context.Background(), order.ID)
	require.Error(t, err)
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok, "order must not survive a failed coupon consumption")
}

func TestPlaceOrder_RegeneratesNumberOnCollision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	orders := orderrepo.NewMySQLOrderRepository(db)
	coupons := couponrepo.NewMySQLCouponRepository(db)
	svc := NewCheckoutService(db, orders, coupons, zap.NewNop(), 5)

	now := time.Now().UTC().Truncate(time.Second)
	taken := checkoutFixture("ord-collision-1", domain.NewOrderNumber(now))
	require.NoError(t, svc.PlaceOrder(context.Background(), taken, ""))

	// Second order starts with the taken number and must retry with a new one.
	colliding := checkoutFixture("ord-collision-2", taken.OrderNumber)
	require.NoError(t, svc.PlaceOrder(context.Background(), colliding, ""))

	assert.NotEqual(t, taken.OrderNumber, colliding.OrderNumber)

	found, err := orders.FindByID(context.Background(), colliding.ID)
	require.NoError(t, err)
	assert.Equal(t, colliding.OrderNumber, found.OrderNumber)
}
