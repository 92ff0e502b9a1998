package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pronto/internal/errors"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestOrder(discount *DiscountSnapshot) *Order {
	return NewOrder(NewOrderParams{
		ID:          "ord-1",
		OrderNumber: "PZ123456001",
		Customer: CustomerInfo{
			Name:  "John Doe",
			Phone: "5551234567",
			Address: Address{
				Street:  "123 Main St",
				City:    "Springfield",
				State:   "IL",
				ZipCode: "62701",
			},
		},
		Items: []OrderItem{
			{ProductID: "pz-1", Name: "Margherita", UnitPrice: money("12.00"), Quantity: 1, LineTotal: money("12.00")},
			{ProductID: "pz-2", Name: "Pepperoni", UnitPrice: money("8.00"), Quantity: 1, LineTotal: money("8.00")},
		},
		Discount:      discount,
		DeliveryFee:   money("2.99"),
		TaxRate:       money("0.08"),
		PaymentMethod: "Razorpay",
		Now:           time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
}

func TestNewOrder_ComputesTotals(t *testing.T) {
	order := newTestOrder(nil)

	assert.True(t, order.Subtotal.Equal(money("20.00")), "subtotal = %s", order.Subtotal)
	assert.True(t, order.Tax.Equal(money("1.60")), "tax = %s", order.Tax)
	assert.True(t, order.Total.Equal(money("24.59")), "total = %s", order.Total)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, PaymentPending, order.PaymentStatus)
}

func TestNewOrder_WithDiscount_ScenarioWelcome10(t *testing.T) {
	// $20.00 subtotal, $2.00 discount, 8% tax on $18.00, $2.99 delivery.
	order := newTestOrder(&DiscountSnapshot{
		CouponCode:    "WELCOME10",
		Kind:          CouponPercentage,
		RawValue:      money("10"),
		AppliedAmount: money("2.00"),
	})

	assert.True(t, order.Tax.Equal(money("1.44")), "tax = %s", order.Tax)
	assert.True(t, order.Total.Equal(money("22.43")), "total = %s", order.Total)
}

func TestNewOrder_TotalNeverBelowDeliveryFee(t *testing.T) {
	// Discount can zero out item cost but never delivery or tax.
	order := NewOrder(NewOrderParams{
		ID:          "ord-2",
		OrderNumber: "PZ123456002",
		Items: []OrderItem{
			{ProductID: "pz-1", UnitPrice: money("5.00"), Quantity: 1, LineTotal: money("5.00")},
		},
		Discount: &DiscountSnapshot{
			CouponCode:    "FREEBIE",
			Kind:          CouponFixed,
			RawValue:      money("5.00"),
			AppliedAmount: money("5.00"),
		},
		DeliveryFee: money("2.99"),
		TaxRate:     money("0.08"),
		Now:         time.Now().UTC(),
	})

	assert.True(t, order.Total.GreaterThanOrEqual(order.DeliveryFee))
	assert.True(t, order.Total.Equal(money("2.99")))
}

func TestNewOrder_InitialHistoryAndEstimate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	order := newTestOrder(nil)

	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, StatusPending, order.StatusHistory[0].Status)
	assert.Equal(t, now.Add(30*time.Minute), order.EstimatedDeliveryAt)
	assert.Nil(t, order.ActualDeliveredAt)
}

func TestTransition_AppendsHistory(t *testing.T) {
	order := newTestOrder(nil)
	now := time.Now().UTC()

	err := order.Transition(StatusPreparing, "kitchen accepted", now)

	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, order.Status)
	require.Len(t, order.StatusHistory, 2)
	assert.Equal(t, "kitchen accepted", order.StatusHistory[1].Note)
}

func TestTransition_Invalid_NoHistoryWritten(t *testing.T) {
	order := newTestOrder(nil)

	err := order.Transition(StatusDelivered, "", time.Now().UTC())

	require.Error(t, err)
	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)
	assert.Equal(t, StatusPending, order.Status)
	assert.Len(t, order.StatusHistory, 1)
}

func TestTransition_OnTheWayRevisesEstimate(t *testing.T) {
	order := newTestOrder(nil)
	require.NoError(t, order.Transition(StatusPreparing, "", time.Now().UTC()))

	departed := time.Date(2025, 6, 1, 12, 40, 0, 0, time.UTC)
	require.NoError(t, order.Transition(StatusOnTheWay, "", departed))

	assert.Equal(t, departed.Add(15*time.Minute), order.EstimatedDeliveryAt)
}

func TestTransition_DeliveredStampsOnce(t *testing.T) {
	order := newTestOrder(nil)
	now := time.Now().UTC()
	require.NoError(t, order.Transition(StatusPreparing, "", now))
	require.NoError(t, order.Transition(StatusOnTheWay, "", now))

	delivered := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	require.NoError(t, order.Transition(StatusDelivered, "", delivered))

	require.NotNil(t, order.ActualDeliveredAt)
	assert.Equal(t, delivered, *order.ActualDeliveredAt)
}

func TestMarkPaid_AdvancesPendingToPreparing(t *testing.T) {
	order := newTestOrder(nil)
	now := time.Now().UTC()

	changed := order.MarkPaid("pay_123", "client", now)

	assert.True(t, changed)
	assert.Equal(t, PaymentPaid, order.PaymentStatus)
	assert.Equal(t, StatusPreparing, order.Status)
	require.Len(t, order.StatusHistory, 2)
	assert.Contains(t, order.StatusHistory[1].Note, "client")
	require.NotNil(t, order.Payment.PaidAt)
}

func TestMarkPaid_SecondCallIsNoOp(t *testing.T) {
	order := newTestOrder(nil)
	now := time.Now().UTC()

	assert.True(t, order.MarkPaid("pay_123", "client", now))
	historyLen := len(order.StatusHistory)

	assert.False(t, order.MarkPaid("pay_123", "webhook", now.Add(time.Second)))
	assert.Equal(t, PaymentPaid, order.PaymentStatus)
	assert.Equal(t, StatusPreparing, order.Status)
	assert.Len(t, order.StatusHistory, historyLen)
}

func TestMarkPaid_DoesNotRewindFulfillment(t *testing.T) {
	order := newTestOrder(nil)
	now := time.Now().UTC()
	require.NoError(t, order.Transition(StatusPreparing, "", now))
	require.NoError(t, order.Transition(StatusOnTheWay, "", now))

	changed := order.MarkPaid("pay_123", "webhook", now)

	assert.True(t, changed)
	assert.Equal(t, StatusOnTheWay, order.Status)
}

func TestMarkPaymentFailed_CancelsUnpaidOrder(t *testing.T) {
	order := newTestOrder(nil)

	changed := order.MarkPaymentFailed(time.Now().UTC())

	assert.True(t, changed)
	assert.Equal(t, PaymentFailed, order.PaymentStatus)
	assert.Equal(t, StatusCancelled, order.Status)
}

func TestMarkPaymentFailed_IgnoredAfterCapture(t *testing.T) {
	// A failed webhook delivered after a successful capture must not undo it.
	order := newTestOrder(nil)
	now := time.Now().UTC()
	require.True(t, order.MarkPaid("pay_123", "webhook", now))

	changed := order.MarkPaymentFailed(now.Add(time.Second))

	assert.False(t, changed)
	assert.Equal(t, PaymentPaid, order.PaymentStatus)
	assert.Equal(t, StatusPreparing, order.Status)
}

func TestMarkRefunded_LeavesStatusAlone(t *testing.T) {
	order := newTestOrder(nil)
	now := time.Now().UTC()
	require.True(t, order.MarkPaid("pay_123", "client", now))

	order.MarkRefunded("Refund processed: rfnd_1", now)

	assert.Equal(t, PaymentRefunded, order.PaymentStatus)
	assert.Equal(t, StatusPreparing, order.Status)
	assert.Equal(t, StatusPreparing, order.StatusHistory[len(order.StatusHistory)-1].Status)
}

func TestNewOrderNumber_Format(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	number := NewOrderNumber(now)

	assert.True(t, strings.HasPrefix(number, "PZ"))
	assert.Len(t, number, 11)
}

func TestRoundMoney_HalfUp(t *testing.T) {
	assert.True(t, RoundMoney(money("1.445")).Equal(money("1.45")))
	assert.True(t, RoundMoney(money("1.444")).Equal(money("1.44")))
}
