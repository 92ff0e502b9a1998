package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	apperrors "pronto/internal/errors"
)

const (
	initialDeliveryEstimate  = 30 * time.Minute
	onTheWayDeliveryEstimate = 15 * time.Minute
)

type Address struct {
	Street               string
	City                 string
	State                string
	ZipCode              string
	DeliveryInstructions string
}

type CustomerInfo struct {
	Name    string
	Phone   string
	Email   string
	Address Address
}

type OrderItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

type StatusHistoryEntry struct {
	Status    Status
	Timestamp time.Time
	Note      string
}

// DiscountSnapshot is the coupon denormalized into the order at creation.
// Later coupon edits or deletion never touch historical orders.
type DiscountSnapshot struct {
	CouponCode    string
	Kind          CouponKind
	RawValue      decimal.Decimal
	AppliedAmount decimal.Decimal
}

type PaymentDetails struct {
	GatewayOrderID   string
	GatewayPaymentID string
	TransactionID    string
	PaidAt           *time.Time
}

type Order struct {
	ID                  string
	OrderNumber         string
	Customer            CustomerInfo
	Items               []OrderItem
	Subtotal            decimal.Decimal
	Discount            *DiscountSnapshot
	DeliveryFee         decimal.Decimal
	Tax                 decimal.Decimal
	Total               decimal.Decimal
	Status              Status
	PaymentMethod       string
	PaymentStatus       PaymentStatus
	Payment             PaymentDetails
	StatusHistory       []StatusHistoryEntry
	EstimatedDeliveryAt time.Time
	ActualDeliveredAt   *time.Time
	SpecialInstructions string
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type NewOrderParams struct {
	ID                  string
	OrderNumber         string
	Customer            CustomerInfo
	Items               []OrderItem
	Discount            *DiscountSnapshot
	DeliveryFee         decimal.Decimal
	TaxRate             decimal.Decimal
	PaymentMethod       string
	SpecialInstructions string
	Now                 time.Time
}

// NewOrder computes every derived field up front: subtotal from the resolved
// line items, tax on the discounted subtotal, the initial history entry and
// the delivery estimate. Nothing mutates these during persistence.
func NewOrder(p NewOrderParams) *Order {
	subtotal := decimal.Zero
	for _, it := range p.Items {
		subtotal = subtotal.Add(it.LineTotal)
	}

	discounted := subtotal
	if p.Discount != nil {
		discounted = subtotal.Sub(p.Discount.AppliedAmount)
	}

	tax := RoundMoney(discounted.Mul(p.TaxRate))
	total := discounted.Add(p.DeliveryFee).Add(tax)

	return &Order{
		ID:            p.ID,
		OrderNumber:   p.OrderNumber,
		Customer:      p.Customer,
		Items:         p.Items,
		Subtotal:      subtotal,
		Discount:      p.Discount,
		DeliveryFee:   p.DeliveryFee,
		Tax:           tax,
		Total:         total,
		Status:        StatusPending,
		PaymentMethod: p.PaymentMethod,
		PaymentStatus: PaymentPending,
		StatusHistory: []StatusHistoryEntry{{
			Status:    StatusPending,
			Timestamp: p.Now,
			Note:      "Order placed successfully",
		}},
		EstimatedDeliveryAt: p.Now.Add(initialDeliveryEstimate),
		SpecialInstructions: p.SpecialInstructions,
		Version:             1,
		CreatedAt:           p.Now,
		UpdatedAt:           p.Now,
	}
}

// Transition moves the order to newStatus, appending exactly one history
// entry. Entering On The Way revises the delivery estimate; entering
// Delivered stamps the actual delivery time once.
func (o *Order) Transition(newStatus Status, note string, now time.Time) error {
	if !CanTransition(o.Status, newStatus) {
		return apperrors.NewInvalidTransitionError(string(o.Status), string(newStatus))
	}

	if note == "" {
		note = fmt.Sprintf("Status updated to %s", newStatus)
	}

	o.Status = newStatus
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Status:    newStatus,
		Timestamp: now,
		Note:      note,
	})

	switch newStatus {
	case StatusOnTheWay:
		o.EstimatedDeliveryAt = now.Add(onTheWayDeliveryEstimate)
	case StatusDelivered:
		if o.ActualDeliveredAt == nil {
			t := now
			o.ActualDeliveredAt = &t
		}
	}

	o.UpdatedAt = now
	return nil
}

// MarkPaid is the single idempotent mark-paid-if-not-already operation both
// confirmation channels funnel into. A second call on a Paid order changes
// nothing and reports changed=false.
func (o *Order) MarkPaid(gatewayPaymentID, source string, now time.Time) (changed bool) {
	if o.PaymentStatus == PaymentPaid {
		return false
	}

	o.PaymentStatus = PaymentPaid
	o.Payment.GatewayPaymentID = gatewayPaymentID
	o.Payment.TransactionID = gatewayPaymentID
	t := now
	o.Payment.PaidAt = &t

	if o.Status == StatusPending {
		o.Status = StatusPreparing
		o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
			Status:    StatusPreparing,
			Timestamp: now,
			Note:      fmt.Sprintf("Payment confirmed via %s", source),
		})
	}

	o.UpdatedAt = now
	return true
}

// MarkPaymentFailed cancels an unpaid order. A failure notification arriving
// after a successful capture must not undo it.
func (o *Order) MarkPaymentFailed(now time.Time) (changed bool) {
	if o.PaymentStatus == PaymentPaid {
		return false
	}

	o.PaymentStatus = PaymentFailed
	if !o.Status.IsTerminal() {
		o.Status = StatusCancelled
		o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
			Status:    StatusCancelled,
			Timestamp: now,
			Note:      "Payment failed",
		})
	}

	o.UpdatedAt = now
	return true
}

// MarkRefunded flips the payment axis only; fulfillment status is untouched.
func (o *Order) MarkRefunded(note string, now time.Time) {
	o.PaymentStatus = PaymentRefunded
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Status:    o.Status,
		Timestamp: now,
		Note:      note,
	})
	o.UpdatedAt = now
}

// RoundMoney rounds to the currency's 2 minor-unit places, half up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NewOrderNumber builds the human-facing tracking code: PZ + the last six
// digits of the millisecond timestamp + a three-digit random suffix. Not
// unguessable; uniqueness is enforced by the store and retried on collision.
func NewOrderNumber(now time.Time) string {
	ts := fmt.Sprintf("%d", now.UnixMilli())
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	return fmt.Sprintf("PZ%s%03d", ts, rand.Intn(1000))
}
