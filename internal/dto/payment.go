package dto

import (
	"github.com/shopspring/decimal"
)

type CreatePaymentOrderRequest struct {
	OrderID string `json:"orderId"`
}

type CreatePaymentOrderResponse struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	KeyID          string `json:"key"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

type VerifyPaymentResponse struct {
	OrderID       string `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	PaymentStatus string `json:"paymentStatus"`
	OrderStatus   string `json:"orderStatus"`
	TransactionID string `json:"transactionId"`
}

type RefundRequest struct {
	OrderID string           `json:"orderId"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

type RefundResponse struct {
	RefundID string          `json:"refundId"`
	Amount   decimal.Decimal `json:"amount"`
	Status   string          `json:"status"`
	OrderID  string          `json:"orderId"`
}

// Webhook payload mirrors the gateway's envelope: event name plus nested
// entity objects.
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payload WebhookPayload `json:"payload"`
}

type WebhookPayload struct {
	Payment *WebhookEntity `json:"payment,omitempty"`
	Refund  *WebhookEntity `json:"refund,omitempty"`
}

type WebhookEntity struct {
	Entity WebhookEntityBody `json:"entity"`
}

type WebhookEntityBody struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
}
