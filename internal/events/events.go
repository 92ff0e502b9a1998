package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated         = "order-created"
	EventOrderStatusChanged   = "order-status-changed"
	EventPaymentStatusChanged = "payment-status-changed"
)

const TopicAdmin = "admin"

func OrderTopic(orderID string) string {
	return "order:" + orderID
}

func CustomerTopic(customerID string) string {
	return "customer:" + customerID
}

// Envelope is the frame delivered to subscribers: the topic it was published
// on, the event name, and a flat snapshot of the fields relevant to it.
type Envelope struct {
	Topic     string      `json:"topic"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type OrderCreatedData struct {
	OrderID             string          `json:"orderId"`
	OrderNumber         string          `json:"orderNumber"`
	CustomerName        string          `json:"customerName"`
	Total               decimal.Decimal `json:"total"`
	Status              string          `json:"status"`
	EstimatedDeliveryAt time.Time       `json:"estimatedDeliveryAt"`
}

type OrderStatusChangedData struct {
	OrderID             string    `json:"orderId"`
	OrderNumber         string    `json:"orderNumber"`
	Status              string    `json:"status"`
	PaymentStatus       string    `json:"paymentStatus"`
	EstimatedDeliveryAt time.Time `json:"estimatedDeliveryAt"`
}

type PaymentStatusChangedData struct {
	OrderID       string `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	PaymentStatus string `json:"paymentStatus"`
	TransactionID string `json:"transactionId,omitempty"`
}
