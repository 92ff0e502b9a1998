package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type AddressDTO struct {
	Street               string `json:"street"`
	City                 string `json:"city"`
	State                string `json:"state"`
	ZipCode              string `json:"zipCode"`
	DeliveryInstructions string `json:"deliveryInstructions,omitempty"`
}

type CustomerDTO struct {
	Name    string     `json:"name"`
	Phone   string     `json:"phone"`
	Email   string     `json:"email,omitempty"`
	Address AddressDTO `json:"address"`
}

type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Customer            CustomerDTO        `json:"customer"`
	Items               []OrderItemRequest `json:"items"`
	PaymentMethod       string             `json:"paymentMethod"`
	CouponCode          string             `json:"couponCode,omitempty"`
	SpecialInstructions string             `json:"specialInstructions,omitempty"`
}

type AppliedCouponDTO struct {
	Code     string          `json:"code"`
	Kind     string          `json:"kind"`
	Value    decimal.Decimal `json:"value"`
	Discount decimal.Decimal `json:"discount"`
}

type CreateOrderResponse struct {
	OrderID             string            `json:"orderId"`
	OrderNumber         string            `json:"orderNumber"`
	Subtotal            decimal.Decimal   `json:"subtotal"`
	Discount            decimal.Decimal   `json:"discount"`
	DeliveryFee         decimal.Decimal   `json:"deliveryFee"`
	Tax                 decimal.Decimal   `json:"tax"`
	Total               decimal.Decimal   `json:"total"`
	Status              string            `json:"status"`
	EstimatedDeliveryAt time.Time         `json:"estimatedDeliveryAt"`
	Coupon              *AppliedCouponDTO `json:"coupon,omitempty"`
}

type OrderItemDTO struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type StatusHistoryEntryDTO struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

type OrderResponse struct {
	OrderID             string                  `json:"orderId"`
	OrderNumber         string                  `json:"orderNumber"`
	Customer            CustomerDTO             `json:"customer"`
	Items               []OrderItemDTO          `json:"items"`
	Subtotal            decimal.Decimal         `json:"subtotal"`
	Discount            decimal.Decimal         `json:"discount"`
	DeliveryFee         decimal.Decimal         `json:"deliveryFee"`
	Tax                 decimal.Decimal         `json:"tax"`
	Total               decimal.Decimal         `json:"total"`
	Status              string                  `json:"status"`
	PaymentMethod       string                  `json:"paymentMethod"`
	PaymentStatus       string                  `json:"paymentStatus"`
	StatusHistory       []StatusHistoryEntryDTO `json:"statusHistory"`
	EstimatedDeliveryAt time.Time               `json:"estimatedDeliveryAt"`
	ActualDeliveredAt   *time.Time              `json:"actualDeliveredAt,omitempty"`
	Coupon              *AppliedCouponDTO       `json:"coupon,omitempty"`
	CreatedAt           time.Time               `json:"createdAt"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type ListOrdersResponse struct {
	Count int             `json:"count"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Pages int             `json:"pages"`
	Data  []OrderResponse `json:"data"`
}

type OrderStatsResponse struct {
	Today    PeriodStats    `json:"today"`
	Total    PeriodStats    `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

type PeriodStats struct {
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}
