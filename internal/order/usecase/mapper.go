package usecase

import (
	"github.com/shopspring/decimal"

	"pronto/internal/domain"
	"pronto/internal/dto"
)

func toCustomerInfo(c dto.CustomerDTO) domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:  c.Name,
		Phone: c.Phone,
		Email: c.Email,
		Address: domain.Address{
			Street:               c.Address.Street,
			City:                 c.Address.City,
			State:                c.Address.State,
			ZipCode:              c.Address.ZipCode,
			DeliveryInstructions: c.Address.DeliveryInstructions,
		},
	}
}

func discountAmount(o *domain.Order) decimal.Decimal {
	if o.Discount == nil {
		return decimal.Zero
	}
	return o.Discount.AppliedAmount
}

func toAppliedCoupon(o *domain.Order) *dto.AppliedCouponDTO {
	if o.Discount == nil {
		return nil
	}
	return &dto.AppliedCouponDTO{
		Code:     o.Discount.CouponCode,
		Kind:     string(o.Discount.Kind),
		Value:    o.Discount.RawValue,
		Discount: o.Discount.AppliedAmount,
	}
}

func toOrderResponse(o *domain.Order) dto.OrderResponse {
	items := make([]dto.OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemDTO{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
		})
	}

	history := make([]dto.StatusHistoryEntryDTO, 0, len(o.StatusHistory))
	for _, entry := range o.StatusHistory {
		history = append(history, dto.StatusHistoryEntryDTO{
			Status:    string(entry.Status),
			Timestamp: entry.Timestamp,
			Note:      entry.Note,
		})
	}

	return dto.OrderResponse{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Customer: dto.CustomerDTO{
			Name:  o.Customer.Name,
			Phone: o.Customer.Phone,
			Email: o.Customer.Email,
			Address: dto.AddressDTO{
				Street:               o.Customer.Address.Street,
				City:                 o.Customer.Address.City,
				State:                o.Customer.Address.State,
				ZipCode:              o.Customer.Address.ZipCode,
				DeliveryInstructions: o.Customer.Address.DeliveryInstructions,
			},
		},
		Items:               items,
		Subtotal:            o.Subtotal,
		Discount:            discountAmount(o),
		DeliveryFee:         o.DeliveryFee,
		Tax:                 o.Tax,
		Total:               o.Total,
		Status:              string(o.Status),
		PaymentMethod:       o.PaymentMethod,
		PaymentStatus:       string(o.PaymentStatus),
		StatusHistory:       history,
		EstimatedDeliveryAt: o.EstimatedDeliveryAt,
		ActualDeliveredAt:   o.ActualDeliveredAt,
		Coupon:              toAppliedCoupon(o),
		CreatedAt:           o.CreatedAt,
	}
}
