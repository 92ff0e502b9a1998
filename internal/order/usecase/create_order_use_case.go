package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pronto/internal/auth"
	"pronto/internal/domain"
	"pronto/internal/dto"
	apperrors "pronto/internal/errors"
	"pronto/internal/events"
)

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
}

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

type CustomerHistoryRepository interface {
	HasPriorOrders(ctx context.Context, customerPhone string) (bool, error)
}

type CheckoutService interface {
	PlaceOrder(ctx context.Context, order *domain.Order, couponID string) error
}

// CreateOrderUseCase builds an order from the live catalog: every line item
// is re-resolved server-side, so client-sent prices never enter the totals.
type CreateOrderUseCase struct {
	productRepo ProductRepository
	couponRepo  CouponRepository
	historyRepo CustomerHistoryRepository
	checkout    CheckoutService
	publisher   events.Publisher
	logger      *zap.Logger
	deliveryFee decimal.Decimal
	taxRate     decimal.Decimal
}

func NewCreateOrderUseCase(
	productRepo ProductRepository,
	couponRepo CouponRepository,
	historyRepo CustomerHistoryRepository,
	checkout CheckoutService,
	publisher events.Publisher,
	logger *zap.Logger,
	deliveryFee decimal.Decimal,
	taxRate decimal.Decimal,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		productRepo: productRepo,
		couponRepo:  couponRepo,
		historyRepo: historyRepo,
		checkout:    checkout,
		publisher:   publisher,
		logger:      logger,
		deliveryFee: deliveryFee,
		taxRate:     taxRate,
	}
}

func (uc *CreateOrderUseCase) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	now := time.Now().UTC()

	items, candidate, err := uc.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	var (
		snapshot *domain.DiscountSnapshot
		couponID string
	)
	if req.CouponCode != "" {
		snapshot, couponID, err = uc.applyCoupon(ctx, req.CouponCode, req.Customer.Phone, candidate, now)
		if err != nil {
			return nil, err
		}
	}

	order := domain.NewOrder(domain.NewOrderParams{
		ID:                  uuid.New().String(),
		OrderNumber:         domain.NewOrderNumber(now),
		Customer:            toCustomerInfo(req.Customer),
		Items:               items,
		Discount:            snapshot,
		DeliveryFee:         uc.deliveryFee,
		TaxRate:             uc.taxRate,
		PaymentMethod:       req.PaymentMethod,
		SpecialInstructions: req.SpecialInstructions,
		Now:                 now,
	})

	if err := uc.checkout.PlaceOrder(ctx, order, couponID); err != nil {
		return nil, err
	}

	uc.logger.Info("order created",
		zap.String("orderId", order.ID),
		zap.String("orderNumber", order.OrderNumber),
		zap.String("total", order.Total.String()))

	uc.publishCreated(ctx, order)

	return &dto.CreateOrderResponse{
		OrderID:             order.ID,
		OrderNumber:         order.OrderNumber,
		Subtotal:            order.Subtotal,
		Discount:            discountAmount(order),
		DeliveryFee:         order.DeliveryFee,
		Tax:                 order.Tax,
		Total:               order.Total,
		Status:              string(order.Status),
		EstimatedDeliveryAt: order.EstimatedDeliveryAt,
		Coupon:              toAppliedCoupon(order),
	}, nil
}

// resolveItems loads every referenced product and prices the lines from the
// catalog. Any missing or disabled product rejects the whole order.
func (uc *CreateOrderUseCase) resolveItems(ctx context.Context, reqItems []dto.OrderItemRequest) ([]domain.OrderItem, domain.OrderCandidate, error) {
	items := make([]domain.OrderItem, 0, len(reqItems))
	candidate := domain.OrderCandidate{Subtotal: decimal.Zero}

	for _, it := range reqItems {
		product, err := uc.productRepo.FindByID(ctx, it.ProductID)
		if err != nil {
			if _, ok := apperrors.IsNotFoundError(err); ok {
				return nil, candidate, apperrors.NewItemUnavailableError(it.ProductID, "product not found")
			}
			return nil, candidate, err
		}
		if !product.IsAvailable {
			return nil, candidate, apperrors.NewItemUnavailableError(it.ProductID, "product is currently unavailable")
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  it.Quantity,
			LineTotal: lineTotal,
		})
		candidate.Items = append(candidate.Items, domain.CandidateItem{
			ProductID: product.ID,
			Category:  product.Category,
		})
		candidate.Subtotal = candidate.Subtotal.Add(lineTotal)
	}

	return items, candidate, nil
}

func (uc *CreateOrderUseCase) applyCoupon(
	ctx context.Context,
	code, customerPhone string,
	candidate domain.OrderCandidate,
	now time.Time,
) (*domain.DiscountSnapshot, string, error) {
	coupon, err := uc.couponRepo.FindByCode(ctx, code)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, "", apperrors.NewCouponRejectedError(code, "Invalid or expired coupon code")
		}
		return nil, "", err
	}

	if err := coupon.ValidateForOrder(candidate, now); err != nil {
		return nil, "", err
	}

	if coupon.FirstTimeOnly {
		prior, err := uc.historyRepo.HasPriorOrders(ctx, customerPhone)
		if err != nil {
			return nil, "", err
		}
		if prior {
			return nil, "", apperrors.NewCouponRejectedError(coupon.Code, "Coupon is valid for first-time customers only")
		}
	}

	return &domain.DiscountSnapshot{
		CouponCode:    coupon.Code,
		Kind:          coupon.Kind,
		RawValue:      coupon.Value,
		AppliedAmount: coupon.ComputeDiscount(candidate.Subtotal),
	}, coupon.ID, nil
}

func (uc *CreateOrderUseCase) publishCreated(ctx context.Context, order *domain.Order) {
	data := events.OrderCreatedData{
		OrderID:             order.ID,
		OrderNumber:         order.OrderNumber,
		CustomerName:        order.Customer.Name,
		Total:               order.Total,
		Status:              string(order.Status),
		EstimatedDeliveryAt: order.EstimatedDeliveryAt,
	}

	uc.publisher.Publish(ctx, events.Envelope{
		Topic:     events.TopicAdmin,
		Event:     events.EventOrderCreated,
		Data:      data,
		Timestamp: order.CreatedAt,
	})

	if p := auth.FromContext(ctx); p.IsCustomer() && p.ID != "" {
		uc.publisher.Publish(ctx, events.Envelope{
			Topic:     events.CustomerTopic(p.ID),
			Event:     events.EventOrderCreated,
			Data:      data,
			Timestamp: order.CreatedAt,
		})
	}
}
