package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pronto/internal/domain"
	"pronto/internal/dto"
	"pronto/internal/order/repository"
)

type OrderFinder interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	List(ctx context.Context, filter repository.ListFilter) ([]domain.Order, int, error)
	CollectStats(ctx context.Context, now time.Time) (*repository.Stats, error)
}

type OrderQueryUseCase struct {
	orderRepo OrderFinder
	logger    *zap.Logger
}

func NewOrderQueryUseCase(orderRepo OrderFinder, logger *zap.Logger) *OrderQueryUseCase {
	return &OrderQueryUseCase{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

func (uc *OrderQueryUseCase) GetOrder(ctx context.Context, id string) (*dto.OrderResponse, error) {
	order, err := uc.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

// TrackOrder looks an order up by its public tracking code.
func (uc *OrderQueryUseCase) TrackOrder(ctx context.Context, orderNumber string) (*dto.OrderResponse, error) {
	order, err := uc.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (uc *OrderQueryUseCase) ListOrders(ctx context.Context, status string, page, limit int) (*dto.ListOrdersResponse, error) {
	orders, total, err := uc.orderRepo.List(ctx, repository.ListFilter{
		Status: status,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	data := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, toOrderResponse(&orders[i]))
	}

	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return &dto.ListOrdersResponse{
		Count: len(data),
		Total: total,
		Page:  page,
		Pages: pages,
		Data:  data,
	}, nil
}

func (uc *OrderQueryUseCase) OrderStats(ctx context.Context) (*dto.OrderStatsResponse, error) {
	stats, err := uc.orderRepo.CollectStats(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &dto.OrderStatsResponse{
		Today: dto.PeriodStats{
			Orders:  stats.TodayOrders,
			Revenue: stats.TodayRevenue,
		},
		Total: dto.PeriodStats{
			Orders:  stats.TotalOrders,
			Revenue: stats.TotalRevenue,
		},
		ByStatus: stats.ByStatus,
	}, nil
}
