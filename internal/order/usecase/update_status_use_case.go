package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pronto/internal/domain"
	"pronto/internal/dto"
	apperrors "pronto/internal/errors"
	"pronto/internal/events"
)

const statusTxTimeout = 5 * time.Second

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type MutableOrderRepository interface {
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error)
	Update(ctx context.Context, tx *sql.Tx, o *domain.Order, fromSeq int) error
}

// UpdateOrderStatusUseCase moves an order through its fulfillment lifecycle.
// The aggregate is loaded under a row lock so two staff updating the same
// order serialize instead of double-appending history.
type UpdateOrderStatusUseCase struct {
	db        TransactionManager
	orderRepo MutableOrderRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewUpdateOrderStatusUseCase(
	db TransactionManager,
	orderRepo MutableOrderRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *UpdateOrderStatusUseCase {
	return &UpdateOrderStatusUseCase{
		db:        db,
		orderRepo: orderRepo,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *UpdateOrderStatusUseCase) UpdateStatus(ctx context.Context, orderID string, req dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error) {
	newStatus := domain.Status(req.Status)
	if !domain.IsValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("%q is not a valid order status", req.Status),
		})
	}

	txCtx, cancel := context.WithTimeout(ctx, statusTxTimeout)
	defer cancel()

	tx, err := uc.db.BeginTx(txCtx, nil)
	if err != nil {
		uc.logger.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	order, err := uc.orderRepo.FindByIDForUpdate(txCtx, tx, orderID)
	if err != nil {
		return nil, err
	}

	fromSeq := len(order.StatusHistory)
	if err := order.Transition(newStatus, req.Note, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := uc.orderRepo.Update(txCtx, tx, order, fromSeq); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	uc.logger.Info("order status updated",
		zap.String("orderId", order.ID),
		zap.String("status", string(order.Status)))

	uc.publishStatusChanged(ctx, order)

	resp := toOrderResponse(order)
	return &resp, nil
}

func (uc *UpdateOrderStatusUseCase) publishStatusChanged(ctx context.Context, order *domain.Order) {
	data := events.OrderStatusChangedData{
		OrderID:             order.ID,
		OrderNumber:         order.OrderNumber,
		Status:              string(order.Status),
		PaymentStatus:       string(order.PaymentStatus),
		EstimatedDeliveryAt: order.EstimatedDeliveryAt,
	}

	for _, topic := range []string{events.OrderTopic(order.ID), events.TopicAdmin} {
		uc.publisher.Publish(ctx, events.Envelope{
			Topic:     topic,
			Event:     events.EventOrderStatusChanged,
			Data:      data,
			Timestamp: order.UpdatedAt,
		})
	}
}
