package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"pronto/internal/domain"
	apperrors "pronto/internal/errors"
)

const checkoutTxTimeout = 5 * time.Second

const duplicateKeyErrNumber = 1062

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type OrderRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, o *domain.Order) error
}

type CouponRepository interface {
	ConsumeUsage(ctx context.Context, tx *sql.Tx, couponID string) error
}

// CheckoutService commits a new order and its coupon consumption in one
// transaction. Either both land or neither does.
type CheckoutService struct {
	db          TransactionManager
	orderRepo   OrderRepository
	couponRepo  CouponRepository
	logger      *zap.Logger
	maxAttempts int
}

func NewCheckoutService(
	db TransactionManager,
	orderRepo OrderRepository,
	couponRepo CouponRepository,
	logger *zap.Logger,
	maxAttempts int,
) *CheckoutService {
	return &CheckoutService{
		db:          db,
		orderRepo:   orderRepo,
		couponRepo:  couponRepo,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// PlaceOrder persists the order, retrying with a fresh order number when the
// generated one collides with an existing row. The unique index on
// orderNumber is the source of truth; collisions just cost a retry.
func (s *CheckoutService) PlaceOrder(ctx context.Context, order *domain.Order, couponID string) error {
	for attempt := 1; ; attempt++ {
		err := s.placeOnce(ctx, order, couponID)
		if err == nil {
			return nil
		}
		if !isDuplicateKeyError(err) {
			return err
		}
		if attempt >= s.maxAttempts {
			s.logger.Error("order number retries exhausted",
				zap.String("orderId", order.ID),
				zap.Int("attempts", attempt))
			return apperrors.NewInternalError("could not allocate a unique order number", err)
		}

		order.OrderNumber = domain.NewOrderNumber(time.Now().UTC())
		s.logger.Warn("order number collision, retrying",
			zap.String("orderId", order.ID),
			zap.String("orderNumber", order.OrderNumber),
			zap.Int("attempt", attempt))
	}
}

func (s *CheckoutService) placeOnce(ctx context.Context, order *domain.Order, couponID string) error {
	txCtx, cancel := context.WithTimeout(ctx, checkoutTxTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	// MySQL ignores rollback if already committed.
	defer tx.Rollback()

	if couponID != "" {
		if err := s.couponRepo.ConsumeUsage(txCtx, tx, couponID); err != nil {
			return err
		}
	}

	if err := s.orderRepo.Insert(txCtx, tx, order); err != nil {
		return err
	}

	return tx.Commit()
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == duplicateKeyErrNumber
	}
	return false
}
