package order

import (
	"database/sql"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	productrepo "pronto/internal/catalog/repository"
	"pronto/internal/config"
	couponrepo "pronto/internal/coupon/repository"
	"pronto/internal/events"
	"pronto/internal/order/controller"
	orderrepo "pronto/internal/order/repository"
	"pronto/internal/order/service"
	"pronto/internal/order/usecase"
)

func NewModule(db *sql.DB, cfg *config.Config, publisher events.Publisher, logger *zap.Logger) (*orderrepo.MySQLOrderRepository, *controller.OrdersController) {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	couponRepo := couponrepo.NewMySQLCouponRepository(db)
	productRepo := productrepo.NewMySQLProductRepository(db)

	checkoutSvc := service.NewCheckoutService(
		db,
		orderRepo,
		couponRepo,
		logger,
		cfg.Order.NumberMaxAttempts,
	)

	createUC := usecase.NewCreateOrderUseCase(
		productRepo,
		couponRepo,
		orderRepo,
		checkoutSvc,
		publisher,
		logger,
		decimal.NewFromFloat(cfg.Pricing.DeliveryFee),
		decimal.NewFromFloat(cfg.Pricing.TaxRate),
	)
	updateUC := usecase.NewUpdateOrderStatusUseCase(db, orderRepo, publisher, logger)
	queryUC := usecase.NewOrderQueryUseCase(orderRepo, logger)

	return orderRepo, controller.NewOrdersController(createUC, updateUC, queryUC, logger)
}
