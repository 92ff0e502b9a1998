package payment

import (
	"database/sql"

	"go.uber.org/zap"

	"pronto/internal/config"
	"pronto/internal/events"
	orderrepo "pronto/internal/order/repository"
	"pronto/internal/payment/controller"
	"pronto/internal/payment/gateway"
	"pronto/internal/payment/service"
)

func NewModule(db *sql.DB, cfg *config.Config, publisher events.Publisher, logger *zap.Logger) *controller.PaymentsController {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	gatewayClient := gateway.NewClient(cfg.Payment, logger)
	reconciler := service.NewReconciler(db, orderRepo, gatewayClient, publisher, cfg.Payment, logger)
	return controller.NewPaymentsController(reconciler, logger)
}
