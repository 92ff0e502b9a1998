package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pronto/internal/config"
	"pronto/internal/domain"
	"pronto/internal/dto"
	apperrors "pronto/internal/errors"
	"pronto/internal/events"
	"pronto/internal/payment/gateway"
)

const reconcileTxTimeout = 5 * time.Second

const (
	webhookPaymentCaptured = "payment.captured"
	webhookPaymentFailed   = "payment.failed"
	webhookRefundProcessed = "refund.processed"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type OrderRepository interface {
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error)
	FindByGatewayOrderIDForUpdate(ctx context.Context, tx *sql.Tx, gatewayOrderID string) (*domain.Order, error)
	FindByGatewayPaymentIDForUpdate(ctx context.Context, tx *sql.Tx, gatewayPaymentID string) (*domain.Order, error)
	Update(ctx context.Context, tx *sql.Tx, o *domain.Order, fromSeq int) error
}

// Reconciler is the single funnel for payment state. Both confirmation
// channels, the client verify call and the provider webhook, converge on the
// same locked-row mark-paid path, so whichever lands second is a no-op.
type Reconciler struct {
	db        TransactionManager
	orderRepo OrderRepository
	gateway   gateway.Gateway
	publisher events.Publisher
	logger    *zap.Logger

	keyID         string
	keySecret     string
	webhookSecret string
	currency      string
}

func NewReconciler(
	db TransactionManager,
	orderRepo OrderRepository,
	gw gateway.Gateway,
	publisher events.Publisher,
	cfg config.PaymentConfig,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		db:            db,
		orderRepo:     orderRepo,
		gateway:       gw,
		publisher:     publisher,
		logger:        logger,
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
	}
}

// CreateGatewayOrder opens a provider order for the outstanding total and
// records its id on the order. Rejected once the order is already paid.
func (s *Reconciler) CreateGatewayOrder(ctx context.Context, orderID string) (*dto.CreatePaymentOrderResponse, error) {
	txCtx, cancel := context.WithTimeout(ctx, reconcileTxTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	order, err := s.orderRepo.FindByIDForUpdate(txCtx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == domain.PaymentPaid {
		return nil, apperrors.NewConflictError("order is already paid")
	}

	amountMinor := toMinorUnits(order.Total)
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amountMinor, s.currency, order.OrderNumber)
	if err != nil {
		return nil, err
	}

	fromSeq := len(order.StatusHistory)
	order.Payment.GatewayOrderID = gatewayOrderID
	order.UpdatedAt = time.Now().UTC()
	if err := s.orderRepo.Update(txCtx, tx, order, fromSeq); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreatePaymentOrderResponse{
		GatewayOrderID: gatewayOrderID,
		Amount:         amountMinor,
		Currency:       s.currency,
		Receipt:        order.OrderNumber,
		KeyID:          s.keyID,
	}, nil
}

// VerifyClient confirms a payment the client claims succeeded. The signature
// binds the gateway order and payment ids with the key secret; anything else
// is rejected before any state is touched.
func (s *Reconciler) VerifyClient(ctx context.Context, req dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	expected := signHMAC(s.keySecret, []byte(req.GatewayOrderID+"|"+req.GatewayPaymentID))
	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		return nil, apperrors.NewInvalidSignatureError("payment signature mismatch")
	}

	order, err := s.markPaid(ctx, func(txCtx context.Context, tx *sql.Tx) (*domain.Order, error) {
		return s.orderRepo.FindByGatewayOrderIDForUpdate(txCtx, tx, req.GatewayOrderID)
	}, req.GatewayPaymentID, "client")
	if err != nil {
		return nil, err
	}

	return &dto.VerifyPaymentResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		PaymentStatus: string(order.PaymentStatus),
		OrderStatus:   string(order.Status),
		TransactionID: order.Payment.TransactionID,
	}, nil
}

// HandleWebhook authenticates the raw body against the webhook secret, then
// dispatches on the event name. Events about unknown orders are acknowledged
// and dropped; the provider retries on anything but success.
func (s *Reconciler) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	expected := signHMAC(s.webhookSecret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperrors.NewInvalidSignatureError("webhook signature mismatch")
	}

	var event dto.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperrors.NewValidationError("malformed webhook payload")
	}

	switch event.Event {
	case webhookPaymentCaptured:
		if event.Payload.Payment == nil {
			return apperrors.NewValidationError("missing payment entity")
		}
		entity := event.Payload.Payment.Entity
		_, err := s.markPaid(ctx, func(txCtx context.Context, tx *sql.Tx) (*domain.Order, error) {
			return s.orderRepo.FindByGatewayOrderIDForUpdate(txCtx, tx, entity.OrderID)
		}, entity.ID, "webhook")
		return s.ignoreUnknownOrder(err, entity.OrderID)

	case webhookPaymentFailed:
		if event.Payload.Payment == nil {
			return apperrors.NewValidationError("missing payment entity")
		}
		entity := event.Payload.Payment.Entity
		return s.ignoreUnknownOrder(s.markFailed(ctx, entity.OrderID), entity.OrderID)

	case webhookRefundProcessed:
		if event.Payload.Refund == nil {
			return apperrors.NewValidationError("missing refund entity")
		}
		entity := event.Payload.Refund.Entity
		return s.ignoreUnknownOrder(s.markRefunded(ctx, entity.PaymentID, entity.ID), entity.PaymentID)

	default:
		s.logger.Debug("ignoring webhook event", zap.String("event", event.Event))
		return nil
	}
}

// Refund pushes a refund to the provider for a paid order. Partial amounts
// are allowed; the payment status flips to Refunded either way.
func (s *Reconciler) Refund(ctx context.Context, req dto.RefundRequest) (*dto.RefundResponse, error) {
	txCtx, cancel := context.WithTimeout(ctx, reconcileTxTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	order, err := s.orderRepo.FindByIDForUpdate(txCtx, tx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != domain.PaymentPaid {
		return nil, apperrors.NewConflictError("order is not paid")
	}
	if order.Payment.GatewayPaymentID == "" {
		return nil, apperrors.NewConflictError("order has no captured payment to refund")
	}

	amount := order.Total
	if req.Amount != nil {
		if req.Amount.LessThanOrEqual(decimal.Zero) || req.Amount.GreaterThan(order.Total) {
			return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
				Field:   "amount",
				Message: "amount must be positive and not exceed the order total",
			})
		}
		amount = *req.Amount
	}

	result, err := s.gateway.Refund(ctx, order.Payment.GatewayPaymentID, toMinorUnits(amount))
	if err != nil {
		return nil, err
	}

	fromSeq := len(order.StatusHistory)
	note := "Refund processed: " + result.ID
	if req.Reason != "" {
		note += " (" + req.Reason + ")"
	}
	order.MarkRefunded(note, time.Now().UTC())

	if err := s.orderRepo.Update(txCtx, tx, order, fromSeq); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("refund processed",
		zap.String("orderId", order.ID),
		zap.String("refundId", result.ID),
		zap.String("amount", amount.String()))
	s.publishPaymentChanged(ctx, order)

	return &dto.RefundResponse{
		RefundID: result.ID,
		Amount:   amount,
		Status:   result.Status,
		OrderID:  order.ID,
	}, nil
}

type lockedLookup func(ctx context.Context, tx *sql.Tx) (*domain.Order, error)

func (s *Reconciler) markPaid(ctx context.Context, lookup lockedLookup, gatewayPaymentID, source string) (*domain.Order, error) {
	txCtx, cancel := context.WithTimeout(ctx, reconcileTxTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	order, err := lookup(txCtx, tx)
	if err != nil {
		return nil, err
	}

	fromSeq := len(order.StatusHistory)
	if !order.MarkPaid(gatewayPaymentID, source, time.Now().UTC()) {
		// Already paid; the other channel got here first.
		return order, tx.Commit()
	}

	if err := s.orderRepo.Update(txCtx, tx, order, fromSeq); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("payment confirmed",
		zap.String("orderId", order.ID),
		zap.String("source", source))
	s.publishPaymentChanged(ctx, order)
	return order, nil
}

func (s *Reconciler) markFailed(ctx context.Context, gatewayOrderID string) error {
	txCtx, cancel := context.WithTimeout(ctx, reconcileTxTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	order, err := s.orderRepo.FindByGatewayOrderIDForUpdate(txCtx, tx, gatewayOrderID)
	if err != nil {
		return err
	}

	fromSeq := len(order.StatusHistory)
	if !order.MarkPaymentFailed(time.Now().UTC()) {
		// Failure notification after a successful capture; drop it.
		return tx.Commit()
	}

	if err := s.orderRepo.Update(txCtx, tx, order, fromSeq); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Warn("payment failed", zap.String("orderId", order.ID))
	s.publishPaymentChanged(ctx, order)
	return nil
}

func (s *Reconciler) markRefunded(ctx context.Context, gatewayPaymentID, refundID string) error {
	txCtx, cancel := context.WithTimeout(ctx, reconcileTxTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	order, err := s.orderRepo.FindByGatewayPaymentIDForUpdate(txCtx, tx, gatewayPaymentID)
	if err != nil {
		return err
	}
	if order.PaymentStatus == domain.PaymentRefunded {
		return tx.Commit()
	}

	fromSeq := len(order.StatusHistory)
	order.MarkRefunded("Refund processed: "+refundID, time.Now().UTC())

	if err := s.orderRepo.Update(txCtx, tx, order, fromSeq); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("refund confirmed",
		zap.String("orderId", order.ID),
		zap.String("refundId", refundID))
	s.publishPaymentChanged(ctx, order)
	return nil
}

func (s *Reconciler) ignoreUnknownOrder(err error, reference string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		s.logger.Warn("webhook for unknown order", zap.String("reference", reference))
		return nil
	}
	return err
}

func (s *Reconciler) publishPaymentChanged(ctx context.Context, order *domain.Order) {
	data := events.PaymentStatusChangedData{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		PaymentStatus: string(order.PaymentStatus),
		TransactionID: order.Payment.TransactionID,
	}

	for _, topic := range []string{events.OrderTopic(order.ID), events.TopicAdmin} {
		s.publisher.Publish(ctx, events.Envelope{
			Topic:     topic,
			Event:     events.EventPaymentStatusChanged,
			Data:      data,
			Timestamp: order.UpdatedAt,
		})
	}
}

func signHMAC(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
