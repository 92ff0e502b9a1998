package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pronto/internal/config"
	"pronto/internal/domain"
	"pronto/internal/dto"
	apperrors "pronto/internal/errors"
	"pronto/internal/events"
	orderrepo "pronto/internal/order/repository"
	"pronto/internal/payment/gateway"
	"pronto/internal/testutil"
)

type mockGateway struct {
	CreateOrderFunc func(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
	RefundFunc      func(ctx context.Context, paymentID string, amountMinor int64) (*gateway.RefundResult, error)
}

func (m *mockGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	return m.CreateOrderFunc(ctx, amountMinor, currency, receipt)
}

func (m *mockGateway) Refund(ctx context.Context, paymentID string, amountMinor int64) (*gateway.RefundResult, error) {
	return m.RefundFunc(ctx, paymentID, amountMinor)
}

type capturingPublisher struct {
	mu        sync.Mutex
	envelopes []events.Envelope
}

func (p *capturingPublisher) Publish(_ context.Context, env events.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, env)
}

func testPaymentConfig() config.PaymentConfig {
	return config.PaymentConfig{
		KeyID:         "key_test",
		KeySecret:     "keysecret",
		WebhookSecret: "whsecret",
		Currency:      "USD",
	}
}

// Unit tests

func TestVerifyClient_InvalidSignature(t *testing.T) {
	s := NewReconciler(nil, nil, nil, nil, testPaymentConfig(), zap.NewNop())

	_, err := s.VerifyClient(context.Background(), dto.VerifyPaymentRequest{
		GatewayOrderID:   "gw_order_1",
		GatewayPaymentID: "gw_pay_1",
		Signature:        "deadbeef",
	})

	require.Error(t, err)
	_, ok := apperrors.IsInvalidSignatureError(err)
	assert.True(t, ok)
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	s := NewReconciler(nil, nil, nil, nil, testPaymentConfig(), zap.NewNop())

	err := s.HandleWebhook(context.Background(), []byte(`{"event":"payment.captured"}`), "deadbeef")

	require.Error(t, err)
	_, ok := apperrors.IsInvalidSignatureError(err)
	assert.True(t, ok)
}

func TestHandleWebhook_UnknownEventIgnored(t *testing.T) {
	s := NewReconciler(nil, nil, nil, nil, testPaymentConfig(), zap.NewNop())

	body := []byte(`{"event":"payment.authorized"}`)
	err := s.HandleWebhook(context.Background(), body, signHMAC("whsecret", body))

	assert.NoError(t, err)
}

func TestHandleWebhook_MalformedPayload(t *testing.T) {
	s := NewReconciler(nil, nil, nil, nil, testPaymentConfig(), zap.NewNop())

	body := []byte(`not json`)
	err := s.HandleWebhook(context.Background(), body, signHMAC("whsecret", body))

	require.Error(t, err)
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(2243), toMinorUnits(decimal.RequireFromString("22.43")))
	assert.Equal(t, int64(2000), toMinorUnits(decimal.RequireFromString("20")))
}

// Integration tests

func seedOrder(t *testing.T, db *sql.DB, repo *orderrepo.MySQLOrderRepository) *domain.Order {
	t.Helper()

	order := domain.NewOrder(domain.NewOrderParams{
		ID:          fmt.Sprintf("ord-%d", time.Now().UnixNano()),
		OrderNumber: domain.NewOrderNumber(time.Now().UTC()),
		Customer: domain.CustomerInfo{
			Name:  "John Doe",
			Phone: "5551234567",
			Address: domain.Address{
				Street:  "123 Main St",
				City:    "Springfield",
				State:   "IL",
				ZipCode: "62701",
			},
		},
		Items: []domain.OrderItem{
			{ProductID: "pz-1", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.00"), Quantity: 1, LineTotal: decimal.RequireFromString("12.00")},
		},
		DeliveryFee:   decimal.RequireFromString("2.99"),
		TaxRate:       decimal.RequireFromString("0.08"),
		PaymentMethod: "Razorpay",
		Now:           time.Now().UTC().Truncate(time.Second),
	})

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), tx, order))
	require.NoError(t, tx.Commit())

	return order
}

func newIntegrationReconciler(db *sql.DB, repo *orderrepo.MySQLOrderRepository, gw gateway.Gateway, publisher events.Publisher) *Reconciler {
	return NewReconciler(db, repo, gw, publisher, testPaymentConfig(), zap.NewNop())
}

func TestReconciler_BothChannels_SecondIsNoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := orderrepo.NewMySQLOrderRepository(db)
	publisher := &capturingPublisher{}
	gw := &mockGateway{
		CreateOrderFunc: func(_ context.Context, amountMinor int64, currency, receipt string) (string, error) {
			return "gw_order_1", nil
		},
	}
	s := newIntegrationReconciler(db, repo, gw, publisher)

	order := seedOrder(t, db, repo)

	_, err := s.CreateGatewayOrder(context.Background(), order.ID)
	require.NoError(t, err)

	// Client verify lands first.
	sig := signHMAC("keysecret", []byte("gw_order_1|gw_pay_1"))
	resp, err := s.VerifyClient(context.Background(), dto.VerifyPaymentRequest{
		GatewayOrderID:   "gw_order_1",
		GatewayPaymentID: "gw_pay_1",
		Signature:        sig,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentPaid), resp.PaymentStatus)
	assert.Equal(t, string(domain.StatusPreparing), resp.OrderStatus)

	// Webhook for the same capture lands second.
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"gw_pay_1","order_id":"gw_order_1"}}}}`)
	require.NoError(t, s.HandleWebhook(context.Background(), body, signHMAC("whsecret", body)))

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, reloaded.PaymentStatus)
	assert.Equal(t, domain.StatusPreparing, reloaded.Status)

	confirmations := 0
	for _, entry := range reloaded.StatusHistory {
		if entry.Status == domain.StatusPreparing {
			confirmations++
		}
	}
	assert.Equal(t, 1, confirmations, "second channel must not append history")
}

func TestReconciler_FailedWebhookAfterCapture_Ignored(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := orderrepo.NewMySQLOrderRepository(db)
	gw := &mockGateway{
		CreateOrderFunc: func(context.Context, int64, string, string) (string, error) {
			return "gw_order_2", nil
		},
	}
	s := newIntegrationReconciler(db, repo, gw, &capturingPublisher{})

	order := seedOrder(t, db, repo)
	_, err := s.CreateGatewayOrder(context.Background(), order.ID)
	require.NoError(t, err)

	captured := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"gw_pay_2","order_id":"gw_order_2"}}}}`)
	require.NoError(t, s.HandleWebhook(context.Background(), captured, signHMAC("whsecret", captured)))

	failed := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"gw_pay_2","order_id":"gw_order_2"}}}}`)
	require.NoError(t, s.HandleWebhook(context.Background(), failed, signHMAC("whsecret", failed)))

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, reloaded.PaymentStatus)
	assert.Equal(t, domain.StatusPreparing, reloaded.Status)
}

func TestReconciler_RefundRequiresPaidOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := orderrepo.NewMySQLOrderRepository(db)
	s := newIntegrationReconciler(db, repo, &mockGateway{}, &capturingPublisher{})

	order := seedOrder(t, db, repo)

	_, err := s.Refund(context.Background(), dto.RefundRequest{OrderID: order.ID})

	require.Error(t, err)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestReconciler_CreateGatewayOrderRejectedWhenPaid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := orderrepo.NewMySQLOrderRepository(db)
	gw := &mockGateway{
		CreateOrderFunc: func(context.Context, int64, string, string) (string, error) {
			return "gw_order_3", nil
		},
	}
	s := newIntegrationReconciler(db, repo, gw, &capturingPublisher{})

	order := seedOrder(t, db, repo)
	_, err := s.CreateGatewayOrder(context.Background(), order.ID)
	require.NoError(t, err)

	sig := signHMAC("keysecret", []byte("gw_order_3|gw_pay_3"))
	_, err = s.VerifyClient(context.Background(), dto.VerifyPaymentRequest{
		GatewayOrderID:   "gw_order_3",
		GatewayPaymentID: "gw_pay_3",
		Signature:        sig,
	})
	require.NoError(t, err)

	_, err = s.CreateGatewayOrder(context.Background(), order.ID)

	require.Error(t, err)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}
