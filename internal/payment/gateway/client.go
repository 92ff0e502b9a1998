package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pronto/internal/config"
	apperrors "pronto/internal/errors"
)

// Gateway is the payment-provider surface the reconciler needs: open a
// gateway order for an amount, and push a refund for a captured payment.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
	Refund(ctx context.Context, paymentID string, amountMinor int64) (*RefundResult, error)
}

type RefundResult struct {
	ID     string
	Amount int64
	Status string
}

// Client talks to the provider's REST API with basic auth. Calls are never
// retried here; a gateway error surfaces to the caller as-is.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	logger     *zap.Logger
}

func NewClient(cfg config.PaymentConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    cfg.BaseURL,
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		logger:     logger,
	}
}

func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	body := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/orders", body, &out); err != nil {
		return "", err
	}

	c.logger.Info("gateway order created",
		zap.String("gatewayOrderId", out.ID),
		zap.Int64("amount", amountMinor))
	return out.ID, nil
}

func (c *Client) Refund(ctx context.Context, paymentID string, amountMinor int64) (*RefundResult, error) {
	body := map[string]interface{}{
		"amount": amountMinor,
	}

	var out struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/payments/"+paymentID+"/refund", body, &out); err != nil {
		return nil, err
	}

	c.logger.Info("gateway refund created",
		zap.String("refundId", out.ID),
		zap.String("paymentId", paymentID))
	return &RefundResult{ID: out.ID, Amount: out.Amount, Status: out.Status}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewGatewayError("encoding gateway request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewGatewayError("building gateway request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewGatewayError("calling payment gateway", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewGatewayError(
			fmt.Sprintf("payment gateway returned status %d for %s", resp.StatusCode, path), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewGatewayError("decoding gateway response", err)
	}
	return nil
}
