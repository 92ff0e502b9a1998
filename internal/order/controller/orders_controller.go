package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pronto/internal/auth"
	"pronto/internal/dto"
	apperrors "pronto/internal/errors"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxOrderItems    = 50
	maxItemQuantity  = 50
)

type CreateOrderUseCase interface {
	CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
}

type UpdateStatusUseCase interface {
	UpdateStatus(ctx context.Context, orderID string, req dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error)
}

type OrderQueries interface {
	GetOrder(ctx context.Context, id string) (*dto.OrderResponse, error)
	TrackOrder(ctx context.Context, orderNumber string) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, status string, page, limit int) (*dto.ListOrdersResponse, error)
	OrderStats(ctx context.Context) (*dto.OrderStatsResponse, error)
}

type OrdersController struct {
	create  CreateOrderUseCase
	update  UpdateStatusUseCase
	queries OrderQueries
	logger  *zap.Logger
}

func NewOrdersController(
	create CreateOrderUseCase,
	update UpdateStatusUseCase,
	queries OrderQueries,
	logger *zap.Logger,
) *OrdersController {
	return &OrdersController{
		create:  create,
		update:  update,
		queries: queries,
		logger:  logger,
	}
}

func (c *OrdersController) HandleCreate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if validationErr := validateCreateOrderRequest(req); validationErr != nil {
		ve, _ := apperrors.IsValidationError(validationErr)
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}

	resp, err := c.create.CreateOrder(r.Context(), req)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, resp)
}

func (c *OrdersController) HandleGet(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	resp, err := c.queries.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *OrdersController) HandleTrack(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	resp, err := c.queries.TrackOrder(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *OrdersController) HandleList(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	p := auth.FromContext(r.Context())
	if !p.IsAdmin() || !p.HasPermission("manage_orders") {
		c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", "manage_orders permission required")
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultPageLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	resp, err := c.queries.ListOrders(r.Context(), r.URL.Query().Get("status"), page, limit)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *OrdersController) HandleStats(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	p := auth.FromContext(r.Context())
	if !p.IsAdmin() || !p.HasPermission("view_analytics") {
		c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", "view_analytics permission required")
		return
	}

	resp, err := c.queries.OrderStats(r.Context())
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *OrdersController) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	if !auth.FromContext(r.Context()).IsAdmin() {
		c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", "admin access required")
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	resp, err := c.update.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func validateCreateOrderRequest(req dto.CreateOrderRequest) error {
	var details []apperrors.ValidationDetail

	if req.Customer.Name == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "customer.name",
			Message: "name is required",
		})
	}
	if req.Customer.Phone == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "customer.phone",
			Message: "phone is required",
		})
	}
	for field, value := range map[string]string{
		"customer.address.street":  req.Customer.Address.Street,
		"customer.address.city":    req.Customer.Address.City,
		"customer.address.state":   req.Customer.Address.State,
		"customer.address.zipCode": req.Customer.Address.ZipCode,
	} {
		if value == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   field,
				Message: "field is required",
			})
		}
	}

	if len(req.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}
	if len(req.Items) > maxOrderItems {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items exceeds maximum of " + strconv.Itoa(maxOrderItems),
		})
	}
	for idx, item := range req.Items {
		if item.ProductID == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].productId",
				Message: "productId is required",
			})
		}
		if item.Quantity < 1 || item.Quantity > maxItemQuantity {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].quantity",
				Message: "quantity must be between 1 and " + strconv.Itoa(maxItemQuantity),
			})
		}
	}

	if req.PaymentMethod == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "paymentMethod",
			Message: "paymentMethod is required",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func (c *OrdersController) handleUseCaseError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}
	if cre, ok := apperrors.IsCouponRejectedError(err); ok {
		c.writeError(w, traceID, http.StatusUnprocessableEntity, "COUPON_REJECTED", cre.Reason)
		return
	}
	if _, ok := apperrors.IsItemUnavailableError(err); ok {
		c.writeError(w, traceID, http.StatusUnprocessableEntity, "ITEM_UNAVAILABLE", err.Error())
		return
	}
	if _, ok := apperrors.IsInvalidTransitionError(err); ok {
		c.writeError(w, traceID, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeError(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		c.writeError(w, traceID, http.StatusConflict, "CONFLICT", err.Error())
		return
	}
	if _, ok := apperrors.IsForbiddenError(err); ok {
		c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", err.Error())
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeError(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

type errorResponse struct {
	TraceID   string    `json:"traceId"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type validationErrorResponse struct {
	TraceID string                       `json:"traceId"`
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *OrdersController) writeError(w http.ResponseWriter, traceID string, status int, code, message string) {
	c.writeJSON(w, status, errorResponse{
		TraceID:   traceID,
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (c *OrdersController) writeValidationError(w http.ResponseWriter, traceID, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		TraceID: traceID,
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *OrdersController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
