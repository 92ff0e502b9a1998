package coupon

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pronto/internal/auth"
	"pronto/internal/domain"
	"pronto/internal/dto"
	apperrors "pronto/internal/errors"
)

type Controller struct {
	repo      Repository
	validator *Validator
	logger    *zap.Logger
}

func NewController(repo Repository, validator *Validator, logger *zap.Logger) *Controller {
	return &Controller{
		repo:      repo,
		validator: validator,
		logger:    logger,
	}
}

func (c *Controller) HandleCreate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	if !auth.FromContext(r.Context()).IsAdmin() {
		c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", "admin access required")
		return
	}

	var req dto.CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if validationErr := validateCreateCouponRequest(req); validationErr != nil {
		ve, _ := apperrors.IsValidationError(validationErr)
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}

	now := time.Now().UTC()
	coupon := &domain.Coupon{
		ID:                   uuid.New().String(),
		Code:                 strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:                 req.Name,
		Description:          req.Description,
		Kind:                 domain.CouponKind(req.Kind),
		Value:                req.Value,
		MinOrderAmount:       req.MinOrderAmount,
		MaxDiscountAmount:    req.MaxDiscountAmount,
		ValidFrom:            req.ValidFrom,
		ValidUntil:           req.ValidUntil,
		UsageLimit:           req.UsageLimit,
		ApplicableCategories: req.ApplicableCategories,
		ApplicableProducts:   req.ApplicableProducts,
		ExcludedProducts:     req.ExcludedProducts,
		FirstTimeOnly:        req.FirstTimeOnly,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := c.repo.Insert(r.Context(), coupon); err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	logger.Info("coupon created", zap.String("code", coupon.Code))
	c.writeJSON(w, http.StatusCreated, toCouponResponse(coupon))
}

func (c *Controller) HandleList(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	if !auth.FromContext(r.Context()).IsAdmin() {
		c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", "admin access required")
		return
	}

	coupons, err := c.repo.List(r.Context())
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	out := make([]dto.CouponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, toCouponResponse(&coupons[i]))
	}

	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(out),
		"data":  out,
	})
}

func (c *Controller) HandleToggle(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	if !auth.FromContext(r.Context()).IsAdmin() {
		c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", "admin access required")
		return
	}

	var req dto.ToggleCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	code := chi.URLParam(r, "code")
	if err := c.repo.SetActive(r.Context(), code, req.IsActive); err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	logger.Info("coupon toggled", zap.String("code", code), zap.Bool("isActive", req.IsActive))
	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":     strings.ToUpper(strings.TrimSpace(code)),
		"isActive": req.IsActive,
	})
}

func (c *Controller) HandleValidate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.ValidateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	var details []apperrors.ValidationDetail
	if strings.TrimSpace(req.Code) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "code", Message: "code is required"})
	}
	if len(req.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{Field: "items", Message: "items must not be empty"})
	}
	if len(details) > 0 {
		c.writeValidationError(w, traceID, "validation failed", details...)
		return
	}

	resp, err := c.validator.Preview(r.Context(), req)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func validateCreateCouponRequest(req dto.CreateCouponRequest) error {
	var details []apperrors.ValidationDetail

	if strings.TrimSpace(req.Code) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "code", Message: "code is required"})
	}
	if strings.TrimSpace(req.Name) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name is required"})
	}

	switch domain.CouponKind(req.Kind) {
	case domain.CouponPercentage:
		if req.Value.LessThanOrEqual(decimal.Zero) || req.Value.GreaterThan(decimal.NewFromInt(100)) {
			details = append(details, apperrors.ValidationDetail{
				Field:   "value",
				Message: "percentage value must be between 0 and 100",
			})
		}
	case domain.CouponFixed:
		if req.Value.LessThanOrEqual(decimal.Zero) {
			details = append(details, apperrors.ValidationDetail{
				Field:   "value",
				Message: "fixed value must be positive",
			})
		}
	default:
		details = append(details, apperrors.ValidationDetail{
			Field:   "kind",
			Message: "kind must be percentage or fixed",
		})
	}

	if req.MinOrderAmount.IsNegative() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "minOrderAmount",
			Message: "minOrderAmount must not be negative",
		})
	}
	if req.MaxDiscountAmount != nil && req.MaxDiscountAmount.LessThanOrEqual(decimal.Zero) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "maxDiscountAmount",
			Message: "maxDiscountAmount must be positive",
		})
	}
	if req.UsageLimit != nil && *req.UsageLimit < 1 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "usageLimit",
			Message: "usageLimit must be at least 1",
		})
	}
	if !req.ValidFrom.Before(req.ValidUntil) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "validUntil",
			Message: "validUntil must be after validFrom",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func toCouponResponse(c *domain.Coupon) dto.CouponResponse {
	return dto.CouponResponse{
		ID:                   c.ID,
		Code:                 c.Code,
		Name:                 c.Name,
		Description:          c.Description,
		Kind:                 string(c.Kind),
		Value:                c.Value,
		MinOrderAmount:       c.MinOrderAmount,
		MaxDiscountAmount:    c.MaxDiscountAmount,
		ValidFrom:            c.ValidFrom,
		ValidUntil:           c.ValidUntil,
		UsageLimit:           c.UsageLimit,
		UsedCount:            c.UsedCount,
		ApplicableCategories: c.ApplicableCategories,
		ApplicableProducts:   c.ApplicableProducts,
		ExcludedProducts:     c.ExcludedProducts,
		FirstTimeOnly:        c.FirstTimeOnly,
		IsActive:             c.IsActive,
	}
}

func (c *Controller) handleError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if _, ok := apperrors.IsItemUnavailableError(err); ok {
		c.writeError(w, traceID, http.StatusUnprocessableEntity, "ITEM_UNAVAILABLE", err.Error())
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

func (c *Controller) writeError(w http.ResponseWriter, traceID string, status int, code, message string) {
	c.writeJSON(w, status, errorResponse{
		TraceID:   traceID,
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (c *Controller) writeValidationError(w http.ResponseWriter, traceID, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		TraceID: traceID,
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
