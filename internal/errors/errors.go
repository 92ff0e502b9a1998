package errors

import "fmt"

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	if ve, ok := err.(*ValidationError); ok {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	if nfe, ok := err.(*NotFoundError); ok {
		return nfe, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	if ce, ok := err.(*ConflictError); ok {
		return ce, true
	}
	return nil, false
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	if fe, ok := err.(*ForbiddenError); ok {
		return fe, true
	}
	return nil, false
}

// CouponRejectedError carries the first failing coupon check so checkout can
// surface the exact reason instead of a generic error.
type CouponRejectedError struct {
	Code   string
	Reason string
}

func (e *CouponRejectedError) Error() string {
	return e.Reason
}

func NewCouponRejectedError(code, reason string) *CouponRejectedError {
	return &CouponRejectedError{Code: code, Reason: reason}
}

func IsCouponRejectedError(err error) (*CouponRejectedError, bool) {
	if cre, ok := err.(*CouponRejectedError); ok {
		return cre, true
	}
	return nil, false
}

// ItemUnavailableError rejects the whole order when any referenced product is
// missing or disabled. No partial orders.
type ItemUnavailableError struct {
	ProductID string
	Reason    string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("product %s: %s", e.ProductID, e.Reason)
}

func NewItemUnavailableError(productID, reason string) *ItemUnavailableError {
	return &ItemUnavailableError{ProductID: productID, Reason: reason}
}

func IsItemUnavailableError(err error) (*ItemUnavailableError, bool) {
	if iue, ok := err.(*ItemUnavailableError); ok {
		return iue, true
	}
	return nil, false
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func IsInvalidTransitionError(err error) (*InvalidTransitionError, bool) {
	if ite, ok := err.(*InvalidTransitionError); ok {
		return ite, true
	}
	return nil, false
}

type InvalidSignatureError struct {
	Message string
}

func (e *InvalidSignatureError) Error() string {
	return e.Message
}

func NewInvalidSignatureError(message string) *InvalidSignatureError {
	return &InvalidSignatureError{Message: message}
}

func IsInvalidSignatureError(err error) (*InvalidSignatureError, bool) {
	if ise, ok := err.(*InvalidSignatureError); ok {
		return ise, true
	}
	return nil, false
}

// GatewayError wraps a failed payment-provider call. Never retried internally;
// the caller decides whether to retry.
type GatewayError struct {
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

func NewGatewayError(message string, cause error) *GatewayError {
	return &GatewayError{Message: message, Cause: cause}
}

func IsGatewayError(err error) (*GatewayError, bool) {
	if ge, ok := err.(*GatewayError); ok {
		return ge, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
