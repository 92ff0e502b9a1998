package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError_Creation(t *testing.T) {
	message := "order not found"
	err := NewNotFoundError(message)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
}

func TestNotFoundError_IsNotFoundError(t *testing.T) {
	err := NewNotFoundError("test not found")

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.NotNil(t, notFoundErr)
	assert.Equal(t, "test not found", notFoundErr.Message)
}

func TestNotFoundError_IsNotFoundError_WithOtherError(t *testing.T) {
	err := errors.New("some other error")

	notFoundErr, ok := IsNotFoundError(err)
	assert.False(t, ok)
	assert.Nil(t, notFoundErr)
}

func TestNotFoundError_ErrorInterface(t *testing.T) {
	var err error = NewNotFoundError("entity not found")
	assert.NotNil(t, err)
	assert.Equal(t, "entity not found", err.Error())
}

func TestValidationError_Creation(t *testing.T) {
	message := "validation failed"
	details := []ValidationDetail{
		{Field: "email", Message: "invalid email"},
		{Field: "name", Message: "required field"},
	}

	err := NewValidationError(message, details...)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
	assert.Len(t, err.Details, 2)
}

func TestInternalError_Creation(t *testing.T) {
	cause := errors.New("database error")
	err := NewInternalError("failed to query database", cause)

	assert.NotNil(t, err)
	assert.Equal(t, "failed to query database", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "failed to query database")
	assert.Contains(t, err.Error(), "database error")
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewInternalError("wrapper", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestInternalError_NilCause(t *testing.T) {
	err := NewInternalError("no cause", nil)

	assert.Equal(t, "no cause", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestConflictError_Creation(t *testing.T) {
	err := NewConflictError("order was modified concurrently")

	conflictErr, ok := IsConflictError(err)
	assert.True(t, ok)
	assert.Equal(t, "order was modified concurrently", conflictErr.Error())
}

func TestCouponRejectedError_Creation(t *testing.T) {
	err := NewCouponRejectedError("WELCOME10", "Minimum order amount of $20.00 required")

	cre, ok := IsCouponRejectedError(err)
	assert.True(t, ok)
	assert.Equal(t, "WELCOME10", cre.Code)
	assert.Equal(t, "Minimum order amount of $20.00 required", cre.Error())
}

func TestCouponRejectedError_WithOtherError(t *testing.T) {
	cre, ok := IsCouponRejectedError(errors.New("boom"))
	assert.False(t, ok)
	assert.Nil(t, cre)
}

func TestItemUnavailableError_Creation(t *testing.T) {
	err := NewItemUnavailableError("abc123", "currently unavailable")

	iue, ok := IsItemUnavailableError(err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", iue.ProductID)
	assert.Equal(t, "product abc123: currently unavailable", iue.Error())
}

func TestInvalidTransitionError_Creation(t *testing.T) {
	err := NewInvalidTransitionError("Delivered", "Pending")

	ite, ok := IsInvalidTransitionError(err)
	assert.True(t, ok)
	assert.Equal(t, "Delivered", ite.From)
	assert.Equal(t, "Pending", ite.To)
	assert.Equal(t, "invalid status transition from Delivered to Pending", ite.Error())
}

func TestInvalidSignatureError_Creation(t *testing.T) {
	err := NewInvalidSignatureError("invalid payment signature")

	ise, ok := IsInvalidSignatureError(err)
	assert.True(t, ok)
	assert.Equal(t, "invalid payment signature", ise.Error())
}

func TestGatewayError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewGatewayError("refund request failed", cause)

	ge, ok := IsGatewayError(err)
	assert.True(t, ok)
	assert.Contains(t, ge.Error(), "refund request failed")
	assert.True(t, errors.Is(err, cause))
}
