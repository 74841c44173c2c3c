package dto

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeHTTPStatus_EveryCodeIsAPIFormat(t *testing.T) {
	for code, status := range ErrorCodeHTTPStatus {
		assert.True(t, strings.HasPrefix(code, "ERR_"), code)
		assert.Equal(t, status, GetHTTPStatus(code))
	}
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("UNKNOWN_CODE"))
}

// The status a client sees for each failure the services raise
func TestDomainErrors_StatusSeenByClient(t *testing.T) {
	tests := []struct {
		err    *shared.DomainError
		code   string
		status int
	}{
		{shared.ErrNotFound, ErrCodeNotFound, http.StatusNotFound},
		{shared.ErrAlreadyExists, ErrCodeAlreadyExists, http.StatusConflict},
		{shared.ErrInvalidInput, ErrCodeInvalidInput, http.StatusBadRequest},
		{shared.ErrUnauthorized, ErrCodeUnauthorized, http.StatusUnauthorized},
		{shared.ErrForbidden, ErrCodeForbidden, http.StatusForbidden},
		{shared.ErrInvalidState, ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{shared.ErrConflict, ErrCodeConflict, http.StatusConflict},
		{shared.ErrNotImplemented, ErrCodeNotImplemented, http.StatusNotImplemented},
		{shared.ErrDecode, ErrCodeInternal, http.StatusInternalServerError},
		{shared.ErrInsufficientStock, ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.NewDomainError("CART_FULL", "Cart is full"), ErrCodeBusinessRule, http.StatusUnprocessableEntity},
		{shared.NewDomainError("INVALID_RATING", "Rating must be 1-5"), ErrCodeValidation, http.StatusBadRequest},
		{shared.NewDomainError("INVALID_TRANSITION", "Order already shipped"), ErrCodeValidation, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			code := NormalizeErrorCode(tt.err.Code)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, GetHTTPStatus(code))
		})
	}
}

func TestNormalizeErrorCode_PassThrough(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode("VALIDATION_ERROR"))
	assert.Equal(t, "CUSTOM_ERROR", NormalizeErrorCode("CUSTOM_ERROR"))
}

func TestIsInternal(t *testing.T) {
	assert.True(t, IsInternal(ErrCodeInternal))
	assert.True(t, IsInternal("SOMETHING_ELSE"))
	assert.False(t, IsInternal(ErrCodeNotImplemented))
	assert.False(t, IsInternal(ErrCodeInsufficientStock))
}

func TestNewErrorResponse(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse("NOT_FOUND", "Product not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Product not found", resp.Error.Message)
	assert.False(t, resp.Error.Timestamp.Before(before))
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Validation failed", "req-789", []ValidationDetail{
		{Field: "quantity", Message: "quantity must be at least 1"},
		{Field: "product_id", Message: "product_id is required"},
	})

	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "quantity", resp.Error.Details[0].Field)
}

func TestErrorResponseJSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponseWithRequestID(ErrCodeInsufficientStock, "Only 2 left", "req-1"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeInsufficientStock, errObj["code"])
	assert.Equal(t, "req-1", errObj["request_id"])
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		pages    int
		size     int
	}{
		{100, 10, 10, 10},
		{101, 10, 11, 10},
		{0, 10, 0, 10},
		{100, 0, 5, 20},
		{100, -1, 5, 20},
	}
	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
		assert.True(t, resp.Success)
		assert.Equal(t, tt.pages, resp.Meta.TotalPages)
		assert.Equal(t, tt.size, resp.Meta.PageSize)
	}
}
