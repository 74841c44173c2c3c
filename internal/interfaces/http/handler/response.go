package handler

import "github.com/marketplace/backend/internal/interfaces/http/dto"

// Types in this file only describe response envelopes in the OpenAPI docs.
// Handlers write dto.Response.

// APIResponse is the envelope of a single resource
type APIResponse[T any] struct {
	Success bool           `json:"success" example:"true"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ListResponse is the envelope of one page of a listing
type ListResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Data    []T       `json:"data"`
	Meta    *dto.Meta `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of a failed request. Validation failures
// list the offending fields in error.details.
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
