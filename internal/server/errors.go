package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-matcher/internal/esco"
	"github.com/jonathan/resume-matcher/internal/pipeline"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var inputErr *pipeline.InputError
	var validationErr *ErrValidation
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &inputErr), errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, esco.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}

// errorBody builds the response for err. Internal errors are not echoed to clients.
func errorBody(err error) (int, ErrorResponse) {
	status := HTTPStatus(err)
	resp := ErrorResponse{Code: errorCode(status), Message: err.Error()}
	var validationErr *ErrValidation
	if errors.As(err, &validationErr) {
		resp.Field = validationErr.Field
		resp.Message = validationErr.Message
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal error"
	}
	return status, resp
}
