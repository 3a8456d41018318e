package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-matcher/internal/esco"
	"github.com/jonathan/resume-matcher/internal/pipeline"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "input error", err: &pipeline.InputError{Document: "resume", Message: "empty"}, want: http.StatusBadRequest},
		{name: "wrapped validation", err: fmt.Errorf("decode: %w", &ErrValidation{Field: "text", Message: "required"}), want: http.StatusBadRequest},
		{name: "body too large", err: &http.MaxBytesError{Limit: 10}, want: http.StatusRequestEntityTooLarge},
		{name: "service unavailable", err: esco.ErrServiceUnavailable, want: http.StatusServiceUnavailable},
		{name: "deadline", err: fmt.Errorf("scan: %w", context.DeadlineExceeded), want: http.StatusGatewayTimeout},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorBody(t *testing.T) {
	status, resp := errorBody(&ErrValidation{Field: "resume", Message: `failed "required"`})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ErrorResponse{Code: "bad_request", Message: `failed "required"`, Field: "resume"}, resp)

	status, resp = errorBody(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", resp.Message)
}
