package esco

import (
	"errors"
	"fmt"
)

// ErrServiceUnavailable reports that every search of a validation stage failed, so
// the reference should be treated as unreachable for the rest of the scan.
var ErrServiceUnavailable = errors.New("esco: reference service unavailable")

// ServiceError is a failed search: network error, timeout, non-success status or an
// undecodable payload.
type ServiceError struct {
	Query      string
	Type       SearchType
	StatusCode int
	Message    string
	Cause      error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("esco %s search for %q failed: %s", e.Type, e.Query, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}
