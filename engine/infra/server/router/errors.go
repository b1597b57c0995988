package router

import (
	"errors"
	"net/http"
)

// Error codes
const (
	ErrInternalCode        = "INTERNAL_ERROR"
	ErrBadRequestCode      = "BAD_REQUEST"
	ErrNotFoundCode        = "NOT_FOUND"
	ErrUnprocessableCode   = "UNPROCESSABLE_ENTITY"
	ErrTooManyRequestsCode = "TOO_MANY_REQUESTS"
)

// ErrMsgAppStateNotInitialized is returned when a handler runs without the
// state middleware in front of it.
const ErrMsgAppStateNotInitialized = "application state not initialized"

// RequestError represents errors that can occur during request handling.
type RequestError struct {
	Reason     string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Reason
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError
func NewRequestError(statusCode int, reason string, err error) *RequestError {
	return &RequestError{
		StatusCode: statusCode,
		Reason:     reason,
		Err:        err,
	}
}

// IsRequestError checks if the given error is a RequestError
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// GetErrorInfo extracts error information for the standardized response
func (e *RequestError) GetErrorInfo() *ErrorInfo {
	var details string
	if e.Err != nil {
		details = e.Err.Error()
	}
	code := ErrInternalCode
	switch e.StatusCode {
	case http.StatusBadRequest:
		code = ErrBadRequestCode
	case http.StatusNotFound:
		code = ErrNotFoundCode
	case http.StatusUnprocessableEntity:
		code = ErrUnprocessableCode
	case http.StatusTooManyRequests:
		code = ErrTooManyRequestsCode
	}
	return &ErrorInfo{
		Code:    code,
		Message: e.Reason,
		Details: details,
	}
}
