package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/robobar/plcbridge"
)

// Error codes
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeNoConnection      = "PLC_NOT_CONNECTED"
	ErrCodeTimeout           = "PLC_TIMEOUT"
	ErrCodeReadFailed        = "READ_FAILED"
	ErrCodeWriteFailed       = "WRITE_FAILED"
	ErrCodeMalformedData     = "MALFORMED_PLC_DATA"
	ErrCodeSubscriptionLimit = "SUBSCRIPTION_LIMIT_REACHED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// HTTPError represents an HTTP error with status code and error response
type HTTPError struct {
	StatusCode int
	Response   ErrorResponse
}

// Error implements the error interface
func (e HTTPError) Error() string {
	return e.Response.Error.Message
}

// NewHTTPError creates a new HTTP error. The body's statusCode defaults to
// the generic failure code.
func NewHTTPError(statusCode int, code, message string, details map[string]interface{}) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Response: ErrorResponse{
			StatusCode: int(plcbridge.StatusGenericFailure),
			Error: ErrorDetail{
				Code:    code,
				Message: message,
				Details: details,
			},
		},
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) *HTTPError {
	return NewHTTPError(
		http.StatusBadRequest,
		ErrCodeInvalidRequest,
		message,
		nil,
	)
}

// NewSubscriptionLimitError creates a subscription limit error
func NewSubscriptionLimitError(max int) *HTTPError {
	return NewHTTPError(
		http.StatusTooManyRequests,
		ErrCodeSubscriptionLimit,
		"maximum subscription limit reached",
		map[string]interface{}{"maximum": max},
	)
}

// NewRateLimitedError creates a rate limit error
func NewRateLimitedError() *HTTPError {
	return NewHTTPError(
		http.StatusTooManyRequests,
		ErrCodeRateLimited,
		"too many requests",
		nil,
	)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *HTTPError {
	return NewHTTPError(
		http.StatusInternalServerError,
		ErrCodeInternalError,
		message,
		nil,
	)
}

// FromPLCError maps a plcbridge error to an HTTP error carrying the
// matching statusCode.
func FromPLCError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	status := http.StatusBadGateway
	code := ErrCodeInternalError
	switch plcbridge.CategoryOf(err) {
	case plcbridge.ErrorCategoryNoConnection:
		status, code = http.StatusServiceUnavailable, ErrCodeNoConnection
	case plcbridge.ErrorCategoryTimeout:
		status, code = http.StatusGatewayTimeout, ErrCodeTimeout
	case plcbridge.ErrorCategoryInvalidArgument:
		status, code = http.StatusBadRequest, ErrCodeInvalidRequest
	case plcbridge.ErrorCategoryReadFailure:
		code = ErrCodeReadFailed
	case plcbridge.ErrorCategoryWriteFailure:
		code = ErrCodeWriteFailed
	case plcbridge.ErrorCategoryMalformedTimestamp:
		code = ErrCodeMalformedData
	}

	e := NewHTTPError(status, code, err.Error(), nil)
	e.Response.StatusCode = int(plcbridge.StatusOf(err))
	return e
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err error) {
	httpErr := FromPLCError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.StatusCode)
	json.NewEncoder(w).Encode(httpErr.Response)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}
