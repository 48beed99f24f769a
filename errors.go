package plcbridge

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the type of error for better error handling.
type ErrorCategory int

const (
	// ErrorCategoryUnknown represents an unclassified error.
	ErrorCategoryUnknown ErrorCategory = iota

	// ErrorCategoryNoConnection means the session was not established; nothing was attempted.
	ErrorCategoryNoConnection

	// ErrorCategoryReadFailure represents a transport or node error during a read.
	ErrorCategoryReadFailure

	// ErrorCategoryWriteFailure represents a transport or node error during a write.
	ErrorCategoryWriteFailure

	// ErrorCategoryTimeout means a bounded wait ran out. The device side effect is unknown.
	ErrorCategoryTimeout

	// ErrorCategoryMalformedTimestamp represents a date value that cannot be decoded.
	ErrorCategoryMalformedTimestamp

	// ErrorCategoryInvalidArgument represents a request the PLC contract does not allow.
	ErrorCategoryInvalidArgument

	// ErrorCategoryState represents misuse of the client lifecycle.
	ErrorCategoryState
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryNoConnection:
		return "no_connection"
	case ErrorCategoryReadFailure:
		return "read_failure"
	case ErrorCategoryWriteFailure:
		return "write_failure"
	case ErrorCategoryTimeout:
		return "timeout"
	case ErrorCategoryMalformedTimestamp:
		return "malformed_timestamp"
	case ErrorCategoryInvalidArgument:
		return "invalid_argument"
	case ErrorCategoryState:
		return "state"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. A *ClassifiedError matches the sentinel of its category.
var (
	ErrNoConnection       = errors.New("plcbridge: no connection to PLC")
	ErrReadFailure        = errors.New("plcbridge: read failed")
	ErrWriteFailure       = errors.New("plcbridge: write failed")
	ErrTimeout            = errors.New("plcbridge: timed out")
	ErrMalformedTimestamp = errors.New("plcbridge: malformed timestamp")
	ErrInvalidArgument    = errors.New("plcbridge: invalid argument")
)

var sentinels = map[ErrorCategory]error{
	ErrorCategoryNoConnection:       ErrNoConnection,
	ErrorCategoryReadFailure:        ErrReadFailure,
	ErrorCategoryWriteFailure:       ErrWriteFailure,
	ErrorCategoryTimeout:            ErrTimeout,
	ErrorCategoryMalformedTimestamp: ErrMalformedTimestamp,
	ErrorCategoryInvalidArgument:    ErrInvalidArgument,
}

// ClassifiedError wraps an error with additional classification metadata.
type ClassifiedError struct {
	Category  ErrorCategory
	Operation string // e.g. "drink_types", "push_new_drink"
	Node      string // optional: the node path involved
	Err       error
}

func (e *ClassifiedError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s failed (%s) for node %s: %v", e.Operation, e.Category, e.Node, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Operation, e.Category, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of the error's category.
func (e *ClassifiedError) Is(target error) bool {
	s, ok := sentinels[e.Category]
	return ok && s == target
}

// IsRetryable returns whether repeating the call later may succeed.
// Timeout is retryable only in that sense; a retried push may enqueue a second order.
func (e *ClassifiedError) IsRetryable() bool {
	switch e.Category {
	case ErrorCategoryNoConnection, ErrorCategoryReadFailure, ErrorCategoryTimeout:
		return true
	default:
		return false
	}
}

// CategoryOf returns the category of err, or ErrorCategoryUnknown.
func CategoryOf(err error) ErrorCategory {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ErrorCategoryUnknown
}

// StatusCode is the numeric outcome reported to API clients.
type StatusCode int

const (
	StatusOK             StatusCode = 0
	StatusGenericFailure StatusCode = -1
	StatusTimeout        StatusCode = -2
	StatusNoConnection   StatusCode = -3
)

func (s StatusCode) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimeout:
		return "timeout"
	case StatusNoConnection:
		return "no_connection"
	default:
		return "generic_failure"
	}
}

// StatusOf maps an operation error to its status code.
func StatusOf(err error) StatusCode {
	if err == nil {
		return StatusOK
	}
	switch CategoryOf(err) {
	case ErrorCategoryNoConnection:
		return StatusNoConnection
	case ErrorCategoryTimeout:
		return StatusTimeout
	default:
		return StatusGenericFailure
	}
}

// Common error constructors with classification

func newError(category ErrorCategory, operation string, err error) error {
	return &ClassifiedError{Category: category, Operation: operation, Err: err}
}

func newNodeError(category ErrorCategory, operation, node string, err error) error {
	return &ClassifiedError{Category: category, Operation: operation, Node: node, Err: err}
}

// NewNoConnectionError creates a classified error for an operation refused while disconnected.
func NewNoConnectionError(operation string) error {
	return newError(ErrorCategoryNoConnection, operation, errors.New("session not connected"))
}

// NewInvalidArgumentError creates a classified validation error.
func NewInvalidArgumentError(operation, message string) error {
	return newError(ErrorCategoryInvalidArgument, operation, errors.New(message))
}

// NewStateError creates a classified state error.
func NewStateError(operation, message string) error {
	return newError(ErrorCategoryState, operation, errors.New(message))
}
