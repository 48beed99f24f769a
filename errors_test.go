package plcbridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want StatusCode
	}{
		{"nil", nil, StatusOK},
		{"no connection", NewNoConnectionError("op"), StatusNoConnection},
		{"timeout", newError(ErrorCategoryTimeout, "op", errors.New("slow")), StatusTimeout},
		{"read", newError(ErrorCategoryReadFailure, "op", errBroken), StatusGenericFailure},
		{"write", newError(ErrorCategoryWriteFailure, "op", errBroken), StatusGenericFailure},
		{"invalid", NewInvalidArgumentError("op", "bad"), StatusGenericFailure},
		{"plain", errors.New("plain"), StatusGenericFailure},
		{"wrapped", fmt.Errorf("handler: %w", NewNoConnectionError("op")), StatusNoConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestStatusCodeValues(t *testing.T) {
	assert.Equal(t, 0, int(StatusOK))
	assert.Equal(t, -1, int(StatusGenericFailure))
	assert.Equal(t, -2, int(StatusTimeout))
	assert.Equal(t, -3, int(StatusNoConnection))
}

func TestClassifiedErrorSentinels(t *testing.T) {
	err := newNodeError(ErrorCategoryWriteFailure, "push_new_drink", NodePushNewOrder, errBroken)

	assert.ErrorIs(t, err, ErrWriteFailure)
	assert.NotErrorIs(t, err, ErrReadFailure)
	assert.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "push_new_drink")
	assert.Contains(t, err.Error(), NodePushNewOrder)
	assert.Equal(t, ErrorCategoryWriteFailure, CategoryOf(err))
	assert.Equal(t, ErrorCategoryUnknown, CategoryOf(errBroken))
}

func TestIsRetryable(t *testing.T) {
	retryable := map[ErrorCategory]bool{
		ErrorCategoryNoConnection:       true,
		ErrorCategoryReadFailure:        true,
		ErrorCategoryTimeout:            true,
		ErrorCategoryWriteFailure:       false,
		ErrorCategoryInvalidArgument:    false,
		ErrorCategoryMalformedTimestamp: false,
	}
	for cat, want := range retryable {
		err := &ClassifiedError{Category: cat, Operation: "op", Err: errBroken}
		assert.Equal(t, want, err.IsRetryable(), cat.String())
	}
}
