package events

import "errors"

// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDisabled is returned by Connect when event publishing is switched off.
	ErrDisabled = errors.New("events: publishing disabled")

	// ErrNotConnected is returned when publishing on a disconnected client.
	ErrNotConnected = errors.New("events: client not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("events: connection failed")

	// ErrPublishFailed is returned when a publish is not acknowledged.
	ErrPublishFailed = errors.New("events: publish failed")

	// ErrInvalidQoS is returned for QoS levels other than 0, 1 or 2.
	ErrInvalidQoS = errors.New("events: invalid QoS level (must be 0, 1, or 2)")
)
