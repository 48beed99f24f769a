package plcbridge

import "time"

// Clock is the time source for retry backoff, liveness checks and the order
// acknowledgement wait. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(c *clientConfig) error {
		if clock == nil {
			clock = SystemClock
		}
		c.clock = clock
		return nil
	}
}
