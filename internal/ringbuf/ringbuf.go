// Package ringbuf reads the live entries out of a PLC-side circular buffer.
//
// The PLC keeps its queue in a fixed array and tracks the live region with a
// read index and a length. Array bounds are declared on the PLC side, so the
// first and last physical index are part of the view rather than assumed.
package ringbuf

import (
	"errors"
	"fmt"
)

// ErrInvalidView is returned when the indices break the buffer invariants.
var ErrInvalidView = errors.New("ringbuf: invalid view")

// View describes a ring buffer as the PLC exposes it.
type View[T any] struct {
	Items      []T
	ReadIndex  int
	Length     int
	StartIndex int
	EndIndex   int
}

// Capacity returns the number of physical slots between StartIndex and EndIndex.
func (v View[T]) Capacity() int {
	return v.EndIndex - v.StartIndex + 1
}

// Validate checks the view invariants and that every index it can produce
// addresses an element of Items.
func (v View[T]) Validate() error {
	switch {
	case v.StartIndex < 0 || v.StartIndex > v.EndIndex:
		return fmt.Errorf("%w: start %d, end %d", ErrInvalidView, v.StartIndex, v.EndIndex)
	case v.ReadIndex < v.StartIndex || v.ReadIndex > v.EndIndex:
		return fmt.Errorf("%w: read index %d outside [%d,%d]", ErrInvalidView, v.ReadIndex, v.StartIndex, v.EndIndex)
	case v.Length < 0 || v.Length > v.Capacity():
		return fmt.Errorf("%w: length %d exceeds capacity %d", ErrInvalidView, v.Length, v.Capacity())
	case v.Length > 0 && v.EndIndex >= len(v.Items):
		return fmt.Errorf("%w: end index %d beyond %d items", ErrInvalidView, v.EndIndex, len(v.Items))
	}
	return nil
}

// Indices returns the physical indices of the live entries in queue order.
func Indices[T any](v View[T]) ([]int, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	out := make([]int, 0, v.Length)
	for q := 0; q < v.Length; q++ {
		idx := v.ReadIndex + q
		if idx > v.EndIndex {
			idx = (idx - v.EndIndex - 1) + v.StartIndex
		}
		out = append(out, idx)
	}
	return out, nil
}

// Extract returns the live entries, first to be served first.
// The returned slice is newly allocated; Items is never modified.
func Extract[T any](v View[T]) ([]T, error) {
	idx, err := Indices(v)
	if err != nil {
		return nil, err
	}

	out := make([]T, len(idx))
	for i, p := range idx {
		out[i] = v.Items[p]
	}
	return out, nil
}
