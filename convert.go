package plcbridge

import (
	"fmt"

	"github.com/robobar/plcbridge/internal/plctime"
)

// The transport hands out whatever Go type the server encoded a value as.
// These helpers accept the widths the drink program uses and reject the rest.

func asInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return int(x), nil
	case uint64:
		return int(x), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func asBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected byte array, got %T", v)
	}
}

// asStructs converts an array read into its registered element type. Elements
// arrive as *T after extension object decoding; T is accepted for in-process
// sources. nil elements become zero values.
func asStructs[T any](v any) ([]T, error) {
	switch x := v.(type) {
	case []T:
		return x, nil
	case []*T:
		out := make([]T, len(x))
		for i, p := range x {
			if p != nil {
				out[i] = *p
			}
		}
		return out, nil
	case []any:
		out := make([]T, len(x))
		for i, e := range x {
			s, err := asStruct[T](e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = s
		}
		return out, nil
	default:
		var zero T
		return nil, fmt.Errorf("expected array of %T, got %T", zero, v)
	}
}

func asStruct[T any](v any) (T, error) {
	var zero T
	switch x := v.(type) {
	case *T:
		if x == nil {
			return zero, nil
		}
		return *x, nil
	case T:
		return x, nil
	case nil:
		return zero, nil
	default:
		return zero, fmt.Errorf("expected %T, got %T", zero, v)
	}
}

// decodeStamp decodes an optional DATE_AND_TIME member.
func decodeStamp(operation, node string, raw []byte) (*Timestamp, error) {
	ts, err := plctime.DecodeOptional(raw)
	if err != nil {
		return nil, newNodeError(ErrorCategoryMalformedTimestamp, operation, node, err)
	}
	return ts, nil
}
