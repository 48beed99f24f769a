// Package plctime decodes the S7 DATE_AND_TIME packed-decimal layout.
package plctime

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PackedLen is the number of leading bytes that carry the calendar fields.
// The S7 DATE_AND_TIME value is 8 bytes long; milliseconds and weekday are ignored.
const PackedLen = 6

// ErrMalformed is returned when fewer than PackedLen bytes are supplied.
var ErrMalformed = errors.New("plctime: malformed timestamp")

// Timestamp is a PLC-local calendar time. No timezone is attached.
type Timestamp struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// Decode converts the packed-decimal bytes into a Timestamp.
// Bytes beyond index 5 are ignored. Nibbles are not range checked,
// so 0x0F decodes to 15 exactly as the PLC firmware does.
func Decode(b []byte) (Timestamp, error) {
	if len(b) < PackedLen {
		return Timestamp{}, fmt.Errorf("%w: need %d bytes, got %d", ErrMalformed, PackedLen, len(b))
	}

	var v [PackedLen]int
	for i := 0; i < PackedLen; i++ {
		v[i] = bcd(b[i])
	}

	return Timestamp{
		Year:   2000 + v[0],
		Month:  v[1],
		Day:    v[2],
		Hour:   v[3],
		Minute: v[4],
		Second: v[5],
	}, nil
}

// DecodeOptional decodes b, returning nil for an empty or all-zero value.
// PLC slots that never held a timestamp are zero filled.
func DecodeOptional(b []byte) (*Timestamp, error) {
	if isZero(b) {
		return nil, nil
	}
	ts, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func bcd(b byte) int {
	return 10*int(b>>4) + int(b&0x0F)
}

func isZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

// String renders the timestamp as YYYY-MM-DD-hh-mm-ss.
func (t Timestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d-%02d-%02d-%02d",
		t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

// MarshalJSON encodes the timestamp in its canonical string form.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}
