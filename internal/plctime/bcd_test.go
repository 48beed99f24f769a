package plctime

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  Timestamp
		str   string
	}{
		{
			name:  "plc clock sample",
			input: []byte{0x22, 0x05, 0x12, 0x0F, 0x0A, 0x00},
			want:  Timestamp{Year: 2022, Month: 5, Day: 12, Hour: 15, Minute: 10, Second: 0},
			str:   "2022-05-12-15-10-00",
		},
		{
			name:  "well formed bcd",
			input: []byte{0x24, 0x12, 0x31, 0x23, 0x59, 0x58},
			want:  Timestamp{Year: 2024, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 58},
			str:   "2024-12-31-23-59-58",
		},
		{
			name:  "trailing millis and weekday ignored",
			input: []byte{0x23, 0x01, 0x02, 0x03, 0x04, 0x05, 0x99, 0x97},
			want:  Timestamp{Year: 2023, Month: 1, Day: 2, Hour: 3, Minute: 4, Second: 5},
			str:   "2023-01-02-03-04-05",
		},
		{
			name:  "zero value",
			input: make([]byte, 8),
			want:  Timestamp{Year: 2000},
			str:   "2000-00-00-00-00-00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestDecodeShortInput(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		_, err := Decode(make([]byte, n))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%d bytes) error = %v, want ErrMalformed", n, err)
		}
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	in := []byte{0x22, 0x05, 0x12, 0x0F, 0x0A, 0x00}
	cp := append([]byte(nil), in...)
	_, err := Decode(in)
	require.NoError(t, err)
	assert.Equal(t, cp, in)
}

func TestDecodeOptional(t *testing.T) {
	ts, err := DecodeOptional(nil)
	require.NoError(t, err)
	assert.Nil(t, ts)

	ts, err = DecodeOptional(make([]byte, 8))
	require.NoError(t, err)
	assert.Nil(t, ts)

	ts, err = DecodeOptional([]byte{0x22, 0x05, 0x12, 0x15, 0x10, 0x00, 0, 0})
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, "2022-05-12-15-10-00", ts.String())

	_, err = DecodeOptional([]byte{0x22, 0x05})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestTimestampJSON(t *testing.T) {
	ts := Timestamp{Year: 2022, Month: 5, Day: 12, Hour: 15, Minute: 10}
	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2022-05-12-15-10-00"`, string(b))

	var ptr *Timestamp
	b, err = json.Marshal(struct {
		At *Timestamp `json:"at"`
	}{ptr})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":null}`, string(b))
}
