package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func TestIndices(t *testing.T) {
	tests := []struct {
		name string
		view View[int]
		want []int
	}{
		{
			name: "wraps past end",
			view: View[int]{Items: seq(8), ReadIndex: 6, Length: 4, StartIndex: 0, EndIndex: 7},
			want: []int{6, 7, 0, 1},
		},
		{
			name: "no wrap",
			view: View[int]{Items: seq(8), ReadIndex: 2, Length: 3, StartIndex: 0, EndIndex: 7},
			want: []int{2, 3, 4},
		},
		{
			name: "empty queue",
			view: View[int]{Items: seq(8), ReadIndex: 5, Length: 0, StartIndex: 0, EndIndex: 7},
			want: []int{},
		},
		{
			name: "full buffer",
			view: View[int]{Items: seq(4), ReadIndex: 3, Length: 4, StartIndex: 0, EndIndex: 3},
			want: []int{3, 0, 1, 2},
		},
		{
			name: "one based plc array",
			view: View[int]{Items: seq(9), ReadIndex: 7, Length: 4, StartIndex: 1, EndIndex: 8},
			want: []int{7, 8, 1, 2},
		},
		{
			name: "read at last slot",
			view: View[int]{Items: seq(8), ReadIndex: 7, Length: 1, StartIndex: 0, EndIndex: 7},
			want: []int{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Indices(tt.view)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	snapshot := append([]string(nil), items...)

	got, err := Extract(View[string]{Items: items, ReadIndex: 6, Length: 4, StartIndex: 0, EndIndex: 7})
	require.NoError(t, err)
	assert.Equal(t, []string{"g", "h", "a", "b"}, got)
	assert.Equal(t, snapshot, items, "input must not be mutated")

	got[0] = "z"
	assert.Equal(t, "g", items[6], "result must not alias input")
}

// Every valid configuration of a small buffer yields exactly Length distinct
// in-range indices that step by one modulo capacity.
func TestIndicesAllConfigurations(t *testing.T) {
	for start := 0; start <= 2; start++ {
		for capacity := 1; capacity <= 9; capacity++ {
			end := start + capacity - 1
			items := seq(end + 1)
			for read := start; read <= end; read++ {
				for length := 0; length <= capacity; length++ {
					v := View[int]{Items: items, ReadIndex: read, Length: length, StartIndex: start, EndIndex: end}
					got, err := Indices(v)
					require.NoError(t, err)
					require.Len(t, got, length)

					seen := make(map[int]bool, length)
					for q, idx := range got {
						require.GreaterOrEqual(t, idx, start)
						require.LessOrEqual(t, idx, end)
						require.False(t, seen[idx], "index %d repeated", idx)
						seen[idx] = true
						want := start + (read-start+q)%capacity
						require.Equal(t, want, idx)
					}

					again, err := Indices(v)
					require.NoError(t, err)
					require.Equal(t, got, again)
				}
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		view View[int]
	}{
		{"start after end", View[int]{Items: seq(8), StartIndex: 5, EndIndex: 4, ReadIndex: 5}},
		{"negative start", View[int]{Items: seq(8), StartIndex: -1, EndIndex: 4}},
		{"read before start", View[int]{Items: seq(8), StartIndex: 2, EndIndex: 7, ReadIndex: 1}},
		{"read after end", View[int]{Items: seq(8), StartIndex: 0, EndIndex: 7, ReadIndex: 8}},
		{"length over capacity", View[int]{Items: seq(8), StartIndex: 0, EndIndex: 7, Length: 9}},
		{"negative length", View[int]{Items: seq(8), StartIndex: 0, EndIndex: 7, Length: -1}},
		{"end beyond items", View[int]{Items: seq(4), StartIndex: 0, EndIndex: 7, Length: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.view)
			assert.ErrorIs(t, err, ErrInvalidView)
		})
	}
}
