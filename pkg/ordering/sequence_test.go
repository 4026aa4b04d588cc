package ordering_test

import (
	"testing"

	"github.com/dukex/stepflow/pkg/ordering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var abcd = map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}

// indicesOf returns every order_index in seq; Diff against nothing reports all steps.
func indicesOf(seq *ordering.Sequence) []int {
	values := make([]int, 0, seq.Len())
	for _, index := range seq.Diff(nil) {
		values = append(values, index)
	}

	return values
}

// idsOf lists the ids present in seq by order_index.
func idsOf(seq *ordering.Sequence, known ...string) []string {
	ids := make([]string, seq.Len())
	for _, id := range known {
		if index := seq.IndexOf(id); index > 0 {
			ids[index-1] = id
		}
	}

	return ids
}

func TestSequence_Append(t *testing.T) {
	seq := ordering.FromStored(nil)

	assert.Equal(t, 1, seq.Append("a"))
	assert.Equal(t, 2, seq.Append("b"))
	assert.Equal(t, 3, seq.Append("c"))

	assert.Equal(t, []string{"a", "b", "c"}, idsOf(seq, "a", "b", "c"))
	assert.Equal(t, 3, seq.IndexOf("c"))
	assert.Equal(t, 0, seq.IndexOf("missing"))
}

func TestSequence_Remove(t *testing.T) {
	tests := []struct {
		name     string
		remove   string
		expected []string
		changes  ordering.Changes
	}{
		{
			name:     "first step shifts everyone",
			remove:   "a",
			expected: []string{"b", "c", "d"},
			changes:  ordering.Changes{"b": 1, "c": 2, "d": 3},
		},
		{
			name:     "middle step shifts the tail",
			remove:   "c",
			expected: []string{"a", "b", "d"},
			changes:  ordering.Changes{"d": 3},
		},
		{
			name:     "last step changes nothing",
			remove:   "d",
			expected: []string{"a", "b", "c"},
			changes:  ordering.Changes{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := ordering.FromStored(abcd)

			require.NoError(t, seq.Remove(tt.remove))

			assert.Equal(t, tt.expected, idsOf(seq, "a", "b", "c", "d"))
			assert.Equal(t, tt.changes, seq.Diff(abcd))
			assert.NoError(t, ordering.Verify(indicesOf(seq)))
		})
	}
}

func TestSequence_Remove_Unknown(t *testing.T) {
	seq := ordering.FromStored(map[string]int{"a": 1, "b": 2})

	err := seq.Remove("z")
	require.ErrorIs(t, err, ordering.ErrUnknownStep)
	assert.Equal(t, []string{"a", "b"}, idsOf(seq, "a", "b"))
}

func TestSequence_Move(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		to       int
		expected []string
		changes  ordering.Changes
	}{
		{
			name:     "move down",
			id:       "a",
			to:       3,
			expected: []string{"b", "c", "a", "d"},
			changes:  ordering.Changes{"b": 1, "c": 2, "a": 3},
		},
		{
			name:     "move up",
			id:       "d",
			to:       2,
			expected: []string{"a", "d", "b", "c"},
			changes:  ordering.Changes{"d": 2, "b": 3, "c": 4},
		},
		{
			name:     "same position",
			id:       "b",
			to:       2,
			expected: []string{"a", "b", "c", "d"},
			changes:  ordering.Changes{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := ordering.FromStored(abcd)

			require.NoError(t, seq.Move(tt.id, tt.to))

			assert.Equal(t, tt.expected, idsOf(seq, "a", "b", "c", "d"))
			assert.Equal(t, tt.changes, seq.Diff(abcd))
			assert.NoError(t, ordering.Verify(indicesOf(seq)))
		})
	}
}

func TestSequence_Move_OutOfRange(t *testing.T) {
	seq := ordering.FromStored(map[string]int{"a": 1, "b": 2, "c": 3})

	require.ErrorIs(t, seq.Move("a", 0), ordering.ErrIndexOutOfRange)
	require.ErrorIs(t, seq.Move("a", 4), ordering.ErrIndexOutOfRange)
	require.ErrorIs(t, seq.Move("z", 1), ordering.ErrUnknownStep)

	assert.Equal(t, []string{"a", "b", "c"}, idsOf(seq, "a", "b", "c"))
}

func TestFromStored_RepairsDamagedOrdering(t *testing.T) {
	stored := map[string]int{"a": 1, "b": 4, "c": 4, "d": 9}

	seq := ordering.FromStored(stored)

	assert.Equal(t, []string{"a", "b", "c", "d"}, idsOf(seq, "a", "b", "c", "d"))
	assert.Equal(t, ordering.Changes{"b": 2, "c": 3, "d": 4}, seq.Diff(stored))
}

func TestVerify(t *testing.T) {
	assert.NoError(t, ordering.Verify(nil))
	assert.NoError(t, ordering.Verify([]int{2, 1, 3}))

	assert.ErrorIs(t, ordering.Verify([]int{1, 3}), ordering.ErrNotDense)
	assert.ErrorIs(t, ordering.Verify([]int{1, 1}), ordering.ErrNotDense)
	assert.ErrorIs(t, ordering.Verify([]int{0, 1}), ordering.ErrNotDense)
}

func TestSequence_RandomisedDensity(t *testing.T) {
	seq := ordering.FromStored(nil)

	ids := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"}
	for _, id := range ids {
		seq.Append(id)
	}

	require.NoError(t, seq.Move("s8", 1))
	require.NoError(t, seq.Remove("s4"))
	require.NoError(t, seq.Move("s1", seq.Len()))
	require.NoError(t, seq.Remove("s8"))
	seq.Append("s9")

	assert.Equal(t, 7, seq.Len())
	assert.NoError(t, ordering.Verify(indicesOf(seq)))
	assert.Equal(t, []string{"s2", "s3", "s5", "s6", "s7", "s1", "s9"}, idsOf(seq, append(ids, "s9")...))
}
