package fn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	t.Parallel()

	squared := Map([]int{1, 2, 3, 4, 5}, func(n int) int {
		return n * n
	})

	assert.Equal(t, []int{1, 4, 9, 16, 25}, squared)
}

func TestMap_DifferentTypes(t *testing.T) {
	t.Parallel()

	lengths := Map([]string{"a", "bb", "ccc"}, func(s string) int {
		return len(s)
	})

	assert.Equal(t, []int{1, 2, 3}, lengths)
}

func TestMap_EmptyEncodesAsArray(t *testing.T) {
	t.Parallel()

	for _, in := range [][]int{nil, {}} {
		out := Map(in, func(n int) string { return "x" })
		require.NotNil(t, out)
		require.Empty(t, out)

		b, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(b))
	}
}
