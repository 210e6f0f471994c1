package xslices

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"b": 1, "c": 2, "a": 3}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
	assert.Len(t, Keys(m), 3)
}

func TestMap(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, Map([]int{1, 2}, strconv.Itoa))
}

func TestFlag(t *testing.T) {
	f := &genericSliceFlagImpl[int]{parserFn: strconv.Atoi}
	require.NoError(t, f.Set("1,2,3"))
	assert.Equal(t, []int{1, 2, 3}, f.parsedSlice)
	assert.Equal(t, "1,2,3", f.String())

	s := &genericSliceFlagImpl[string]{parserFn: func(v string) (string, error) { return v, nil }}
	require.NoError(t, s.Set("[64, 1024];[4096]"))
	assert.Equal(t, []string{"[64, 1024]", "[4096]"}, s.parsedSlice)

	require.Error(t, f.Set("1,x"))
}
