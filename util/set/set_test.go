package set

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := New[string]("b", "a")
	require.True(t, s.Contains("a"))
	require.False(t, s.Contains("c"))
	s.Insert("c").Remove("a")
	require.EqualValues(t, []string{"b", "c"}, Ordered(s))

	var empty Set[int]
	require.False(t, empty.Contains(1))
	require.True(t, empty.IsEmpty())
}
