package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	require.EqualValues(t, []string{"a", "b", "c"}, SortedKeys(m))
	require.EqualValues(t, 0, len(SortedKeys(map[string]int{})))
}

func TestCloneBytes(t *testing.T) {
	require.Nil(t, CloneBytes(nil))
	empty := CloneBytes([]byte{})
	require.NotNil(t, empty)
	require.EqualValues(t, 0, len(empty))

	orig := []byte{1, 2, 3}
	cl := CloneBytes(orig)
	cl[0] = 100
	require.EqualValues(t, 1, orig[0])
}

func TestThousands(t *testing.T) {
	require.EqualValues(t, "0", Thousands(0))
	require.EqualValues(t, "999", Thousands(999))
	require.EqualValues(t, "1,000", Thousands(1000))
	require.EqualValues(t, "1,234,567", Thousands(uint64(1234567)))
	require.EqualValues(t, "-1,000", Thousands(-1000))
}

var errTest = errors.New("test error")

func TestCatchPanicOrError(t *testing.T) {
	t.Run("no panic", func(t *testing.T) {
		require.NoError(t, CatchPanicOrError(func() error { return nil }))
	})
	t.Run("error", func(t *testing.T) {
		err := CatchPanicOrError(func() error { return errTest })
		require.True(t, errors.Is(err, errTest))
	})
	t.Run("panic with error", func(t *testing.T) {
		err := CatchPanicOrError(func() error { panic(errTest) })
		require.True(t, errors.Is(err, errTest))
	})
	t.Run("panic with stack", func(t *testing.T) {
		err := CatchPanicOrError(func() error { panic(errTest) }, true)
		require.True(t, errors.Is(err, errTest))
	})
	t.Run("panic with string", func(t *testing.T) {
		RequireErrorWith(t, CatchPanicOrError(func() error { panic("boom") }), "boom")
	})
	t.Run("assert", func(t *testing.T) {
		RequirePanicOrErrorWith(t, func() error {
			Assertf(1 == 2, "%d must be equal to %d", 1, 2)
			return nil
		}, "1 must be equal to 2")
	})
}
