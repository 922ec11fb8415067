package commitment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootOf(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		r1 := RootOf(map[string][]byte{"a": []byte("1"), "b": []byte("2")})
		r2 := RootOf(map[string][]byte{"b": []byte("2"), "a": []byte("1")})
		require.True(t, Equal(r1, r2))
		t.Logf("root: %s", r1.String())
	})
	t.Run("different sets", func(t *testing.T) {
		r1 := RootOf(map[string][]byte{"a": []byte("1")})
		r2 := RootOf(map[string][]byte{"a": []byte("9")})
		require.False(t, Equal(r1, r2))
	})
	t.Run("empty value is not absence", func(t *testing.T) {
		r1 := RootOf(map[string][]byte{"a": []byte("1"), "b": {}})
		r2 := RootOf(map[string][]byte{"a": []byte("1")})
		require.False(t, Equal(r1, r2))
	})
	t.Run("empty set", func(t *testing.T) {
		r1 := RootOf(nil)
		r2 := RootOf(map[string][]byte{})
		require.True(t, Equal(r1, r2))
	})
	t.Run("empty key", func(t *testing.T) {
		r1 := RootOf(map[string][]byte{"": []byte("1")})
		r2 := RootOf(nil)
		require.False(t, Equal(r1, r2))
	})
}

func TestRootSerialization(t *testing.T) {
	r := RootOf(map[string][]byte{"a": []byte("1")})
	rBack, err := RootFromBytes(r.Bytes())
	require.NoError(t, err)
	require.True(t, Equal(r, rBack))
	require.True(t, EqualBytes(r, rBack.Bytes()))
	require.False(t, EqualBytes(r, RandomRoot().Bytes()))
	require.False(t, EqualBytes(nil, r.Bytes()))
}

func TestValueEncoding(t *testing.T) {
	v, found := DecodeValue(EncodeValue([]byte("abc")))
	require.True(t, found)
	require.EqualValues(t, "abc", string(v))

	v, found = DecodeValue(EncodeValue(nil))
	require.True(t, found)
	require.EqualValues(t, 0, len(v))

	_, found = DecodeValue(nil)
	require.False(t, found)

	require.EqualValues(t, []byte("key"), StorageKey(TrieKey([]byte("key"))))
}
