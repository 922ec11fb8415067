package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProofEncoding(t *testing.T) {
	proof := [][]byte{[]byte("a"), []byte("1"), []byte("b"), {}}
	data, err := EncodeProof(proof)
	require.NoError(t, err)
	back, err := DecodeProof(data)
	require.NoError(t, err)
	require.EqualValues(t, len(proof), len(back))
	for i := range proof {
		require.EqualValues(t, string(proof[i]), string(back[i]))
	}

	data, err = EncodeProof(nil)
	require.NoError(t, err)
	back, err = DecodeProof(data)
	require.NoError(t, err)
	require.EqualValues(t, 0, len(back))

	_, err = DecodeProof([]byte("garbage"))
	require.Error(t, err)
}
