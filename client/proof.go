package client

import (
	"errors"
	"fmt"

	"github.com/lunfardo314/statecall/state"
)

// ExecutionProof is the sequence of byte strings consumed pairwise as (key, value).
// It proves the whole state the call is executed against
type ExecutionProof [][]byte

var ErrMalformedProof = errors.New("malformed execution proof")

// ProofCodec converts between the state and its proof. The flat format is the only one implemented,
// the verification does not depend on it
type ProofCodec interface {
	Encode(pairs []state.KVPair) ExecutionProof
	Decode(proof ExecutionProof) (*state.InMemory, error)
}

// FlatProofCodec encodes the state as alternating key, value byte strings
type FlatProofCodec struct{}

var DefaultProofCodec ProofCodec = FlatProofCodec{}

func (FlatProofCodec) Encode(pairs []state.KVPair) ExecutionProof {
	ret := make(ExecutionProof, 0, 2*len(pairs))
	for _, p := range pairs {
		ret = append(ret, p.Key, p.Value)
	}
	return ret
}

// Decode rebuilds the state from the proof. Odd number of elements is an error.
// For repeating keys the last value wins
func (FlatProofCodec) Decode(proof ExecutionProof) (*state.InMemory, error) {
	if len(proof)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of elements %d", ErrMalformedProof, len(proof))
	}
	pairs := make([]state.KVPair, 0, len(proof)/2)
	for i := 0; i < len(proof); i += 2 {
		value := proof[i+1]
		if value == nil {
			value = []byte{}
		}
		pairs = append(pairs, state.KVPair{Key: proof[i], Value: value})
	}
	return state.NewInMemory(pairs...), nil
}

// StateToExecutionProof encodes the whole state of the backend into the proof
func StateToExecutionProof(backend state.Backend, codec ProofCodec) (ExecutionProof, error) {
	pairs, err := backend.Pairs()
	if err != nil {
		return nil, err
	}
	state.SortPairs(pairs)
	return codec.Encode(pairs), nil
}
