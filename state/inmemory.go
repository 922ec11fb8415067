package state

import (
	"github.com/lunfardo314/statecall/commitment"
	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/unitrie/common"
)

// InMemory is an ephemeral backend. It is used to materialize the state received in the execution proof
// and in tests. It is never mutated after creation
type InMemory struct {
	m map[string][]byte
}

var _ RootedBackend = &InMemory{}

// NewInMemory creates backend from pairs. For repeating keys the last value wins
func NewInMemory(pairs ...KVPair) *InMemory {
	ret := &InMemory{m: make(map[string][]byte, len(pairs))}
	for _, p := range pairs {
		util.Assertf(p.Value != nil, "NewInMemory: nil value for key %s", func() string { return util.Fmt(p.Key) })
		ret.m[string(p.Key)] = util.CloneBytes(p.Value)
	}
	return ret
}

func NewInMemoryFromMap(m map[string][]byte) *InMemory {
	return NewInMemory(MapToPairs(m)...)
}

func (b *InMemory) Storage(key []byte) ([]byte, bool, error) {
	v, found := b.m[string(key)]
	if !found {
		return nil, false, nil
	}
	return util.CloneBytes(v), true, nil
}

// Pairs returns all pairs sorted by key
func (b *InMemory) Pairs() ([]KVPair, error) {
	return MapToPairs(b.m), nil
}

func (b *InMemory) Len() int {
	return len(b.m)
}

func (b *InMemory) Root() common.VCommitment {
	return commitment.RootOf(b.m)
}
