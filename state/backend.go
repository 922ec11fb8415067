// Package state contains the storage backends, the two-tier overlay of pending writes and the
// externalities view over them, which is the only surface the runtime sees during execution
package state

import (
	"bytes"

	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/unitrie/common"
	"golang.org/x/exp/slices"
)

type (
	// Backend is a read-only capability over one immutable state snapshot.
	// Absence of the key is reported with found == false, never as an error.
	// Errors signal only failure of the underlying storage
	Backend interface {
		Storage(key []byte) (value []byte, found bool, err error)
		Pairs() ([]KVPair, error)
	}

	// RootedBackend is a backend which knows its own state root
	RootedBackend interface {
		Backend
		Root() common.VCommitment
	}

	KVPair struct {
		Key   []byte
		Value []byte
	}
)

func SortPairs(pairs []KVPair) {
	slices.SortFunc(pairs, func(p1, p2 KVPair) int {
		return bytes.Compare(p1.Key, p2.Key)
	})
}

// PairsToMap converts pairs into the map. Later pair wins for repeating keys
func PairsToMap(pairs []KVPair) map[string][]byte {
	ret := make(map[string][]byte, len(pairs))
	for _, p := range pairs {
		util.Assertf(p.Value != nil, "PairsToMap: nil value for key %s", func() string { return util.Fmt(p.Key) })
		ret[string(p.Key)] = p.Value
	}
	return ret
}

// MapToPairs returns pairs sorted by key
func MapToPairs(m map[string][]byte) []KVPair {
	ret := make([]KVPair, 0, len(m))
	for _, k := range util.SortedKeys(m) {
		ret = append(ret, KVPair{Key: []byte(k), Value: m[k]})
	}
	return ret
}
