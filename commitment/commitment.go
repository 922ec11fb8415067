// Package commitment provides the trie root function: a deterministic, order-independent
// commitment to a key/value set.
//
// The commitment uses blake2b 32-byte hash as a vector commitment method in a hexary
// radix tree, i.e. an internal node has up to 16 children (kind of Patricia).
// The same trie layout is used by the durable state, so the root of a key/value set computed
// here is equal to the root of the durable state holding exactly the same key/value pairs.
package commitment

import (
	"bytes"
	"crypto/rand"

	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/unitrie/common"
	"github.com/lunfardo314/unitrie/immutable"
	"github.com/lunfardo314/unitrie/models/trie_blake2b"
)

const (
	TrieArity    = common.PathArity16
	TrieHashSize = trie_blake2b.HashSize256

	// PartitionStorage is the partition of the trie key space the storage keys live in.
	// The empty trie key is occupied by the state identity
	PartitionStorage = byte(0)

	// every value in the trie is tagged, so that the empty value is distinguishable from the absent one
	valueTag = byte(0xff)
)

var CommitmentModel = trie_blake2b.New(TrieArity, TrieHashSize)

// StateIdentity is committed into every state root under the empty key
var StateIdentity = []byte("statecall state v1")

// TrieKey maps storage key to the key in the trie
func TrieKey(key []byte) []byte {
	return common.ConcatBytes([]byte{PartitionStorage}, key)
}

// StorageKey is the reverse of TrieKey
func StorageKey(trieKey []byte) []byte {
	util.Assertf(len(trieKey) > 0 && trieKey[0] == PartitionStorage, "StorageKey: wrong trie key partition")
	return util.CloneBytes(trieKey[1:])
}

func EncodeValue(value []byte) []byte {
	return common.ConcatBytes([]byte{valueTag}, value)
}

// DecodeValue returns found == false for the value which is absent in the trie
func DecodeValue(data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}
	util.Assertf(data[0] == valueTag, "DecodeValue: wrong value tag")
	return util.CloneBytes(data[1:]), true
}

// CommitEmptyRoot writes empty state with the identity and returns its root
func CommitEmptyRoot(w common.KVWriter) common.VCommitment {
	return immutable.MustInitRoot(w, CommitmentModel, StateIdentity)
}

// RootOf computes root of the key/value set. Keys of the map are storage keys.
// The result does not depend on the order of insertion
func RootOf(pairs map[string][]byte) common.VCommitment {
	store := common.NewInMemoryKVStore()
	emptyRoot := CommitEmptyRoot(store)
	trie, err := immutable.NewTrieUpdatable(CommitmentModel, store, emptyRoot)
	util.AssertNoError(err)

	for k, v := range pairs {
		util.Assertf(v != nil, "RootOf: nil value for key %s", func() string { return util.Fmt([]byte(k)) })
		trie.Update(TrieKey([]byte(k)), EncodeValue(v))
	}
	return trie.Commit(store)
}

func RootFromBytes(data []byte) (common.VCommitment, error) {
	return common.VectorCommitmentFromBytes(CommitmentModel, data)
}

func Equal(r1, r2 common.VCommitment) bool {
	return CommitmentModel.EqualCommitments(r1, r2)
}

// EqualBytes compares root with its serialized form, as recorded in the header
func EqualBytes(r common.VCommitment, data []byte) bool {
	if util.IsNil(r) {
		return false
	}
	return bytes.Equal(r.Bytes(), data)
}

// RandomRoot for testing
func RandomRoot() common.VCommitment {
	var data [TrieHashSize]byte
	_, err := rand.Read(data[:])
	util.AssertNoError(err)
	ret, err := RootFromBytes(data[:])
	util.AssertNoError(err)
	return ret
}
