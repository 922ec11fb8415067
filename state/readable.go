package state

import (
	"fmt"

	"github.com/lunfardo314/statecall/commitment"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/unitrie/common"
	"github.com/lunfardo314/unitrie/immutable"
)

type (
	// Readable is a durable read-only state with the particular root.
	// The trie store is append-only per root, so the Readable never changes after creation
	Readable struct {
		trie *immutable.TrieReader
	}

	// Updatable is an updatable state with the particular root. After updated, the root changes.
	// Suitable for chained updates
	Updatable struct {
		trie  *immutable.TrieUpdatable
		store global.StateStore
	}

	// Change is a pending write. Nil Value means deletion
	Change struct {
		Key   []byte
		Value []byte
	}
)

var _ RootedBackend = &Readable{}

// NewReadable creates read-only state with the given root
func NewReadable(store common.KVReader, root common.VCommitment, clearCacheAtSize ...int) (*Readable, error) {
	trie, err := immutable.NewTrieReader(commitment.CommitmentModel, store, root, clearCacheAtSize...)
	if err != nil {
		return nil, err
	}
	return &Readable{trie}, nil
}

func MustNewReadable(store common.KVReader, root common.VCommitment, clearCacheAtSize ...int) *Readable {
	ret, err := NewReadable(store, root, clearCacheAtSize...)
	util.AssertNoError(err)
	return ret
}

// Storage reads the value from the trie. The trie panics on store failure, the panic is returned as an error
func (r *Readable) Storage(key []byte) (value []byte, found bool, err error) {
	err = util.CatchPanicOrError(func() error {
		value, found = commitment.DecodeValue(r.trie.Get(commitment.TrieKey(key)))
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("Readable.Storage(%s): %w", util.Fmt(key), err)
	}
	return
}

func (r *Readable) Pairs() ([]KVPair, error) {
	ret := make([]KVPair, 0)
	err := util.CatchPanicOrError(func() error {
		r.trie.Iterator([]byte{commitment.PartitionStorage}).Iterate(func(k, v []byte) bool {
			value, found := commitment.DecodeValue(v)
			util.Assertf(found, "inconsistency: empty value in the trie")
			ret = append(ret, KVPair{Key: commitment.StorageKey(k), Value: value})
			return true
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Readable.Pairs: %w", err)
	}
	return ret, nil
}

func (r *Readable) Root() common.VCommitment {
	return r.trie.Root()
}

func (r *Readable) MustStateIdentityBytes() []byte {
	return r.trie.Get(nil)
}

// NewUpdatable creates updatable state with the given root
func NewUpdatable(store global.StateStore, root common.VCommitment) (*Updatable, error) {
	trie, err := immutable.NewTrieUpdatable(commitment.CommitmentModel, store, root)
	if err != nil {
		return nil, err
	}
	return &Updatable{
		trie:  trie,
		store: store,
	}, nil
}

func MustNewUpdatable(store global.StateStore, root common.VCommitment) *Updatable {
	ret, err := NewUpdatable(store, root)
	util.AssertNoError(err)
	return ret
}

// InitEmptyState writes the empty state into the store and returns its root
func InitEmptyState(store global.StateStore) (common.VCommitment, error) {
	batch := store.BatchedWriter()
	root := commitment.CommitEmptyRoot(batch)
	if err := batch.Commit(); err != nil {
		return nil, err
	}
	return root, nil
}

func (u *Updatable) Readable() *Readable {
	return &Readable{u.trie.TrieReader}
}

func (u *Updatable) Root() common.VCommitment {
	return u.trie.Root()
}

// Update applies changes and commits the trie to the store. Returns the new root.
// The optional writeMore writes additional records in the same batch
func (u *Updatable) Update(changes []Change, writeMore ...func(w common.KVWriter, newRoot common.VCommitment)) (common.VCommitment, error) {
	err := util.CatchPanicOrError(func() error {
		for _, c := range changes {
			if c.Value == nil {
				u.trie.Delete(commitment.TrieKey(c.Key))
			} else {
				u.trie.Update(commitment.TrieKey(c.Key), commitment.EncodeValue(c.Value))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	batch := u.store.BatchedWriter()
	newRoot := u.trie.Commit(batch)
	for _, fun := range writeMore {
		fun(batch, newRoot)
	}
	if err = batch.Commit(); err != nil {
		return nil, err
	}
	if u.trie, err = immutable.NewTrieUpdatable(commitment.CommitmentModel, u.store, newRoot); err != nil {
		return nil, err
	}
	return newRoot, nil
}

// ResetTo replaces the whole key space of the state with pairs
func (u *Updatable) ResetTo(pairs []KVPair, writeMore ...func(w common.KVWriter, newRoot common.VCommitment)) (common.VCommitment, error) {
	existing, err := u.Readable().Pairs()
	if err != nil {
		return nil, err
	}
	changes := make([]Change, 0, len(existing)+len(pairs))
	for _, p := range existing {
		changes = append(changes, Change{Key: p.Key})
	}
	for _, p := range pairs {
		changes = append(changes, Change{Key: p.Key, Value: p.Value})
	}
	return u.Update(changes, writeMore...)
}
