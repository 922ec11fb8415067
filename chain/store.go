package chain

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/unitrie/common"
	"github.com/lunfardo314/unitrie/immutable"
)

// Blockchain resolves block identities to hashes and headers. Unknown block is not an error
type Blockchain interface {
	Hash(number uint64) (Hash, bool, error)
	Header(id BlockID) (*Header, error)
}

// partitions of the store outside the trie
const (
	headerDBPartition = immutable.PartitionOther + iota
	numberDBPartition
	bestBlockDBPartition
)

// Store keeps headers, the number -> hash index and the best block in the same store with the state trie
type Store struct {
	store global.StateStore
}

var _ Blockchain = &Store{}

func NewStore(store global.StateStore) *Store {
	return &Store{store: store}
}

func (s *Store) StateStore() global.StateStore {
	return s.store
}

func headerKey(h Hash) []byte {
	return common.ConcatBytes([]byte{headerDBPartition}, h[:])
}

func numberKey(n uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return common.ConcatBytes([]byte{numberDBPartition}, buf[:])
}

func (s *Store) Hash(number uint64) (ret Hash, found bool, err error) {
	err = util.CatchPanicOrError(func() error {
		data := s.store.Get(numberKey(number))
		if len(data) == 0 {
			return nil
		}
		var errParse error
		if ret, errParse = HashFromBytes(data); errParse != nil {
			return errParse
		}
		found = true
		return nil
	})
	return
}

// Header returns nil, nil if the block is unknown
func (s *Store) Header(id BlockID) (*Header, error) {
	h := id.Hash
	if id.ByNumber {
		var found bool
		var err error
		if h, found, err = s.Hash(id.Number); err != nil || !found {
			return nil, err
		}
	}
	var ret *Header
	err := util.CatchPanicOrError(func() error {
		data := s.store.Get(headerKey(h))
		if len(data) == 0 {
			return nil
		}
		var errParse error
		ret, errParse = HeaderFromBytes(data)
		return errParse
	})
	if err != nil {
		return nil, fmt.Errorf("Store.Header(%s): %w", id.String(), err)
	}
	return ret, nil
}

// MustHeader returns ErrUnknownBlock if the block is not known
func (s *Store) MustHeader(id BlockID) (*Header, error) {
	ret, err := s.Header(id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, id.String())
	}
	return ret, nil
}

// BestHeader returns nil if the chain is empty
func (s *Store) BestHeader() (*Header, error) {
	data := s.store.Get([]byte{bestBlockDBPartition})
	if len(data) == 0 {
		return nil, nil
	}
	h, err := HashFromBytes(data)
	if err != nil {
		return nil, err
	}
	return s.Header(ByHash(h))
}

// ImportHeader stores the header without state. Used by light clients.
// The parent must be known unless it is the genesis header
func (s *Store) ImportHeader(h *Header, isNewBest bool) error {
	if err := s.checkParent(h); err != nil {
		return err
	}
	batch := s.store.BatchedWriter()
	if err := util.CatchPanicOrError(func() error {
		s.writeHeader(batch, h, isNewBest)
		return nil
	}); err != nil {
		return err
	}
	return batch.Commit()
}

func (s *Store) checkParent(h *Header) error {
	if h.Number == 0 {
		return nil
	}
	parent, err := s.Header(ByHash(h.ParentHash))
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("%w: parent %s of the block #%d", ErrUnknownBlock, h.ParentHash.String(), h.Number)
	}
	if parent.Number+1 != h.Number {
		return fmt.Errorf("wrong block number #%d: parent is #%d", h.Number, parent.Number)
	}
	return nil
}

// writeHeader stores the header. The number index follows the best chain only: when the header becomes
// the best block, index entries of its ancestors are rewritten down to the common ancestor with the
// previous best chain and entries above the new best block are deleted
func (s *Store) writeHeader(w common.KVWriter, h *Header, isNewBest bool) {
	hash := h.Hash()
	w.Set(headerKey(hash), h.Bytes())
	if !isNewBest {
		return
	}
	w.Set([]byte{bestBlockDBPartition}, hash[:])
	w.Set(numberKey(h.Number), hash[:])

	n, parentHash := h.Number, h.ParentHash
	for n > 0 {
		n--
		if bytes.Equal(s.store.Get(numberKey(n)), parentHash[:]) {
			break
		}
		w.Set(numberKey(n), parentHash[:])
		data := s.store.Get(headerKey(parentHash))
		util.Assertf(len(data) > 0, "writeHeader: missing header %s", parentHash.String)
		parent, err := HeaderFromBytes(data)
		util.AssertNoError(err)
		parentHash = parent.ParentHash
	}
	for n = h.Number + 1; s.store.Has(numberKey(n)); n++ {
		w.Set(numberKey(n), nil)
	}
}
