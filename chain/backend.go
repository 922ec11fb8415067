package chain

import (
	"fmt"

	"github.com/lunfardo314/statecall/commitment"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/state"
	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/unitrie/common"
)

type (
	// LocalBackend holds headers and the state data. Shared by pointer, its snapshots are immutable
	LocalBackend struct {
		*Store
	}

	// LightBackend holds headers only
	LightBackend struct {
		*Store
	}

	// BlockImportOperation collects everything needed to import one block. The pending state is the state
	// of the parent block. Owned by one importer, committed by the backend it was started from
	BlockImportOperation struct {
		parent    *Header
		pending   *state.Readable
		header    *Header
		isNewBest bool
		changes   []state.Change
		reset     []state.KVPair
		isReset   bool
	}
)

func NewLocalBackend(store global.StateStore) *LocalBackend {
	return &LocalBackend{Store: NewStore(store)}
}

func NewLightBackend(store global.StateStore) *LightBackend {
	return &LightBackend{Store: NewStore(store)}
}

func (b *LocalBackend) Blockchain() Blockchain {
	return b.Store
}

// IsLocalState returns true if the state data is kept locally
func (b *LocalBackend) IsLocalState() bool {
	return true
}

// StateAt returns state snapshot of the block. Unknown block returns ErrUnknownBlock
func (b *LocalBackend) StateAt(id BlockID) (state.Backend, error) {
	return b.ReadableAt(id)
}

func (b *LocalBackend) ReadableAt(id BlockID) (*state.Readable, error) {
	h, err := b.MustHeader(id)
	if err != nil {
		return nil, err
	}
	root, err := h.Root()
	if err != nil {
		return nil, fmt.Errorf("wrong state root in the header of %s: %w", id.String(), err)
	}
	return state.NewReadable(b.store, root)
}

// BeginOperation starts import of the child of the parent block
func (b *LocalBackend) BeginOperation(parent BlockID) (*BlockImportOperation, error) {
	parentHeader, err := b.MustHeader(parent)
	if err != nil {
		return nil, err
	}
	rdr, err := b.ReadableAt(ByHash(parentHeader.Hash()))
	if err != nil {
		return nil, err
	}
	return &BlockImportOperation{parent: parentHeader, pending: rdr}, nil
}

// BeginGenesisOperation starts import of the genesis block on top of the empty state
func (b *LocalBackend) BeginGenesisOperation() (*BlockImportOperation, error) {
	emptyRoot, err := state.InitEmptyState(b.store)
	if err != nil {
		return nil, err
	}
	rdr, err := state.NewReadable(b.store, emptyRoot)
	if err != nil {
		return nil, err
	}
	return &BlockImportOperation{pending: rdr}, nil
}

// CommitOperation applies storage changes of the operation to the state of the parent and stores the header.
// The state root of the header must be equal to the resulting root, otherwise nothing is written
func (b *LocalBackend) CommitOperation(op *BlockImportOperation) error {
	if err := op.checkHeader(); err != nil {
		return err
	}
	upd, err := state.NewUpdatable(b.store, op.pending.Root())
	if err != nil {
		return err
	}
	// the trie nodes of the new state may be written even if the root does not match.
	// They are unreachable from any header
	writeHeaderIfRootMatches := func(w common.KVWriter, newRoot common.VCommitment) {
		if commitment.EqualBytes(newRoot, op.header.StateRoot) {
			b.writeHeader(w, op.header, op.isNewBest)
		}
	}
	var newRoot common.VCommitment
	err = util.CatchPanicOrError(func() error {
		var errUpd error
		if op.isReset {
			newRoot, errUpd = upd.ResetTo(op.reset, writeHeaderIfRootMatches)
		} else {
			newRoot, errUpd = upd.Update(op.changes, writeHeaderIfRootMatches)
		}
		return errUpd
	})
	if err != nil {
		return err
	}
	if !commitment.EqualBytes(newRoot, op.header.StateRoot) {
		return fmt.Errorf("%w: block #%d: header has %x, state has %s",
			ErrStateRootMismatch, op.header.Number, op.header.StateRoot, newRoot.String())
	}
	return nil
}

func (b *LightBackend) Blockchain() Blockchain {
	return b.Store
}

func (b *LightBackend) IsLocalState() bool {
	return false
}

func (b *LightBackend) StateAt(id BlockID) (state.Backend, error) {
	return nil, fmt.Errorf("%w: %s", ErrStateNotAvailable, id.String())
}

func (b *LightBackend) BeginOperation(parent BlockID) (*BlockImportOperation, error) {
	parentHeader, err := b.MustHeader(parent)
	if err != nil {
		return nil, err
	}
	return &BlockImportOperation{parent: parentHeader}, nil
}

func (b *LightBackend) BeginGenesisOperation() (*BlockImportOperation, error) {
	return &BlockImportOperation{}, nil
}

// CommitOperation stores the header only. Storage changes cannot be applied on the light client
func (b *LightBackend) CommitOperation(op *BlockImportOperation) error {
	if err := op.checkHeader(); err != nil {
		return err
	}
	if op.isReset || len(op.changes) > 0 {
		return fmt.Errorf("%w: can't apply storage changes of the block #%d", ErrStateNotAvailable, op.header.Number)
	}
	return b.ImportHeader(op.header, op.isNewBest)
}

// State returns the state of the parent block. Nil on the light client
func (op *BlockImportOperation) State() state.Backend {
	if op.pending == nil {
		return nil
	}
	return op.pending
}

func (op *BlockImportOperation) SetBlockData(header *Header, isNewBest bool) {
	op.header = header
	op.isNewBest = isNewBest
}

// SetStorage sets pending writes, usually the changes of the overlay
func (op *BlockImportOperation) SetStorage(changes []state.Change) {
	op.changes = changes
	op.isReset = false
}

// ResetStorage replaces the whole state with pairs. Used by genesis
func (op *BlockImportOperation) ResetStorage(pairs []state.KVPair) {
	op.reset = pairs
	op.isReset = true
}

func (op *BlockImportOperation) checkHeader() error {
	if op.header == nil {
		return fmt.Errorf("block data is not set")
	}
	if op.parent == nil {
		if op.header.Number != 0 {
			return fmt.Errorf("genesis block must have number 0")
		}
		return nil
	}
	if op.header.ParentHash != op.parent.Hash() {
		return fmt.Errorf("block #%d: wrong parent hash", op.header.Number)
	}
	if op.header.Number != op.parent.Number+1 {
		return fmt.Errorf("wrong block number #%d: parent is #%d", op.header.Number, op.parent.Number)
	}
	return nil
}
