package state

import (
	"github.com/lunfardo314/statecall/commitment"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/unitrie/common"
)

// Externalities is the view of the state the runtime executes against
type Externalities interface {
	Storage(key []byte) ([]byte, bool)
	PlaceStorage(key, value []byte)
	ChainID() uint64
	StorageRoot() common.VCommitment
}

// Ext merges the overlay and the backend. It does not own any of them and is created per execution
type Ext struct {
	overlay *OverlayedChanges
	backend Backend
}

var _ Externalities = &Ext{}

func NewExt(overlay *OverlayedChanges, backend Backend) *Ext {
	return &Ext{
		overlay: overlay,
		backend: backend,
	}
}

// Storage resolves the key in the overlay first, then in the backend.
// Backend failure panics with *ExternalitiesError
func (e *Ext) Storage(key []byte) ([]byte, bool) {
	if value, known := e.overlay.Storage(key); known {
		return value, value != nil
	}
	value, found, err := e.backend.Storage(key)
	if err != nil {
		panic(&ExternalitiesError{Op: "Storage", Key: key, Cause: err})
	}
	return value, found
}

// PlaceStorage writes into the overlay. Nil value deletes the key
func (e *Ext) PlaceStorage(key, value []byte) {
	e.overlay.SetStorage(key, value)
}

func (e *Ext) ChainID() uint64 {
	return global.ChainID
}

// StorageRoot computes the root over the merged key space: backend pairs, then committed,
// then prospective writes. Deleted keys are dropped
func (e *Ext) StorageRoot() common.VCommitment {
	pairs, err := e.backend.Pairs()
	if err != nil {
		panic(&ExternalitiesError{Op: "StorageRoot", Cause: err})
	}
	m := PairsToMap(pairs)
	for k, v := range e.overlay.merged() {
		if v == nil {
			delete(m, k)
		} else {
			m[k] = v
		}
	}
	return commitment.RootOf(m)
}

func (e *Ext) Overlay() *OverlayedChanges {
	return e.overlay
}
