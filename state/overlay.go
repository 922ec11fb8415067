package state

import (
	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/statecall/util/lines"
)

// OverlayedChanges is a two-tier journal of pending writes in front of the backend.
// Value nil in any tier is a tombstone (deleted), empty non-nil value is a legitimate value.
// Prospective tier holds writes of the current call, committed tier holds writes already accepted
// into the transaction which is still in flight. Prospective overrides committed overrides backend.
// Not thread-safe: owned exclusively by one call or one block import
type OverlayedChanges struct {
	committed   map[string][]byte
	prospective map[string][]byte
}

func NewOverlayedChanges() *OverlayedChanges {
	return &OverlayedChanges{
		committed:   make(map[string][]byte),
		prospective: make(map[string][]byte),
	}
}

// Storage returns known == false if the overlay has no opinion about the key.
// If known, value == nil means the key is deleted
func (o *OverlayedChanges) Storage(key []byte) (value []byte, known bool) {
	if value, known = o.prospective[string(key)]; known {
		return util.CloneBytes(value), true
	}
	if value, known = o.committed[string(key)]; known {
		return util.CloneBytes(value), true
	}
	return nil, false
}

// SetStorage writes into the prospective tier. Nil value records deletion
func (o *OverlayedChanges) SetStorage(key, value []byte) {
	o.prospective[string(key)] = util.CloneBytes(value)
}

// CommitProspective promotes prospective writes into the committed tier
func (o *OverlayedChanges) CommitProspective() {
	for k, v := range o.prospective {
		o.committed[k] = v
	}
	o.prospective = make(map[string][]byte)
}

func (o *OverlayedChanges) DiscardProspective() {
	o.prospective = make(map[string][]byte)
}

func (o *OverlayedChanges) IsEmpty() bool {
	return len(o.committed) == 0 && len(o.prospective) == 0
}

func (o *OverlayedChanges) ProspectiveLen() int {
	return len(o.prospective)
}

func (o *OverlayedChanges) CommittedLen() int {
	return len(o.committed)
}

// Prospective returns copy of the prospective tier
func (o *OverlayedChanges) Prospective() map[string][]byte {
	return cloneTier(o.prospective)
}

// Committed returns copy of the committed tier
func (o *OverlayedChanges) Committed() map[string][]byte {
	return cloneTier(o.committed)
}

// merged returns committed tier overwritten by prospective
func (o *OverlayedChanges) merged() map[string][]byte {
	ret := cloneTier(o.committed)
	for k, v := range o.prospective {
		ret[k] = v
	}
	return ret
}

// Changes returns all pending writes of both tiers sorted by key. Prospective wins
func (o *OverlayedChanges) Changes() []Change {
	m := o.merged()
	ret := make([]Change, 0, len(m))
	for _, k := range util.SortedKeys(m) {
		ret = append(ret, Change{Key: []byte(k), Value: m[k]})
	}
	return ret
}

func (o *OverlayedChanges) Clone() *OverlayedChanges {
	return &OverlayedChanges{
		committed:   cloneTier(o.committed),
		prospective: cloneTier(o.prospective),
	}
}

func (o *OverlayedChanges) Lines(prefix ...string) *lines.Lines {
	ret := lines.New(prefix...)
	linesOfTier := func(name string, m map[string][]byte) {
		for _, k := range util.SortedKeys(m) {
			if v := m[k]; v == nil {
				ret.Add("%s %s: <deleted>", name, util.Fmt([]byte(k)))
			} else {
				ret.Add("%s %s: %s", name, util.Fmt([]byte(k)), util.Fmt(v))
			}
		}
	}
	linesOfTier("committed  ", o.committed)
	linesOfTier("prospective", o.prospective)
	return ret
}

func (o *OverlayedChanges) String() string {
	return o.Lines().String()
}

func cloneTier(m map[string][]byte) map[string][]byte {
	ret := make(map[string][]byte, len(m))
	for k, v := range m {
		ret[k] = util.CloneBytes(v)
	}
	return ret
}
