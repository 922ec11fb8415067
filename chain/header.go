// Package chain keeps block headers with their state roots, resolves block identities
// and provides the state snapshot of a block. It also implements the block import operation
package chain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/lunfardo314/statecall/commitment"
	"github.com/lunfardo314/statecall/util/lines"
	"github.com/lunfardo314/unitrie/common"
	"golang.org/x/crypto/blake2b"
)

const HashLength = 32

type (
	Hash [HashLength]byte

	// BlockID identifies the block either by hash or by number
	BlockID struct {
		Hash     Hash
		Number   uint64
		ByNumber bool
	}

	Header struct {
		ParentHash Hash
		Number     uint64
		StateRoot  []byte
		Extra      []byte
	}
)

var (
	ErrUnknownBlock      = errors.New("unknown block")
	ErrStateNotAvailable = errors.New("state is not available on light client")
	ErrStateRootMismatch = errors.New("state root mismatch")
)

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) Short() string {
	return h.String()[:8] + ".."
}

func HashFromBytes(data []byte) (ret Hash, err error) {
	if len(data) != HashLength {
		err = fmt.Errorf("HashFromBytes: wrong data length %d", len(data))
		return
	}
	copy(ret[:], data)
	return
}

func HashFromHexString(s string) (Hash, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Hash{}, err
	}
	return HashFromBytes(data)
}

func ByHash(h Hash) BlockID {
	return BlockID{Hash: h}
}

func ByNumber(n uint64) BlockID {
	return BlockID{Number: n, ByNumber: true}
}

// ParseBlockID parses decimal block number or hex-encoded hash
func ParseBlockID(s string) (BlockID, error) {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return ByNumber(n), nil
	}
	h, err := HashFromHexString(s)
	if err != nil {
		return BlockID{}, fmt.Errorf("wrong block id '%s': must be a number or a 32 bytes long hex-encoded hash", s)
	}
	return ByHash(h), nil
}

func (id BlockID) String() string {
	if id.ByNumber {
		return fmt.Sprintf("#%d", id.Number)
	}
	return id.Hash.String()
}

func (h *Header) Bytes() []byte {
	ret, err := rlp.EncodeToBytes(h)
	common.AssertNoError(err)
	return ret
}

func HeaderFromBytes(data []byte) (*Header, error) {
	ret := &Header{}
	if err := rlp.DecodeBytes(data, ret); err != nil {
		return nil, fmt.Errorf("HeaderFromBytes: %w", err)
	}
	return ret, nil
}

func (h *Header) Hash() Hash {
	return blake2b.Sum256(h.Bytes())
}

func (h *Header) Root() (common.VCommitment, error) {
	return commitment.RootFromBytes(h.StateRoot)
}

func (h *Header) Lines(prefix ...string) *lines.Lines {
	return lines.New(prefix...).
		Add("number: %d", h.Number).
		Add("hash: %s", h.Hash().String()).
		Add("parent: %s", h.ParentHash.String()).
		Add("state root: %s", hex.EncodeToString(h.StateRoot)).
		Add("extra: %s", hex.EncodeToString(h.Extra))
}

func (h *Header) String() string {
	return h.Lines().String()
}
