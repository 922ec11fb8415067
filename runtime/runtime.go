// Package runtime is the reference code executor: a registry of named methods, each a Go function
// over the externalities. Built-in methods give access to the storage
package runtime

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/lunfardo314/statecall/state"
	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/statecall/util/lines"
)

type MethodFunc func(ext state.Externalities, input []byte) ([]byte, error)

type Dispatcher struct {
	methods map[string]MethodFunc
}

const (
	MethodStorageGet    = "storage_get"
	MethodStorageSet    = "storage_set"
	MethodStorageDelete = "storage_delete"
	MethodStorageRoot   = "storage_root"
	MethodChainID       = "chain_id"
)

var (
	ErrUnknownMethod = errors.New("unknown method")
	ErrKeyNotFound   = errors.New("key not found")
	ErrWrongInput    = errors.New("wrong input")
)

var _ state.CodeExecutor = &Dispatcher{}

func New() *Dispatcher {
	return &Dispatcher{methods: make(map[string]MethodFunc)}
}

// NewWithBuiltins returns dispatcher with storage access methods
func NewWithBuiltins() *Dispatcher {
	return New().
		Register(MethodStorageGet, storageGet).
		Register(MethodStorageSet, storageSet).
		Register(MethodStorageDelete, storageDelete).
		Register(MethodStorageRoot, storageRoot).
		Register(MethodChainID, chainID)
}

// Register adds the method. Registering existing name replaces the method
func (d *Dispatcher) Register(name string, fun MethodFunc) *Dispatcher {
	util.Assertf(fun != nil, "Register: nil method '%s'", name)
	d.methods[name] = fun
	return d
}

func (d *Dispatcher) Methods() []string {
	return util.SortedKeys(d.methods)
}

func (d *Dispatcher) Run(ext state.Externalities, method string, input []byte) ([]byte, error) {
	fun, found := d.methods[method]
	if !found {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownMethod, method)
	}
	return fun(ext, input)
}

func (d *Dispatcher) Lines(prefix ...string) *lines.Lines {
	ret := lines.New(prefix...)
	for _, m := range d.Methods() {
		ret.Add("%s", m)
	}
	return ret
}

// EncodeSetInput encodes key and value as the input of storage_set
func EncodeSetInput(key, value []byte) []byte {
	ret, err := rlp.EncodeToBytes([][]byte{key, value})
	util.AssertNoError(err)
	return ret
}

func storageGet(ext state.Externalities, key []byte) ([]byte, error) {
	value, found := ext.Storage(key)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, util.Fmt(key))
	}
	return value, nil
}

func storageSet(ext state.Externalities, input []byte) ([]byte, error) {
	var kv [][]byte
	if err := rlp.DecodeBytes(input, &kv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongInput, err)
	}
	if len(kv) != 2 {
		return nil, fmt.Errorf("%w: expected key and value", ErrWrongInput)
	}
	value := kv[1]
	if value == nil {
		value = []byte{}
	}
	ext.PlaceStorage(kv[0], value)
	return nil, nil
}

func storageDelete(ext state.Externalities, key []byte) ([]byte, error) {
	ext.PlaceStorage(key, nil)
	return nil, nil
}

func storageRoot(ext state.Externalities, _ []byte) ([]byte, error) {
	return ext.StorageRoot().Bytes(), nil
}

func chainID(ext state.Externalities, _ []byte) ([]byte, error) {
	var ret [8]byte
	binary.BigEndian.PutUint64(ret[:], ext.ChainID())
	return ret[:], nil
}
