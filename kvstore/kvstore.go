// Package kvstore opens the key/value database the state trie and the chain index are stored in
package kvstore

import (
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/unitrie/adaptors/badger_adaptor"
	"github.com/lunfardo314/unitrie/common"
)

// DB is the state store with direct writes. An empty value deletes the key
type DB interface {
	global.StateStore
	common.KVWriter
	io.Closer
}

type writableStore interface {
	global.StateStore
	common.KVWriter
}

type inMemory struct {
	writableStore
}

// Open opens or creates database of the given type in the directory
func Open(dbType, dir string) (DB, error) {
	switch dbType {
	case global.DBTypeBadger, "":
		return OpenBadger(dir)
	case global.DBTypeLevelDB:
		return OpenLevelDB(dir)
	}
	return nil, fmt.Errorf("unknown database type '%s'", dbType)
}

func OpenBadger(dir string) (DB, error) {
	var ret *badger_adaptor.DB
	err := util.CatchPanicOrError(func() error {
		bdb := badger_adaptor.MustCreateOrOpenBadgerDB(dir, badger.DefaultOptions(dir).WithLogger(nil))
		ret = badger_adaptor.New(bdb)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("can't open badger database '%s': %w", dir, err)
	}
	return ret, nil
}

// NewInMemory is a DB for testing. Closing does nothing
func NewInMemory() DB {
	return inMemory{common.NewInMemoryKVStore()}
}

func (inMemory) Close() error {
	return nil
}
