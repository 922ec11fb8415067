package kvstore

import (
	"fmt"

	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/unitrie/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	lvlutil "github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB adapts goleveldb database to the interfaces of the trie store.
// As everywhere in the trie store, setting empty value deletes the key.
// Read failures panic with common.ErrDBUnavailable in the chain
type LevelDB struct {
	db *leveldb.DB
}

type levelDBBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

type levelDBIterator struct {
	db     *leveldb.DB
	prefix []byte
}

var _ DB = &LevelDB{}

func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("can't open leveldb database '%s': %w", dir, err)
	}
	return &LevelDB{db: db}, nil
}

// NewLevelDBInMemory opens leveldb over memory storage. For testing
func NewLevelDBInMemory() *LevelDB {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	util.AssertNoError(err)
	return &LevelDB{db: db}
}

func (l *LevelDB) Get(key []byte) []byte {
	ret, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil
	}
	if err != nil {
		panic(fmt.Errorf("%w: %v", common.ErrDBUnavailable, err))
	}
	return ret
}

func (l *LevelDB) Has(key []byte) bool {
	ret, err := l.db.Has(key, nil)
	if err != nil {
		panic(fmt.Errorf("%w: %v", common.ErrDBUnavailable, err))
	}
	return ret
}

func (l *LevelDB) Set(key, value []byte) {
	var err error
	if len(value) == 0 {
		err = l.db.Delete(key, nil)
	} else {
		err = l.db.Put(key, value, nil)
	}
	if err != nil {
		panic(fmt.Errorf("%w: %v", common.ErrDBUnavailable, err))
	}
}

func (l *LevelDB) BatchedWriter() common.KVBatchedWriter {
	return &levelDBBatch{db: l.db, batch: new(leveldb.Batch)}
}

func (l *LevelDB) Iterator(prefix []byte) common.KVIterator {
	return &levelDBIterator{db: l.db, prefix: prefix}
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

func (b *levelDBBatch) Set(key, value []byte) {
	if len(value) == 0 {
		b.batch.Delete(key)
	} else {
		b.batch.Put(key, value)
	}
}

func (b *levelDBBatch) Commit() error {
	return b.db.Write(b.batch, nil)
}

func (it *levelDBIterator) Iterate(fun func(k, v []byte) bool) {
	iter := it.db.NewIterator(lvlutil.BytesPrefix(it.prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if !fun(util.CloneBytes(iter.Key()), util.CloneBytes(iter.Value())) {
			break
		}
	}
	if err := iter.Error(); err != nil {
		panic(fmt.Errorf("%w: %v", common.ErrDBUnavailable, err))
	}
}

func (it *levelDBIterator) IterateKeys(fun func(k []byte) bool) {
	it.Iterate(func(k, _ []byte) bool {
		return fun(k)
	})
}
