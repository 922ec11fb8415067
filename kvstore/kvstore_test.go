package kvstore

import (
	"testing"

	"github.com/lunfardo314/statecall/commitment"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/state"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, db DB) {
	t.Run("set get delete", func(t *testing.T) {
		db.Set([]byte("k1"), []byte("v1"))
		require.True(t, db.Has([]byte("k1")))
		require.EqualValues(t, "v1", string(db.Get([]byte("k1"))))
		db.Set([]byte("k1"), nil)
		require.False(t, db.Has([]byte("k1")))
		require.Nil(t, db.Get([]byte("k1")))
	})
	t.Run("batch and iterator", func(t *testing.T) {
		batch := db.BatchedWriter()
		batch.Set([]byte("pa"), []byte("1"))
		batch.Set([]byte("pb"), []byte("2"))
		batch.Set([]byte("q"), []byte("3"))
		require.False(t, db.Has([]byte("pa")))
		require.NoError(t, batch.Commit())

		keys := make([]string, 0)
		db.Iterator([]byte("p")).IterateKeys(func(k []byte) bool {
			keys = append(keys, string(k))
			return true
		})
		require.EqualValues(t, []string{"pa", "pb"}, keys)
	})
	t.Run("empty value deletes", func(t *testing.T) {
		db.Set([]byte("e"), []byte("1"))
		db.Set([]byte("e"), []byte{})
		require.False(t, db.Has([]byte("e")))

		batch := db.BatchedWriter()
		batch.Set([]byte("pa"), nil)
		require.NoError(t, batch.Commit())
		require.False(t, db.Has([]byte("pa")))
		require.True(t, db.Has([]byte("pb")))
	})
	t.Run("state on the store", func(t *testing.T) {
		emptyRoot, err := state.InitEmptyState(db)
		require.NoError(t, err)
		upd := state.MustNewUpdatable(db, emptyRoot)
		root, err := upd.Update([]state.Change{{Key: []byte("a"), Value: []byte("1")}})
		require.NoError(t, err)
		require.True(t, commitment.Equal(root, commitment.RootOf(map[string][]byte{"a": []byte("1")})))

		v, found, err := state.MustNewReadable(db, root).Storage([]byte("a"))
		require.NoError(t, err)
		require.True(t, found)
		require.EqualValues(t, "1", string(v))
	})
}

func TestLevelDB(t *testing.T) {
	db := NewLevelDBInMemory()
	defer func() { _ = db.Close() }()
	testStore(t, db)
}

// iterator of the leveldb adaptor returns copies of the buffers owned by the leveldb iterator
func TestLevelDBIteratorCopies(t *testing.T) {
	db := NewLevelDBInMemory()
	defer func() { _ = db.Close() }()

	db.Set([]byte("ca"), []byte("11"))
	db.Set([]byte("cb"), []byte("22"))

	keys := make([][]byte, 0)
	values := make([][]byte, 0)
	db.Iterator([]byte("c")).Iterate(func(k, v []byte) bool {
		keys = append(keys, k)
		values = append(values, v)
		return true
	})
	require.EqualValues(t, [][]byte{[]byte("ca"), []byte("cb")}, keys)
	require.EqualValues(t, [][]byte{[]byte("11"), []byte("22")}, values)

	keys[0][0] = 'x'
	values[0][0] = 'x'
	require.EqualValues(t, "11", string(db.Get([]byte("ca"))))
	require.False(t, db.Has([]byte("xa")))
}

func TestLevelDBOnDisk(t *testing.T) {
	db, err := Open(global.DBTypeLevelDB, t.TempDir())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	testStore(t, db)
}

func TestBadger(t *testing.T) {
	db, err := Open(global.DBTypeBadger, t.TempDir())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	testStore(t, db)
}

func TestInMemory(t *testing.T) {
	testStore(t, NewInMemory())
}

func TestUnknownType(t *testing.T) {
	_, err := Open("sqlite", t.TempDir())
	require.Error(t, err)
}
