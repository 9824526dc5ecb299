package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigogk87/crowdfunding/internal/config"
)

func exerciseDatabase(t *testing.T, db Database) {
	t.Helper()

	_, err := db.Get([]byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Put([]byte("a"), []byte("1")))
	value, err := db.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)

	ok, err := db.Has([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	batch := NewBatch()
	batch.Put([]byte("b"), []byte("2"))
	batch.Put([]byte("c"), []byte("3"))
	batch.Delete([]byte("a"))
	assert.Equal(t, 3, batch.Len())
	require.NoError(t, db.Write(batch))

	_, err = db.Get([]byte("a"))
	assert.ErrorIs(t, err, ErrNotFound)
	value, err = db.Get([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), value)

	require.NoError(t, db.Delete([]byte("b")))
	ok, err = db.Has([]byte("b"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDB(t *testing.T) {
	db, err := NewMemoryDB()
	require.NoError(t, err)
	defer db.Close()

	exerciseDatabase(t, db)
}

func TestLevelDBPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger")

	db, err := Open(config.StorageConfig{Backend: "leveldb", Path: path})
	require.NoError(t, err)
	exerciseDatabase(t, db)
	require.NoError(t, db.Close())

	db, err = OpenLevelDB(path)
	require.NoError(t, err)
	defer db.Close()
	value, err := db.Get([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), value)
}

func TestBatchCopiesInput(t *testing.T) {
	key := []byte("k")
	value := []byte("v")
	batch := NewBatch()
	batch.Put(key, value)
	value[0] = 'x'

	db, err := NewMemoryDB()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Write(batch))

	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	batch.Reset()
	assert.Equal(t, 0, batch.Len())
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(config.StorageConfig{Backend: "bolt"})
	assert.Error(t, err)
}
