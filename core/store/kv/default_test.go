package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoltDB_New(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = New(filepath.Join(t.TempDir(), "missing", "test.db"))
	require.Error(t, err)
}

func TestBoltDB_View(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.View([]byte("bucket"), func(Bucket) error {
		return nil
	})
	require.EqualError(t, err, "bucket '6275636b6574' not found")

	err = db.Update([]byte("bucket"), func(b Bucket) error {
		return b.Set([]byte("key"), []byte("value"))
	})
	require.NoError(t, err)

	err = db.View([]byte("bucket"), func(b Bucket) error {
		require.Equal(t, []byte("value"), b.Get([]byte("key")))
		require.Nil(t, b.Get([]byte("missing")))

		return nil
	})
	require.NoError(t, err)
}

func TestBoltDB_Update(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update([]byte("bucket"), func(b Bucket) error {
		require.NoError(t, b.Set([]byte("a"), []byte{1}))
		require.NoError(t, b.Set([]byte("b"), []byte{2}))

		return nil
	})
	require.NoError(t, err)

	err = db.Update([]byte("bucket"), func(b Bucket) error {
		return b.Delete([]byte("a"))
	})
	require.NoError(t, err)

	count := 0

	err = db.View([]byte("bucket"), func(b Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			count++
			return nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
