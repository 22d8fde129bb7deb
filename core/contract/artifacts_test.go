package contract

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/prova/core/store/kv"
	"go.dedis.ch/prova/proof"
)

func TestKeyStore_SaveLoad(t *testing.T) {
	db, err := kv.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	store := NewKeyStore(db)

	key := proof.VerificationKey{
		Data: []byte("deadbeef"),
		Hash: proof.NewDigestFromBytes([]byte{1, 2, 3}),
	}

	err = store.Save("counter", key)
	require.NoError(t, err)

	loaded, err := store.Load("counter")
	require.NoError(t, err)
	require.Equal(t, key, loaded)

	// A second save replaces the key.
	key.Data = []byte("cafebabe")
	require.NoError(t, store.Save("counter", key))

	loaded, err = store.Load("counter")
	require.NoError(t, err)
	require.Equal(t, key.Data, loaded.Data)

	_, err = store.Load("unknown")
	require.EqualError(t, err, "couldn't read key: no key for class 'unknown'")
}
