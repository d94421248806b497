package trie

import (
	"testing"

	"github.com/basechain/worldstate/triedb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSecureTrie(t *testing.T) (*SecureTrie, *triedb.Database) {
	t.Helper()
	db := triedb.NewDatabase(triedb.NewMemoryBackend())
	st, err := NewSecure(common.Hash{}, db, nil)
	require.NoError(t, err)
	return st, db
}

func TestSecureTrieAtInsertRemove(t *testing.T) {
	st, _ := newTestSecureTrie(t)

	require.NoError(t, st.Insert([]byte("address-1"), []byte("account-1")))
	v, err := st.At([]byte("address-1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("account-1"), v)

	require.NoError(t, st.Remove([]byte("address-1")))
	v, err = st.At([]byte("address-1"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSecureTriePreimageRecovery(t *testing.T) {
	st, _ := newTestSecureTrie(t)
	require.NoError(t, st.Insert([]byte("raw-key"), []byte("value")))

	hash := st.hashKey([]byte("raw-key"))
	raw, ok := st.Preimage(hash)
	require.True(t, ok)
	assert.Equal(t, []byte("raw-key"), raw)

	_, ok = st.Preimage(common.BytesToHash([]byte("never inserted")))
	assert.False(t, ok)
}

func TestSecureTrieIterateSkipsUnknownPreimages(t *testing.T) {
	st, db := newTestSecureTrie(t)
	require.NoError(t, st.Insert([]byte("known"), []byte("v1")))

	// simulate a slot written by another process that never shared its
	// preimage: insert directly through the underlying hashed-key trie.
	require.NoError(t, st.Underlying().Insert(st.hashKey([]byte("unknown")).Bytes(), []byte("v2")))
	_ = db

	var got []Entry
	require.NoError(t, st.Iterate(func(e Entry) error {
		got = append(got, e)
		return nil
	}))
	require.Len(t, got, 1)
	assert.Equal(t, []byte("known"), got[0].Key)
}

// TestSecureTrieManyKeysWithNibbleCollisions inserts enough hashed keys that
// by the pigeonhole principle at least two must share a leading nibble,
// forcing both the branch-split and extension-over-branch paths of the
// underlying trie's insert. Every key must still read back correctly.
func TestSecureTrieManyKeysWithNibbleCollisions(t *testing.T) {
	st, _ := newTestSecureTrie(t)

	const n = 64
	want := make(map[string]string, n)
	for i := 0; i < n; i++ {
		key := []byte{byte(i), byte(i >> 8)}
		val := []byte{byte(i + 1)}
		require.NoError(t, st.Insert(key, val))
		want[string(key)] = string(val)
	}

	for k, v := range want {
		got, err := st.At([]byte(k))
		require.NoError(t, err)
		assert.Equal(t, v, string(got))
	}
}

func TestSecureTrieCopyPreimagesIsIndependent(t *testing.T) {
	st, _ := newTestSecureTrie(t)
	require.NoError(t, st.Insert([]byte("k"), []byte("v")))

	copied := st.Preimages()
	require.Len(t, copied, 1)
	for h := range copied {
		copied[h] = []byte("mutated")
	}
	hash := st.hashKey([]byte("k"))
	raw, ok := st.Preimage(hash)
	require.True(t, ok)
	assert.Equal(t, []byte("k"), raw, "Preimages() must return a copy, not a live view")
}
