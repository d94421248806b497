package trie

import (
	"testing"

	"github.com/basechain/worldstate/triedb"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrie(t *testing.T) (*Trie, *triedb.Database) {
	t.Helper()
	db := triedb.NewDatabase(triedb.NewMemoryBackend())
	tr, err := New(EmptyRootHash, db)
	require.NoError(t, err)
	return tr, db
}

func TestTrieEmptyRoot(t *testing.T) {
	tr, _ := newTestTrie(t)
	assert.Equal(t, EmptyRootHash, tr.Root())
	v, err := tr.At([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTrieInsertAtRemove(t *testing.T) {
	tr, _ := newTestTrie(t)

	require.NoError(t, tr.Insert([]byte("alpha"), []byte("1")))
	require.NoError(t, tr.Insert([]byte("alder"), []byte("2")))
	require.NoError(t, tr.Insert([]byte("beta"), []byte("3")))

	v, err := tr.At([]byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	v, err = tr.At([]byte("alder"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	require.NoError(t, tr.Remove([]byte("alpha")))
	v, err = tr.At([]byte("alpha"))
	require.NoError(t, err)
	assert.Nil(t, v)

	// sibling survives the removal
	v, err = tr.At([]byte("alder"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

// TestTrieInsertExtensionNodeThenDeeperBranch drives a third key through an
// already-established extension node (shortNode wrapping a branch), the
// matchlen == len(n.Key) path in insert. A missed hash-and-store of the
// updated branch here embeds it raw in the extension node and panics on
// the next read.
func TestTrieInsertExtensionNodeThenDeeperBranch(t *testing.T) {
	tr, _ := newTestTrie(t)

	require.NoError(t, tr.Insert([]byte("alpha"), []byte("1")))
	require.NoError(t, tr.Insert([]byte("alder"), []byte("2")))
	require.NoError(t, tr.Insert([]byte("album"), []byte("3")))

	for k, want := range map[string]string{"alpha": "1", "alder": "2", "album": "3"} {
		v, err := tr.At([]byte(k))
		require.NoError(t, err)
		assert.Equal(t, want, string(v))
	}
}

func TestTrieInsertEmptyValueRemoves(t *testing.T) {
	tr, _ := newTestTrie(t)
	require.NoError(t, tr.Insert([]byte("key"), []byte("value")))
	require.NoError(t, tr.Insert([]byte("key"), nil))

	v, err := tr.At([]byte("key"))
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, EmptyRootHash, tr.Root())
}

func TestTrieRemovingEverythingReturnsEmptyRoot(t *testing.T) {
	tr, _ := newTestTrie(t)
	require.NoError(t, tr.Insert([]byte("only"), []byte("v")))
	require.NoError(t, tr.Remove([]byte("only")))
	assert.Equal(t, EmptyRootHash, tr.Root())
}

func TestTrieRootDeterministic(t *testing.T) {
	tr1, _ := newTestTrie(t)
	tr2, _ := newTestTrie(t)

	for _, tr := range []*Trie{tr1, tr2} {
		require.NoError(t, tr.Insert([]byte("a"), []byte("1")))
		require.NoError(t, tr.Insert([]byte("b"), []byte("2")))
		require.NoError(t, tr.Insert([]byte("c"), []byte("3")))
	}
	assert.Equal(t, tr1.Root(), tr2.Root())
}

func TestTrieIterateOrdered(t *testing.T) {
	tr, _ := newTestTrie(t)
	entries := map[string]string{
		"zeta":  "3",
		"alpha": "1",
		"mid":   "2",
	}
	for k, v := range entries {
		require.NoError(t, tr.Insert([]byte(k), []byte(v)))
	}

	var got []Entry
	require.NoError(t, tr.Iterate(func(e Entry) error {
		got = append(got, e)
		return nil
	}))
	require.Len(t, got, len(entries))
	for _, e := range got {
		assert.Equal(t, entries[string(e.Key)], string(e.Value))
	}
}

func TestTrieOpenVerifiesRoot(t *testing.T) {
	tr, db := newTestTrie(t)
	require.NoError(t, tr.Insert([]byte("k"), []byte("v")))
	root := tr.Root()

	reopened, err := Open(db, root, Full)
	require.NoError(t, err)
	v, err := reopened.At([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestTrieOpenFullRejectsUnresolvableRoot(t *testing.T) {
	_, db := newTestTrie(t)
	bogus := crypto.Keccak256Hash([]byte("never stored"))
	_, err := Open(db, bogus, Full)
	assert.Error(t, err)
}
