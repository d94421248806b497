package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpCacheOnlyAccountHasPlusPrefix(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.AddBalance(addrN(1), *u256(5)))

	var buf strings.Builder
	require.NoError(t, s.Dump(&buf))
	assert.Contains(t, buf.String(), "+ ")
}

func TestDumpUnchangedAccountHasDotPrefix(t *testing.T) {
	s := newTestState(t)
	addr := addrN(1)
	require.NoError(t, s.AddBalance(addr, *u256(5)))
	require.NoError(t, s.Commit(KeepEmptyAccounts))

	// re-read through account() so it is reinstalled into the cache as
	// Unchanged, matching what the persisted trie row already holds.
	_, err := s.account(addr, false)
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, s.Dump(&buf))
	assert.Contains(t, buf.String(), ". ")
}

func TestDumpKilledAccountHasXXXPrefix(t *testing.T) {
	s := newTestState(t)
	addr := addrN(1)
	require.NoError(t, s.AddBalance(addr, *u256(5)))
	require.NoError(t, s.Commit(KeepEmptyAccounts))
	require.NoError(t, s.Kill(addr))

	var buf strings.Builder
	require.NoError(t, s.Dump(&buf))
	assert.Contains(t, buf.String(), "XXX")
}

func TestDumpModifiedAccountHasStarPrefix(t *testing.T) {
	s := newTestState(t)
	addr := addrN(1)
	require.NoError(t, s.AddBalance(addr, *u256(5)))
	require.NoError(t, s.Commit(KeepEmptyAccounts))
	require.NoError(t, s.AddBalance(addr, *u256(1)))

	var buf strings.Builder
	require.NoError(t, s.Dump(&buf))
	assert.Contains(t, buf.String(), "* ")
}
