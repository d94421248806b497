// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package trie

import (
	"sync"

	"github.com/basechain/worldstate/triedb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SecureTrie hashes every external key with Keccak256 before delegating to
// the underlying Trie, so that adjacent keys are scattered across the trie's
// structure rather than sharing long common prefixes. It keeps a preimage
// store so callers can recover the original key during iteration, mirroring
// go-ethereum's own SecureTrie/preimage-store design.
type SecureTrie struct {
	trie *Trie

	mu        sync.RWMutex
	preimages map[common.Hash][]byte
}

// NewSecure wraps a Trie rooted at root with hashed-key semantics. preimages,
// if non-nil, seeds the preimage store (typically loaded from persistent
// storage alongside the trie itself); it is not required for correctness of
// At/Insert/Remove, only for recovering raw_key during iteration.
func NewSecure(root common.Hash, db *triedb.Database, preimages map[common.Hash][]byte) (*SecureTrie, error) {
	t, err := New(root, db)
	if err != nil {
		return nil, err
	}
	if preimages == nil {
		preimages = make(map[common.Hash][]byte)
	}
	return &SecureTrie{trie: t, preimages: preimages}, nil
}

// OpenSecure is the Full/Skip-verifying counterpart to NewSecure.
func OpenSecure(db *triedb.Database, root common.Hash, verification Verification, preimages map[common.Hash][]byte) (*SecureTrie, error) {
	t, err := Open(db, root, verification)
	if err != nil {
		return nil, err
	}
	if preimages == nil {
		preimages = make(map[common.Hash][]byte)
	}
	return &SecureTrie{trie: t, preimages: preimages}, nil
}

func (s *SecureTrie) hashKey(key []byte) common.Hash {
	return crypto.Keccak256Hash(key)
}

// At looks up rawKey by hashing it first.
func (s *SecureTrie) At(rawKey []byte) ([]byte, error) {
	return s.trie.At(s.hashKey(rawKey).Bytes())
}

// Insert writes value under the Keccak256 hash of rawKey, remembering rawKey
// as the hash's preimage.
func (s *SecureTrie) Insert(rawKey, value []byte) error {
	hash := s.hashKey(rawKey)
	if err := s.trie.Insert(hash.Bytes(), value); err != nil {
		return err
	}
	s.mu.Lock()
	s.preimages[hash] = append([]byte{}, rawKey...)
	s.mu.Unlock()
	return nil
}

// Remove deletes rawKey's entry. It leaves the preimage in place: a deleted
// key may still appear as a leftover reference during diagnostics, and a
// stale preimage is harmless since it is only consulted for keys that still
// resolve to a value.
func (s *SecureTrie) Remove(rawKey []byte) error {
	return s.trie.Remove(s.hashKey(rawKey).Bytes())
}

// Root returns the underlying trie's root hash.
func (s *SecureTrie) Root() common.Hash {
	return s.trie.Root()
}

// SetRoot rebinds the underlying trie to root.
func (s *SecureTrie) SetRoot(root common.Hash) {
	s.trie.SetRoot(root)
}

// Preimage returns the raw key that hashes to hash, if known.
func (s *SecureTrie) Preimage(hash common.Hash) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.preimages[hash]
	return v, ok
}

// Preimages returns a copy of the full preimage map, for persistence.
func (s *SecureTrie) Preimages() map[common.Hash][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[common.Hash][]byte, len(s.preimages))
	for k, v := range s.preimages {
		out[k] = v
	}
	return out
}

// Iterate walks the underlying trie, translating each hashed key back to its
// raw_key via the preimage store. Entries whose preimage is unknown (the
// preimage store was not seeded and this process never wrote that key) are
// skipped; iteration is therefore best-effort, not exhaustive.
func (s *SecureTrie) Iterate(visit func(Entry) error) error {
	return s.trie.Iterate(func(e Entry) error {
		hash := common.BytesToHash(e.Key)
		raw, ok := s.Preimage(hash)
		if !ok {
			return nil
		}
		return visit(Entry{Key: raw, Value: e.Value})
	})
}

// IsGood delegates to the underlying trie's consistency check.
func (s *SecureTrie) IsGood(enforceRefs, requireNoLeftovers bool) bool {
	return s.trie.IsGood(enforceRefs, requireNoLeftovers)
}

// LeftOvers delegates to the underlying trie.
func (s *SecureTrie) LeftOvers() ([]common.Hash, error) {
	return s.trie.LeftOvers()
}

// Underlying exposes the raw (hashed-key) Trie for callers that need it, for
// example to hand to state consistency tooling that operates on hashes.
func (s *SecureTrie) Underlying() *Trie {
	return s.trie
}
