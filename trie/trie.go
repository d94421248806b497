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

// Package trie implements a Merkle-Patricia trie whose nodes are stored
// as RLP-encoded blobs in a triedb.Database, addressed by their Keccak256
// hash.
package trie

import (
	"errors"
	"fmt"

	"github.com/basechain/worldstate/triedb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// EmptyRootHash is the root of the empty trie: the Keccak256 hash of the RLP
// encoding of the empty byte string.
var EmptyRootHash = crypto.Keccak256Hash(rlp.EmptyString)

// ErrInvalidTrie is returned (wrapped) by any trie operation that reaches a
// node the object store cannot resolve; IsGood reports such a failure as
// false.
var ErrInvalidTrie = errors.New("trie: invalid or corrupted structure")

// Verification selects whether Open re-derives and checks the root hash of
// an opened trie, or trusts the caller's root verbatim.
type Verification int

const (
	Full Verification = iota
	Skip
)

// Trie is a Merkle-Patricia trie over raw (already-hashed, for SecureTrie)
// keys. It is not safe for concurrent use.
type Trie struct {
	db   *triedb.Database
	root node // nil for the empty trie, otherwise a resolved or hashNode root
}

// New constructs a Trie rooted at root. An all-zero or EmptyRootHash root
// opens the empty trie. New takes no verification argument and always trusts
// the caller (equivalent to Open with Skip).
func New(root common.Hash, db *triedb.Database) (*Trie, error) {
	t := &Trie{db: db}
	t.setRoot(root)
	return t, nil
}

// Open rebinds db at root, optionally verifying the root is actually
// resolvable (Full) or trusting it outright (Skip).
func Open(db *triedb.Database, root common.Hash, verification Verification) (*Trie, error) {
	t := &Trie{db: db}
	t.setRoot(root)
	if verification == Full && root != (common.Hash{}) && root != EmptyRootHash {
		if _, _, err := t.resolveHash(common.BytesToHash(t.root.(hashNode)), nil); err != nil {
			return nil, fmt.Errorf("trie: cannot verify root %x: %w", root, err)
		}
	}
	return t, nil
}

func (t *Trie) setRoot(root common.Hash) {
	if root == (common.Hash{}) || root == EmptyRootHash {
		t.root = nil
		return
	}
	t.root = hashNode(root.Bytes())
}

// Init resets the trie to empty, ensuring the empty-root node exists
// conceptually (the empty trie requires no stored node: its root is the
// well-known hash of the RLP empty string).
func (t *Trie) Init() {
	t.root = nil
}

// SetRoot rebinds the trie to a different root without touching the
// underlying object store.
func (t *Trie) SetRoot(root common.Hash) {
	t.setRoot(root)
}

// Root returns the hash of the current root; EmptyRootHash for the empty
// trie.
func (t *Trie) Root() common.Hash {
	if t.root == nil {
		return EmptyRootHash
	}
	if h, ok := t.root.(hashNode); ok {
		return common.BytesToHash(h)
	}
	// Root was mutated in-memory without being re-hashed; this should not
	// happen since every mutator in this package re-hashes eagerly.
	panic("trie: root not hashed")
}

// At returns the value stored at key, or empty bytes if absent.
func (t *Trie) At(key []byte) ([]byte, error) {
	return t.get(t.root, keybytesToHex(key), 0)
}

// get reads through the trie without mutating t.root: hashNode children are
// resolved transiently for the duration of the lookup only.
func (t *Trie) get(n node, key []byte, pos int) (value []byte, err error) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case valueNode:
		return n, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !bytesEqual(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, nil
		}
		return t.get(n.Val, key, pos+len(n.Key))
	case *fullNode:
		return t.get(n.Children[key[pos]], key, pos+1)
	case hashNode:
		child, _, err := t.resolveHash(common.BytesToHash(n), nil)
		if err != nil {
			return nil, err
		}
		return t.get(child, key, pos)
	default:
		panic(fmt.Sprintf("trie: %T invalid node", n))
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (t *Trie) resolveHash(hash common.Hash, prefix []byte) (node, common.Hash, error) {
	blob, ok, err := t.db.Lookup(hash)
	if err != nil {
		return nil, hash, err
	}
	if !ok {
		return nil, hash, fmt.Errorf("%w: missing node %x", ErrInvalidTrie, hash)
	}
	return mustDecodeNode(hash.Bytes(), blob), hash, nil
}

// Insert writes value at key, re-hashing and storing every node on the path
// from the new leaf to the root, and killing the overlay entries of any
// hashNode resolved along the way (its content is about to be superseded).
func (t *Trie) Insert(key, value []byte) error {
	if len(value) == 0 {
		return t.Remove(key)
	}
	k := keybytesToHex(key)
	root, err := t.insert(t.root, k, valueNode(value))
	if err != nil {
		return err
	}
	t.root = t.hashAndStore(root)
	return nil
}

func (t *Trie) insert(n node, key []byte, value node) (node, error) {
	if len(key) == 0 {
		return value, nil
	}
	switch n := n.(type) {
	case nil:
		return &shortNode{Key: key, Val: value}, nil
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen == len(n.Key) {
			newVal, err := t.insert(n.Val, key[matchlen:], value)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: n.Key, Val: t.hashAndStore(newVal)}, nil
		}
		branch := &fullNode{}
		var err error
		branch.Children[n.Key[matchlen]], err = t.insert(nil, n.Key[matchlen+1:], n.Val)
		if err != nil {
			return nil, err
		}
		branch.Children[key[matchlen]], err = t.insert(nil, key[matchlen+1:], value)
		if err != nil {
			return nil, err
		}
		branch.Children[n.Key[matchlen]] = t.hashAndStore(branch.Children[n.Key[matchlen]])
		branch.Children[key[matchlen]] = t.hashAndStore(branch.Children[key[matchlen]])
		if matchlen == 0 {
			return branch, nil
		}
		return &shortNode{Key: key[:matchlen], Val: t.hashAndStore(branch)}, nil
	case *fullNode:
		cpy := n.copy()
		child, err := t.insert(cpy.Children[key[0]], key[1:], value)
		if err != nil {
			return nil, err
		}
		cpy.Children[key[0]] = t.hashAndStore(child)
		return cpy, nil
	case hashNode:
		resolved, hash, err := t.resolveHash(common.BytesToHash(n), nil)
		if err != nil {
			return nil, err
		}
		t.db.Kill(hash)
		return t.insert(resolved, key, value)
	default:
		panic(fmt.Sprintf("trie: %T invalid node", n))
	}
}

// hashAndStore hashes n (unless it's already a hashNode, or nil, or a raw
// valueNode which is stored inline by its parent) and inserts its RLP blob
// into the object store, returning the hashNode that should replace it in
// the parent.
func (t *Trie) hashAndStore(n node) node {
	switch n.(type) {
	case nil, hashNode, valueNode:
		return n
	}
	blob, err := rlp.EncodeToBytes(nodeToRLP(n))
	if err != nil {
		panic(err)
	}
	hash := crypto.Keccak256Hash(blob)
	t.db.Insert(hash, blob)
	return hashNode(hash.Bytes())
}

// Remove deletes key from the trie. It is a no-op if key is absent.
func (t *Trie) Remove(key []byte) error {
	k := keybytesToHex(key)
	root, _, err := t.delete(t.root, k)
	if err != nil {
		return err
	}
	if root == nil {
		t.root = nil
		return nil
	}
	t.root = t.hashAndStore(root)
	return nil
}

func (t *Trie) delete(n node, key []byte) (node, bool, error) {
	switch n := n.(type) {
	case nil:
		return nil, false, nil
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return n, false, nil // don't replace n, key not found
		}
		if matchlen == len(key) {
			return nil, true, nil // remove the whole shortNode
		}
		child, ok, err := t.delete(n.Val, key[len(n.Key):])
		if err != nil || !ok {
			return n, ok, err
		}
		switch child := child.(type) {
		case nil:
			return nil, true, nil
		case *shortNode:
			// merge extension/leaf with child shortNode
			return &shortNode{Key: concatKeys(n.Key, child.Key), Val: child.Val}, true, nil
		default:
			return &shortNode{Key: n.Key, Val: t.hashAndStore(child)}, true, nil
		}
	case *fullNode:
		cpy := n.copy()
		child, ok, err := t.delete(cpy.Children[key[0]], key[1:])
		if err != nil || !ok {
			return n, ok, err
		}
		cpy.Children[key[0]] = t.hashAndStore(child)
		// Count remaining children; collapse to a shortNode if only one
		// child (or the value slot) remains, matching classic MPT collapse
		// rules.
		pos := -1
		count := 0
		for i, c := range cpy.Children {
			if c != nil {
				count++
				pos = i
			}
		}
		if count == 1 && pos != 16 {
			resolved, err := t.resolveForCollapse(cpy.Children[pos])
			if err != nil {
				return nil, false, err
			}
			switch resolved := resolved.(type) {
			case *shortNode:
				// The child's key and value move into the merged node, so
				// its own stored entry is no longer referenced.
				if h, ok := cpy.Children[pos].(hashNode); ok {
					t.db.Kill(common.BytesToHash(h))
				}
				return &shortNode{Key: concatKeys([]byte{byte(pos)}, resolved.Key), Val: resolved.Val}, true, nil
			default:
				return &shortNode{Key: []byte{byte(pos)}, Val: cpy.Children[pos]}, true, nil
			}
		}
		if count == 1 && pos == 16 {
			return &shortNode{Key: []byte{16}, Val: cpy.Children[16]}, true, nil
		}
		return cpy, true, nil
	case hashNode:
		resolved, hash, err := t.resolveHash(common.BytesToHash(n), nil)
		if err != nil {
			return nil, false, err
		}
		nn, ok, err := t.delete(resolved, key)
		if err != nil || !ok {
			// key not found below: the stored node stays referenced as is.
			return n, ok, err
		}
		t.db.Kill(hash)
		return nn, true, nil
	default:
		panic(fmt.Sprintf("trie: %T invalid node", n))
	}
}

// resolveForCollapse peeks at a child node to decide the shape of a collapse
// (fullNode -> shortNode with a single remaining child). It does not kill the
// resolved hash: when the remaining child is a branch, the new shortNode
// references the same stored entry. When the child is itself a shortNode and
// is merged into the parent, delete kills its entry.
func (t *Trie) resolveForCollapse(n node) (node, error) {
	if h, ok := n.(hashNode); ok {
		resolved, _, err := t.resolveHash(common.BytesToHash(h), nil)
		if err != nil {
			return nil, err
		}
		return resolved, nil
	}
	return n, nil
}

func concatKeys(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out
}

// LeftOvers returns the hashes present in the overlay object store that are
// not reachable from the current root. Entries already killed down to a zero
// reference count are pending removal at the next CommitFlush and are not
// reported.
func (t *Trie) LeftOvers() ([]common.Hash, error) {
	reachable := make(map[common.Hash]struct{})
	if err := t.markReachable(t.root, reachable); err != nil {
		return nil, err
	}
	var leftovers []common.Hash
	for _, h := range t.db.Keys() {
		if refs, ok := t.db.Refs(h); ok && refs <= 0 {
			continue
		}
		if _, ok := reachable[h]; !ok {
			leftovers = append(leftovers, h)
		}
	}
	return leftovers, nil
}

func (t *Trie) markReachable(n node, seen map[common.Hash]struct{}) error {
	switch n := n.(type) {
	case nil, valueNode:
		return nil
	case hashNode:
		hash := common.BytesToHash(n)
		if _, ok := seen[hash]; ok {
			return nil
		}
		seen[hash] = struct{}{}
		resolved, _, err := t.resolveHash(hash, nil)
		if err != nil {
			return err
		}
		return t.markReachable(resolved, seen)
	case *shortNode:
		return t.markReachable(n.Val, seen)
	case *fullNode:
		for _, c := range n.Children {
			if err := t.markReachable(c, seen); err != nil {
				return err
			}
		}
		return nil
	default:
		panic(fmt.Sprintf("trie: %T invalid node", n))
	}
}
