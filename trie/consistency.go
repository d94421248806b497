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
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
)

// IsGood runs a full structural consistency check over the trie. It
// always walks the full trie and fails if any referenced node cannot be
// resolved (ErrInvalidTrie). When enforceRefs is set it additionally counts
// how many times each hash is referenced while walking and rejects a trie
// whose overlay refcount for a still-referenced node has already dropped to
// zero (a node was killed while still reachable). When requireNoLeftovers is
// set it also fails if LeftOvers finds unreachable overlay entries.
func (t *Trie) IsGood(enforceRefs, requireNoLeftovers bool) bool {
	refs := make(map[common.Hash]int)
	if err := t.walk(t.root, nil, func(Entry) error { return nil }); err != nil {
		return false
	}
	if err := t.countReferences(t.root, refs); err != nil {
		return false
	}
	if enforceRefs {
		for hash := range refs {
			if stored, ok := t.db.Refs(hash); ok && stored <= 0 {
				return false
			}
		}
	}
	if requireNoLeftovers {
		lo, err := t.LeftOvers()
		if err != nil || len(lo) > 0 {
			return false
		}
	}
	return true
}

// countReferences walks the trie tallying how many times each stored node
// hash is reached, mirroring the shape of markReachable.
func (t *Trie) countReferences(n node, refs map[common.Hash]int) error {
	switch n := n.(type) {
	case nil, valueNode:
		return nil
	case hashNode:
		hash := common.BytesToHash(n)
		refs[hash]++
		if refs[hash] > 1 {
			return nil
		}
		resolved, _, err := t.resolveHash(hash, nil)
		if err != nil {
			return err
		}
		return t.countReferences(resolved, refs)
	case *shortNode:
		return t.countReferences(n.Val, refs)
	case *fullNode:
		for _, c := range n.Children {
			if err := t.countReferences(c, refs); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// DebugStructure emits a structural dump of the trie for diagnostics.
func (t *Trie) DebugStructure(w io.Writer) {
	t.debugStructure(w, t.root, "")
}

func (t *Trie) debugStructure(w io.Writer, n node, indent string) {
	switch n := n.(type) {
	case nil:
		fmt.Fprintf(w, "%s<empty>\n", indent)
	case valueNode:
		fmt.Fprintf(w, "%svalue(%x)\n", indent, []byte(n))
	case *shortNode:
		fmt.Fprintf(w, "%sshort(key=%x)\n", indent, n.Key)
		t.debugStructure(w, n.Val, indent+"  ")
	case *fullNode:
		fmt.Fprintf(w, "%sfull\n", indent)
		for i, c := range n.Children {
			if c == nil {
				continue
			}
			fmt.Fprintf(w, "%s [%x]:\n", indent, i)
			t.debugStructure(w, c, indent+"  ")
		}
	case hashNode:
		resolved, _, err := t.resolveHash(common.BytesToHash(n), nil)
		if err != nil {
			fmt.Fprintf(w, "%shash(%x) <unresolvable: %v>\n", indent, []byte(n), err)
			return
		}
		fmt.Fprintf(w, "%shash(%x)\n", indent, []byte(n))
		t.debugStructure(w, resolved, indent+"  ")
	}
}
