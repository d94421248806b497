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

	"github.com/ethereum/go-ethereum/common"
)

// Entry is one (raw_key, value) pair yielded by iteration.
type Entry struct {
	Key   []byte
	Value []byte
}

// Iterate performs an ordered (lexicographic over nibbles) traversal of the
// trie, yielding (raw_key, value) pairs. It stops early, returning the
// visitor's error, if visit returns a non-nil error.
func (t *Trie) Iterate(visit func(Entry) error) error {
	return t.walk(t.root, nil, visit)
}

func (t *Trie) walk(n node, prefix []byte, visit func(Entry) error) error {
	switch n := n.(type) {
	case nil:
		return nil
	case valueNode:
		return visit(Entry{Key: hexToKeybytes(prefix), Value: n})
	case *shortNode:
		return t.walk(n.Val, append(append([]byte{}, prefix...), n.Key...), visit)
	case *fullNode:
		for i, c := range n.Children {
			if c == nil {
				continue
			}
			childPrefix := append(append([]byte{}, prefix...), byte(i))
			if i == 16 {
				// value slot: child is a raw valueNode, prefix already
				// terminates here.
				if v, ok := c.(valueNode); ok {
					key := append(append([]byte{}, prefix...), 16)
					if err := visit(Entry{Key: hexToKeybytes(key), Value: v}); err != nil {
						return err
					}
					continue
				}
			}
			if err := t.walk(c, childPrefix, visit); err != nil {
				return err
			}
		}
		return nil
	case hashNode:
		resolved, _, err := t.resolveHash(common.BytesToHash(n), nil)
		if err != nil {
			return err
		}
		return t.walk(resolved, prefix, visit)
	default:
		panic(fmt.Sprintf("trie: %T invalid node", n))
	}
}
