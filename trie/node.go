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
	"github.com/ethereum/go-ethereum/rlp"
)

// node is the common interface implemented by all four trie node kinds.
type node interface {
	fstring(string) string
}

type (
	// fullNode is a 17-way branch: 16 nibble children plus a value slot for
	// keys that terminate exactly at this node.
	fullNode struct {
		Children [17]node
	}

	// shortNode is an extension or leaf node: Key is hex-prefix-collapsible,
	// Val is either another node (extension) or a valueNode (leaf).
	shortNode struct {
		Key []byte
		Val node
	}

	// hashNode is a reference to a node stored elsewhere, addressed by its
	// Keccak256 hash.
	hashNode []byte

	// valueNode is a trie leaf's raw stored value.
	valueNode []byte
)

func (n *fullNode) copy() *fullNode {
	cpy := *n
	return &cpy
}

func (n *fullNode) fstring(ind string) string {
	resp := fmt.Sprintf("[\n%s  ", ind)
	for i, node := range n.Children {
		if node == nil {
			resp += fmt.Sprintf("%s: <nil> ", indices[i])
			continue
		}
		resp += fmt.Sprintf("%s: %v", indices[i], node.fstring(ind+"  "))
	}
	return resp + fmt.Sprintf("\n%s] ", ind)
}

func (n *shortNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Key, n.Val.fstring(ind+"  "))
}

func (n hashNode) fstring(ind string) string {
	return fmt.Sprintf("<%x> ", []byte(n))
}

func (n valueNode) fstring(ind string) string {
	return fmt.Sprintf("%x ", []byte(n))
}

var indices = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b", "c", "d", "e", "f", "[17]"}

// On disk (see nodeToRLP), a fullNode encodes as a 17-element list; a
// shortNode encodes as a 2-element list of (compact key, value).
// hashNode/valueNode encode as raw byte strings.
//
// mustDecodeNode decodes the RLP blob stored under hash in the overlay
// object store back into an in-memory node.
func mustDecodeNode(hash []byte, buf []byte) node {
	n, err := decodeNode(hash, buf)
	if err != nil {
		panic(fmt.Sprintf("node %x: %v", hash, err))
	}
	return n
}

func decodeNode(hash, buf []byte) (node, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("trie: empty node blob for %x", hash)
	}
	elems, _, err := rlp.SplitList(buf)
	if err != nil {
		return nil, fmt.Errorf("decode error: %v", err)
	}
	switch c, _ := rlp.CountValues(elems); c {
	case 2:
		n, err := decodeShort(hash, elems)
		return n, wrapError(err, "short")
	case 17:
		n, err := decodeFull(hash, elems)
		return n, wrapError(err, "full")
	default:
		return nil, fmt.Errorf("invalid number of list elements: %v", c)
	}
}

func decodeShort(hash, elems []byte) (node, error) {
	kbuf, rest, err := rlp.SplitString(elems)
	if err != nil {
		return nil, err
	}
	flag := nodeFlag{hash: common.BytesToHash(hash)}
	key := compactToHex(kbuf)
	if hasTerm(key) {
		// value node
		val, _, err := rlp.SplitString(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid value node: %v", err)
		}
		return &shortNode{Key: key, Val: append(valueNode{}, val...)}, nil
	}
	r, _, err := decodeRef(rest)
	if err != nil {
		return nil, wrapError(err, "val")
	}
	_ = flag
	return &shortNode{Key: key, Val: r}, nil
}

func decodeFull(hash, elems []byte) (*fullNode, error) {
	n := &fullNode{}
	for i := 0; i < 16; i++ {
		cld, rest, err := decodeRef(elems)
		if err != nil {
			return n, wrapError(err, fmt.Sprintf("[%d]", i))
		}
		n.Children[i], elems = cld, rest
	}
	val, _, err := rlp.SplitString(elems)
	if err != nil {
		return n, err
	}
	if len(val) > 0 {
		n.Children[16] = append(valueNode{}, val...)
	}
	return n, nil
}

func decodeRef(buf []byte) (node, []byte, error) {
	kind, val, rest, err := rlp.Split(buf)
	if err != nil {
		return nil, buf, err
	}
	switch {
	case kind == rlp.List:
		// embedded node
		if size := len(buf) - len(rest); size > 32 {
			return nil, buf, fmt.Errorf("oversized embedded node (size %d)", size)
		}
		n, err := decodeNode(nil, buf[:len(buf)-len(rest)])
		return n, rest, err
	case kind == rlp.String && len(val) == 0:
		// empty node
		return nil, rest, nil
	case kind == rlp.String && len(val) == 32:
		return append(hashNode{}, val...), rest, nil
	default:
		return nil, nil, fmt.Errorf("invalid RLP string size %d (want 0 or 32)", len(val))
	}
}

type nodeFlag struct {
	hash common.Hash
}

func wrapError(err error, ctx string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", ctx, err)
}

// nodeToRLP flattens a node reference into something rlp.EncodeToBytes can
// marshal directly: hashNode/valueNode as raw bytes, nil as the empty
// string, and small embedded nodes recursively.
func nodeToRLP(n node) interface{} {
	switch n := n.(type) {
	case nil:
		return []byte{}
	case hashNode:
		return []byte(n)
	case valueNode:
		return []byte(n)
	case *fullNode:
		var children [17]interface{}
		for i, c := range n.Children {
			children[i] = nodeToRLP(c)
		}
		return children
	case *shortNode:
		return []interface{}{hexToCompact(n.Key), nodeToRLP(n.Val)}
	default:
		panic(fmt.Sprintf("trie: unknown node type %T", n))
	}
}
