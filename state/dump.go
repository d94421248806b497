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

package state

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Dump writes a human-readable, one-line-per-address diagnostic report to
// w: a prefix code describing how the cache entry relates to the persisted
// trie row, the address, nonce and balance, and — when the account bears
// code — a storage-root/code-hash suffix; then one row per pending storage
// write (killed accounts print the first line only).
func (s *State) Dump(w io.Writer) error {
	addrs := make([]common.Address, 0, len(s.cache.entries))
	for addr := range s.cache.entries {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i].Bytes(), addrs[j].Bytes()) < 0 })

	for _, addr := range addrs {
		a := s.cache.entries[addr]
		if err := s.dumpAccount(w, addr, a); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) dumpAccount(w io.Writer, addr common.Address, a *Account) error {
	prefix, err := s.dumpPrefix(addr, a)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s: %s #:%s", prefix, addr, a.Nonce.String(), a.Balance.String()); err != nil {
		return err
	}

	if a.status == DirtyKilled {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		return nil
	}

	if a.CodeBearing() {
		root := a.StorageRoot
		rootStr := "???"
		if root != (common.Hash{}) {
			rootStr = root.Hex()
		}
		codeHash, err := s.CodeHash(addr)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, " @:%s $%s", rootStr, codeHash.Hex()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return s.dumpStorage(w, a)
}

// dumpPrefix chooses the line's lead code by comparing the cache entry
// against what is currently persisted in the trie for addr:
//   - "XXX": killed this transaction.
//   - "+"  : cache-only, no corresponding trie row yet.
//   - "."  : cache entry matches the persisted row exactly.
//   - "*.*": modified relative to the persisted row, with pending storage
//     writes.
//   - "*"  : modified relative to the persisted row, no pending storage
//     writes.
func (s *State) dumpPrefix(addr common.Address, a *Account) (string, error) {
	if a.status == DirtyKilled {
		return "XXX", nil
	}
	blob, err := s.trie.At(addr.Bytes())
	if err != nil {
		return "", err
	}
	if len(blob) == 0 {
		return "+", nil
	}
	var dec accountRLP
	if err := rlp.DecodeBytes(blob, &dec); err != nil {
		return "", err
	}
	if dec.Nonce.Eq(&a.Nonce) && dec.Balance.Eq(&a.Balance) && dec.StorageRoot == a.StorageRoot && dec.CodeHash == a.CodeHash {
		return ".", nil
	}
	if len(a.storageOverlay) > 0 {
		return "*.*", nil
	}
	return "*", nil
}

func (s *State) dumpStorage(w io.Writer, a *Account) error {
	keys := make([]common.Hash, 0, len(a.storageOverlay))
	for k := range a.storageOverlay {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i].Bytes(), keys[j].Bytes()) < 0 })

	for _, k := range keys {
		v := a.storageOverlay[k]
		if v.IsZero() {
			if _, err := fmt.Fprintf(w, "    XXX %s\n", k.Hex()); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "    *** %s: %s\n", k.Hex(), v.String()); err != nil {
			return err
		}
	}
	return nil
}
