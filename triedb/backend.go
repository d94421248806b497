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

// Package triedb implements the overlay object store: a content-addressed
// byte store with an in-memory write overlay sitting in front of a persistent
// backing store, with reference-counted nodes.
package triedb

import "github.com/ethereum/go-ethereum/common"

// Backend is the opaque persistent byte store beneath the overlay. It is
// satisfied by LevelDBBackend, and by any in-memory stand-in used in tests.
// Concurrent writers to the same Backend are not supported; a single-threaded
// owner is assumed.
type Backend interface {
	// Get returns the value stored under hash, or ok=false if absent.
	Get(hash common.Hash) (value []byte, ok bool, err error)

	// Batch applies a set of puts and deletes atomically.
	Batch(puts map[common.Hash][]byte, deletes []common.Hash) error

	// Close releases any resources (file handles, locks) held by the backend.
	Close() error
}
