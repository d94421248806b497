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

package triedb

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// cachedNode is one overlay entry: the node's encoded blob plus a reference
// count. A refcount of zero means the node is scheduled for removal on the
// next CommitFlush.
type cachedNode struct {
	blob []byte
	refs int32
}

// Database is the overlay object store: a content-addressed byte store
// presenting an in-memory write overlay in front of a persistent Backend.
// Lookups resolve overlay-then-backend. Database is not safe for concurrent
// mutation from multiple goroutines without external synchronization beyond
// what its own mutex provides for bookkeeping; a single-threaded owner per
// live State is assumed.
type Database struct {
	backend Backend

	lock    sync.RWMutex
	overlay map[common.Hash]*cachedNode
	dead    map[common.Hash]struct{} // nodes whose refcount reached zero, pending removal
}

// NewDatabase wraps backend with an empty overlay.
func NewDatabase(backend Backend) *Database {
	return &Database{
		backend: backend,
		overlay: make(map[common.Hash]*cachedNode),
		dead:    make(map[common.Hash]struct{}),
	}
}

// Lookup returns the value previously Insert-ed under hash, falling back to
// the backing store, or ok=false if neither has it.
func (db *Database) Lookup(hash common.Hash) (value []byte, ok bool, err error) {
	db.lock.RLock()
	if n, present := db.overlay[hash]; present {
		db.lock.RUnlock()
		return n.blob, true, nil
	}
	db.lock.RUnlock()
	return db.backend.Get(hash)
}

// Insert records a write in the overlay and increments its reference count.
func (db *Database) Insert(hash common.Hash, value []byte) {
	db.lock.Lock()
	defer db.lock.Unlock()
	delete(db.dead, hash)
	if n, present := db.overlay[hash]; present {
		n.refs++
		return
	}
	blob := make([]byte, len(value))
	copy(blob, value)
	db.overlay[hash] = &cachedNode{blob: blob, refs: 1}
}

// Kill decrements hash's reference count. When it drops to zero the node is
// marked for removal on the next CommitFlush.
func (db *Database) Kill(hash common.Hash) {
	db.lock.Lock()
	defer db.lock.Unlock()
	n, present := db.overlay[hash]
	if !present {
		// Node was never written through this overlay (it lives only in the
		// backend, or was already flushed); mark it dead directly.
		db.dead[hash] = struct{}{}
		return
	}
	n.refs--
	if n.refs <= 0 {
		db.dead[hash] = struct{}{}
	}
}

// CommitFlush atomically applies overlay writes and dead-node removals to the
// backing store, then clears the overlay of everything it flushed.
func (db *Database) CommitFlush() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	puts := make(map[common.Hash][]byte, len(db.overlay))
	for h, n := range db.overlay {
		if n.refs > 0 {
			puts[h] = n.blob
		}
	}
	deletes := make([]common.Hash, 0, len(db.dead))
	for h := range db.dead {
		deletes = append(deletes, h)
	}
	if err := db.backend.Batch(puts, deletes); err != nil {
		return err
	}
	db.overlay = make(map[common.Hash]*cachedNode)
	db.dead = make(map[common.Hash]struct{})
	return nil
}

// Refs reports the current reference count of hash's overlay entry. ok is
// false if hash has no overlay entry (it may still exist, unreferenced, in
// the backing store).
func (db *Database) Refs(hash common.Hash) (refs int32, ok bool) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	n, present := db.overlay[hash]
	if !present {
		return 0, false
	}
	return n.refs, true
}

// Keys returns the hashes currently held in the overlay (diagnostic; it does
// not enumerate the backing store).
func (db *Database) Keys() []common.Hash {
	db.lock.RLock()
	defer db.lock.RUnlock()
	keys := make([]common.Hash, 0, len(db.overlay))
	for h := range db.overlay {
		keys = append(keys, h)
	}
	return keys
}

// Close releases the backing store's resources.
func (db *Database) Close() error {
	return db.backend.Close()
}
