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
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MaxUnchanged bounds the number of clean (Unchanged) entries the cache
// keeps before evicting.
const MaxUnchanged = 1000

// accountCache is the map from address to Account: it lazy-loads on read,
// records dirties, and evicts clean entries once oversized.
type accountCache struct {
	entries map[common.Address]*Account

	// unchangedEntries lists addresses whose cache entry is currently
	// Unchanged, in a swap-and-pop-friendly slice so eviction is O(1). Every
	// address here must map to an Unchanged entry in entries; dirtying an
	// entry removes it from this slice eagerly (see markDirtied).
	unchangedEntries []common.Address
	// unchangedIndex tracks each address's position in unchangedEntries so
	// dirtying an entry can remove it in O(1) instead of a linear scan.
	unchangedIndex map[common.Address]int

	rng *rand.Rand
}

func newAccountCache(rng *rand.Rand) *accountCache {
	return &accountCache{
		entries:          make(map[common.Address]*Account),
		unchangedEntries: nil,
		unchangedIndex:   make(map[common.Address]int),
		rng:              rng,
	}
}

// get returns the cached entry for addr, if present, without touching the
// trie.
func (c *accountCache) get(addr common.Address) (*Account, bool) {
	a, ok := c.entries[addr]
	return a, ok
}

// installUnchanged inserts a from a trie/lazy-load read, marks it
// Unchanged, appends it to the eviction list, and evicts down to
// MaxUnchanged if the list has grown past it.
func (c *accountCache) installUnchanged(addr common.Address, a *Account) {
	c.entries[addr] = a
	c.appendUnchanged(addr)
	c.evictIfOversized()
}

// installDirty inserts a freshly created or overwritten dirty account. It is
// never added to unchangedEntries.
func (c *accountCache) installDirty(addr common.Address, a *Account) {
	c.removeFromUnchanged(addr)
	c.entries[addr] = a
}

// markDirtied removes addr from unchangedEntries after an existing cached
// entry transitions from Unchanged to dirty.
func (c *accountCache) markDirtied(addr common.Address) {
	c.removeFromUnchanged(addr)
}

func (c *accountCache) appendUnchanged(addr common.Address) {
	if _, tracked := c.unchangedIndex[addr]; tracked {
		return
	}
	c.unchangedIndex[addr] = len(c.unchangedEntries)
	c.unchangedEntries = append(c.unchangedEntries, addr)
}

func (c *accountCache) removeFromUnchanged(addr common.Address) {
	idx, tracked := c.unchangedIndex[addr]
	if !tracked {
		return
	}
	last := len(c.unchangedEntries) - 1
	moved := c.unchangedEntries[last]
	c.unchangedEntries[idx] = moved
	c.unchangedEntries = c.unchangedEntries[:last]
	c.unchangedIndex[moved] = idx
	delete(c.unchangedIndex, addr)
}

// evictIfOversized runs a uniformly-random swap-and-pop eviction: while
// there are more than MaxUnchanged clean entries, pick a uniformly random
// one, remove it from the eviction list, and drop it from the cache if it
// is still Unchanged (it may have been dirtied and removed from the list
// already, in which case this is a no-op on entries).
func (c *accountCache) evictIfOversized() {
	for len(c.unchangedEntries) > MaxUnchanged {
		idx := c.rng.Intn(len(c.unchangedEntries))
		addr := c.unchangedEntries[idx]
		last := len(c.unchangedEntries) - 1
		c.unchangedEntries[idx] = c.unchangedEntries[last]
		c.unchangedEntries = c.unchangedEntries[:last]
		if idx < len(c.unchangedEntries) {
			c.unchangedIndex[c.unchangedEntries[idx]] = idx
		}
		delete(c.unchangedIndex, addr)
		if a, ok := c.entries[addr]; ok && a.status == Unchanged {
			delete(c.entries, addr)
		}
	}
}

// reset drops every cached entry, matching commit's cache-clearing step and
// Reverted's discard-all-changes step.
func (c *accountCache) reset() {
	c.entries = make(map[common.Address]*Account)
	c.unchangedEntries = nil
	c.unchangedIndex = make(map[common.Address]int)
}

// clone duplicates the cache's entries (a shallow copy of each *Account is
// deep-copied so the fork does not alias the parent's pending mutations)
// for State's copy/fork operation.
func (c *accountCache) clone() *accountCache {
	out := newAccountCache(c.rng)
	for addr, a := range c.entries {
		cp := *a
		if a.storageOverlay != nil {
			cp.storageOverlay = make(map[common.Hash]uint256.Int, len(a.storageOverlay))
			for k, v := range a.storageOverlay {
				cp.storageOverlay[k] = v
			}
		}
		if a.storageReadCache != nil {
			cp.storageReadCache = make(map[common.Hash]uint256.Int, len(a.storageReadCache))
			for k, v := range a.storageReadCache {
				cp.storageReadCache[k] = v
			}
		}
		out.entries[addr] = &cp
	}
	for _, addr := range c.unchangedEntries {
		out.unchangedIndex[addr] = len(out.unchangedEntries)
		out.unchangedEntries = append(out.unchangedEntries, addr)
	}
	return out
}
