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

// Package state implements the World-State Engine: the account/storage
// cache layer atop a secure trie (package trie), the commit protocol that
// folds cached mutations back into the trie, and a thin adapter coordinating
// transaction execution with the cache.
package state

import (
	"math/big"

	"github.com/basechain/worldstate/internal/objpool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// EmptyCodeHash is the sentinel code hash of an account with no code.
var EmptyCodeHash = crypto.Keccak256Hash(nil)

// accountStatus is the explicit dirty/liveness variant named in the Design
// Notes: a single enumeration rather than parallel dirty/alive booleans, so
// illegal combinations (e.g. dirty-and-unchanged) cannot be constructed.
type accountStatus int

const (
	// Unchanged accounts came from the trie (or were never touched this
	// transaction) and hold no pending mutations.
	Unchanged accountStatus = iota
	// DirtyAlive accounts have pending mutations and are still live.
	DirtyAlive
	// DirtyKilled accounts are marked for deletion at the next commit.
	DirtyKilled
)

func (s accountStatus) String() string {
	switch s {
	case Unchanged:
		return "Unchanged"
	case DirtyAlive:
		return "DirtyAlive"
	case DirtyKilled:
		return "DirtyKilled"
	default:
		return "invalid"
	}
}

// Account is the in-memory representation of one address's state. It does
// not own the overlay object store or trie: storage reads that need to fall
// through to the persisted trie are done by State.Storage, which opens the
// account's storage trie on the State's own store, avoiding a back-pointer
// and its lifetime cycle.
type Account struct {
	Nonce       uint256.Int
	Balance     uint256.Int
	StorageRoot common.Hash
	CodeHash    common.Hash

	code           []byte
	codeCacheValid bool

	freshCode []byte
	hasFresh  bool

	// storageOverlay holds pending writes: a zero value means the key was
	// deleted. storageReadCache memoizes persisted-trie reads that have not
	// been written this transaction; it is never dirty and is not consulted
	// once an overlay entry for the same key exists.
	storageOverlay   map[common.Hash]uint256.Int
	storageReadCache map[common.Hash]uint256.Int

	status accountStatus
}

// NewDormant constructs an Account read from persisted state: Unchanged,
// with no pending writes.
func NewDormant(nonce, balance uint256.Int, storageRoot, codeHash common.Hash) *Account {
	return &Account{
		Nonce:       nonce,
		Balance:     balance,
		StorageRoot: storageRoot,
		CodeHash:    codeHash,
		status:      Unchanged,
	}
}

// NewContract constructs a fresh contract account awaiting code:
// Dirty-Alive, with an empty fresh-code buffer ready to receive
// SetFreshCode.
func NewContract(nonce, balance uint256.Int) *Account {
	return &Account{
		Nonce:     nonce,
		Balance:   balance,
		CodeHash:  EmptyCodeHash,
		status:    DirtyAlive,
		freshCode: []byte{},
		hasFresh:  true,
	}
}

// NewNormal constructs a plain (non-contract) Dirty-Alive account.
func NewNormal(nonce, balance uint256.Int) *Account {
	return &Account{
		Nonce:    nonce,
		Balance:  balance,
		CodeHash: EmptyCodeHash,
		status:   DirtyAlive,
	}
}

func (a *Account) markDirty() {
	if a.status == Unchanged {
		a.status = DirtyAlive
	}
}

// AddBalance adds delta (which may be negative) to the balance and marks the
// account dirty. Callers (State.SubBalance) are responsible for preventing
// underflow before calling this with a negative delta.
func (a *Account) AddBalance(delta *big.Int) {
	if delta.Sign() == 0 {
		return
	}
	cur := new(big.Int).Set(a.Balance.ToBig())
	cur.Add(cur, delta)
	if cur.Sign() < 0 {
		cur.SetInt64(0)
	}
	var out uint256.Int
	out.SetFromBig(cur)
	a.Balance = out
	a.markDirty()
}

// IncNonce increments the nonce by one and marks the account dirty.
func (a *Account) IncNonce() {
	a.Nonce.AddUint64(&a.Nonce, 1)
	a.markDirty()
}

// SetStorage writes value into the storage overlay. A zero value marks the
// key for deletion at commit. Writing a value equal to the persisted value
// still dirties the account; detecting a no-op write is not required.
func (a *Account) SetStorage(key, value uint256.Int) {
	if a.storageOverlay == nil {
		a.storageOverlay = make(map[common.Hash]uint256.Int)
	}
	a.storageOverlay[common.Hash(key.Bytes32())] = value
	a.markDirty()
}

// SetStorageCache memoizes a persisted-trie read. It does not mark the
// account dirty: it is an interior, read-through cache, not a pending
// mutation.
func (a *Account) SetStorageCache(key, value uint256.Int) {
	if a.storageReadCache == nil {
		a.storageReadCache = make(map[common.Hash]uint256.Int)
	}
	a.storageReadCache[common.Hash(key.Bytes32())] = value
}

// StorageOverlayValue returns a pending write for key, if any.
func (a *Account) StorageOverlayValue(key uint256.Int) (uint256.Int, bool) {
	v, ok := a.storageOverlay[common.Hash(key.Bytes32())]
	return v, ok
}

// StorageReadCacheValue returns a memoized read for key, if any.
func (a *Account) StorageReadCacheValue(key uint256.Int) (uint256.Int, bool) {
	v, ok := a.storageReadCache[common.Hash(key.Bytes32())]
	return v, ok
}

// StorageOverlay exposes the pending-write map for iteration during commit.
func (a *Account) StorageOverlay() map[common.Hash]uint256.Int {
	return a.storageOverlay
}

// NoteCode installs code fetched from the object store. It marks the code
// cache valid but does not dirty the account: this is a read-through
// memoization, not a mutation.
func (a *Account) NoteCode(code []byte) {
	a.code = code
	a.codeCacheValid = true
}

// SetFreshCode installs code produced during contract creation. It marks
// the account dirty; the code is hashed and persisted at commit time.
func (a *Account) SetFreshCode(code []byte) {
	a.freshCode = code
	a.hasFresh = true
	a.codeCacheValid = true
	a.code = code
	a.markDirty()
}

// Kill marks the account Dirty-Killed. The entry remains in the cache (and
// in storage_overlay/fresh_code, unused) until the next commit actually
// removes its trie row.
func (a *Account) Kill() {
	a.status = DirtyKilled
}

// IsEmpty reports whether the account is empty per the EIP-158 definition:
// zero nonce, zero balance, no code, and no pending storage or code writes.
func (a *Account) IsEmpty() bool {
	return a.Nonce.IsZero() && a.Balance.IsZero() && a.CodeHash == EmptyCodeHash &&
		len(a.storageOverlay) == 0 && !a.hasFresh
}

// IsAlive reports whether the account has not been killed.
func (a *Account) IsAlive() bool { return a.status != DirtyKilled }

// IsDirty reports whether the account has pending mutations.
func (a *Account) IsDirty() bool { return a.status != Unchanged }

// IsFreshCode reports whether fresh (uncommitted) code is pending.
func (a *Account) IsFreshCode() bool { return a.hasFresh }

// CodeCacheValid reports whether Code has been materialized.
func (a *Account) CodeCacheValid() bool { return a.codeCacheValid }

// CodeBearing reports whether the account has, or will have, code.
func (a *Account) CodeBearing() bool {
	return a.hasFresh || a.CodeHash != EmptyCodeHash
}

// Code returns the materialized code bytes, if NoteCode/SetFreshCode has
// been called.
func (a *Account) Code() []byte { return a.code }

// FreshCode returns the pending, not-yet-hashed code buffer.
func (a *Account) FreshCode() []byte { return a.freshCode }

// Status returns the account's current status.
func (a *Account) Status() accountStatus { return a.status }

// SubBalanceDelta returns a pooled *big.Int set to -delta, for use with
// AddBalance to implement subtraction without allocating on every call.
func SubBalanceDelta(delta *big.Int) *big.Int {
	neg := objpool.Get()
	neg.Neg(delta)
	return neg
}
