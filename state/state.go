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
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/basechain/worldstate/internal/objpool"
	"github.com/basechain/worldstate/triedb"
	"github.com/basechain/worldstate/trie"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	mapset "github.com/deckarep/golang-set/v2"
)

// CommitBehaviour selects whether commit applies the EIP-158 empty-account
// pruning rule.
type CommitBehaviour int

const (
	// KeepEmptyAccounts commits dirty empty accounts as-is.
	KeepEmptyAccounts CommitBehaviour = iota
	// RemoveEmptyAccounts kills any dirty account that is empty before
	// folding the cache into the trie (EIP-158).
	RemoveEmptyAccounts
)

// accountRLP is the on-disk account encoding: an RLP list
// [nonce, balance, storage_root, code_hash].
type accountRLP struct {
	Nonce       *uint256.Int
	Balance     *uint256.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// Option configures a State at construction time.
type Option func(*State)

// WithRNG overrides the cache's eviction RNG, for deterministic tests.
func WithRNG(r *rand.Rand) Option {
	return func(s *State) { s.cache.rng = r }
}

// WithFatDB enables Addresses(), the full address-enumeration interface
// gated behind an opt-in "fat DB" option.
func WithFatDB() Option {
	return func(s *State) { s.fatDB = true }
}

// WithCodeSizeCache overrides the process-wide CodeSizeCache, for tests that
// want an isolated instance instead of the shared global one.
func WithCodeSizeCache(c *CodeSizeCache) Option {
	return func(s *State) { s.codeSizeCache = c }
}

// State is the top-level engine: it owns a trie root, a cache, and a
// configured start nonce, and exposes every query/mutate operation plus
// commit and execute.
type State struct {
	db   *triedb.Database
	trie *trie.SecureTrie

	cache *accountCache

	accountStartNonce uint256.Int
	startNonceSet     bool

	touched mapset.Set[common.Address]

	codeSizeCache *CodeSizeCache
	fatDB         bool

	// storagePreimages lets each account's storage sub-trie recover raw
	// slot numbers during a later full-storage iteration (StorageAll). It
	// accumulates across the State's lifetime; a slot never
	// written through this State (only present from genesis) has no
	// preimage and is omitted from a full-storage enumeration, the same
	// best-effort limitation SecureTrie documents for address iteration.
	storagePreimages map[common.Hash][]byte
}

func defaultRNG() *rand.Rand {
	var buf [8]byte
	seed := int64(1)
	if _, err := crand.Read(buf[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	}
	return rand.New(rand.NewSource(seed))
}

// New opens a State at root with the given start nonce. A zero root opens
// the empty trie (root_hash() == trie.EmptyRootHash).
func New(db *triedb.Database, root common.Hash, startNonce uint256.Int, opts ...Option) (*State, error) {
	t, err := trie.NewSecure(root, db, nil)
	if err != nil {
		return nil, err
	}
	s := &State{
		db:               db,
		trie:             t,
		cache:            newAccountCache(defaultRNG()),
		touched:          mapset.NewSet[common.Address](),
		codeSizeCache:    globalCodeSizeCache,
		storagePreimages: make(map[common.Hash][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.NoteAccountStartNonce(startNonce); err != nil {
		return nil, err
	}
	return s, nil
}

// NoteAccountStartNonce fixes the network-wide initial nonce exactly once;
// a later call with a different value fails.
func (s *State) NoteAccountStartNonce(n uint256.Int) error {
	if s.startNonceSet {
		if s.accountStartNonce != n {
			return ErrIncorrectAccountStartNonce
		}
		return nil
	}
	s.accountStartNonce = n
	s.startNonceSet = true
	return nil
}

// RequireAccountStartNonce returns the fixed start nonce, failing if it was
// never set.
func (s *State) RequireAccountStartNonce() (uint256.Int, error) {
	if !s.startNonceSet {
		return uint256.Int{}, ErrInvalidAccountStartNonce
	}
	return s.accountStartNonce, nil
}

// account resolves addr through the cache, lazy-loading from the trie on a
// miss and, if requireCode is set, materializing code bytes from the object
// store. It returns (nil, nil) if the address is absent from both.
func (s *State) account(addr common.Address, requireCode bool) (*Account, error) {
	if a, ok := s.cache.get(addr); ok {
		if requireCode && a.CodeHash != EmptyCodeHash && !a.codeCacheValid {
			code, err := s.loadCode(a.CodeHash)
			if err != nil {
				return nil, err
			}
			a.NoteCode(code)
		}
		return a, nil
	}

	blob, err := s.trie.At(addr.Bytes())
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, nil
	}
	var dec accountRLP
	if err := rlp.DecodeBytes(blob, &dec); err != nil {
		return nil, fmt.Errorf("state: decoding account %s: %w", addr, err)
	}
	a := NewDormant(*dec.Nonce, *dec.Balance, dec.StorageRoot, dec.CodeHash)
	s.cache.installUnchanged(addr, a)

	if requireCode && a.CodeHash != EmptyCodeHash {
		code, err := s.loadCode(a.CodeHash)
		if err != nil {
			return nil, err
		}
		a.NoteCode(code)
	}
	return a, nil
}

// loadCode reads code bytes stored at codeHash in the object store, outside
// any trie.
func (s *State) loadCode(hash common.Hash) ([]byte, error) {
	blob, ok, err := s.db.Lookup(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("state: missing code for hash %x", hash)
	}
	return blob, nil
}

// touch records addr as touched and, if its cached entry is now dirty,
// removes it from the eviction list.
func (s *State) touch(addr common.Address, a *Account) {
	if a.IsDirty() {
		s.cache.markDirtied(addr)
	}
	s.touched.Add(addr)
}

// ---- Read operations ----

// AddressInUse reports whether addr resolves to a live account.
func (s *State) AddressInUse(addr common.Address) (bool, error) {
	a, err := s.account(addr, false)
	if err != nil {
		return false, err
	}
	return a != nil && a.IsAlive(), nil
}

// AccountNonemptyAndExisting reports whether addr resolves to a present,
// non-empty account.
func (s *State) AccountNonemptyAndExisting(addr common.Address) (bool, error) {
	a, err := s.account(addr, false)
	if err != nil {
		return false, err
	}
	return a != nil && !a.IsEmpty(), nil
}

// AddressHasCode reports whether addr has pending or persisted code.
func (s *State) AddressHasCode(addr common.Address) (bool, error) {
	a, err := s.account(addr, false)
	if err != nil {
		return false, err
	}
	return a != nil && a.CodeBearing(), nil
}

// Balance returns addr's balance, or zero if absent.
func (s *State) Balance(addr common.Address) (uint256.Int, error) {
	a, err := s.account(addr, false)
	if err != nil {
		return uint256.Int{}, err
	}
	if a == nil {
		return uint256.Int{}, nil
	}
	return a.Balance, nil
}

// GetNonce returns addr's nonce, or account_start_nonce if absent.
func (s *State) GetNonce(addr common.Address) (uint256.Int, error) {
	a, err := s.account(addr, false)
	if err != nil {
		return uint256.Int{}, err
	}
	if a == nil {
		return s.accountStartNonce, nil
	}
	return a.Nonce, nil
}

// Storage returns the effective value of key in addr's storage: the overlay
// entry if present, else a memoized read, else a fresh trie lookup (which is
// cached, as a read, for next time).
func (s *State) Storage(addr common.Address, key uint256.Int) (uint256.Int, error) {
	a, err := s.account(addr, false)
	if err != nil {
		return uint256.Int{}, err
	}
	if a == nil {
		return uint256.Int{}, nil
	}
	if v, ok := a.StorageOverlayValue(key); ok {
		return v, nil
	}
	if v, ok := a.StorageReadCacheValue(key); ok {
		return v, nil
	}
	storageTrie, err := trie.NewSecure(a.StorageRoot, s.db, s.storagePreimages)
	if err != nil {
		return uint256.Int{}, err
	}
	keyBytes := key.Bytes32()
	blob, err := storageTrie.At(keyBytes[:])
	if err != nil {
		return uint256.Int{}, err
	}
	var val uint256.Int
	if len(blob) > 0 {
		if err := rlp.DecodeBytes(blob, &val); err != nil {
			return uint256.Int{}, fmt.Errorf("state: decoding storage value: %w", err)
		}
	}
	a.SetStorageCache(key, val)
	return val, nil
}

// StorageAll returns the full effective storage map for addr: the persisted
// trie merged with the pending overlay, where an overlay value of zero
// erases the persisted entry. Persisted entries whose raw slot is not a
// known preimage are omitted (best-effort, see storagePreimages).
func (s *State) StorageAll(addr common.Address) (map[common.Hash]uint256.Int, error) {
	a, err := s.account(addr, false)
	if err != nil {
		return nil, err
	}
	out := make(map[common.Hash]uint256.Int)
	if a == nil {
		return out, nil
	}
	storageTrie, err := trie.NewSecure(a.StorageRoot, s.db, s.storagePreimages)
	if err != nil {
		return nil, err
	}
	err = storageTrie.Iterate(func(e trie.Entry) error {
		var slot uint256.Int
		slot.SetBytes(e.Key)
		var val uint256.Int
		if err := rlp.DecodeBytes(e.Value, &val); err != nil {
			return err
		}
		out[common.Hash(slot.Bytes32())] = val
		return nil
	})
	if err != nil {
		return nil, err
	}
	for k, v := range a.storageReadCache {
		out[k] = v
	}
	for k, v := range a.storageOverlay {
		if v.IsZero() {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out, nil
}

// StorageRoot returns addr's persisted storage root, ignoring the overlay.
func (s *State) StorageRoot(addr common.Address) (common.Hash, error) {
	a, err := s.account(addr, false)
	if err != nil {
		return common.Hash{}, err
	}
	if a == nil {
		return trie.EmptyRootHash, nil
	}
	return a.StorageRoot, nil
}

// Code returns addr's code bytes, lazily materializing them.
func (s *State) Code(addr common.Address) ([]byte, error) {
	a, err := s.account(addr, true)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return []byte{}, nil
	}
	return a.Code(), nil
}

// CodeHash returns the hash of addr's code: the hash of fresh_code if
// pending, else the persisted code_hash, else EmptyCodeHash.
func (s *State) CodeHash(addr common.Address) (common.Hash, error) {
	a, err := s.account(addr, false)
	if err != nil {
		return common.Hash{}, err
	}
	if a == nil {
		return EmptyCodeHash, nil
	}
	if a.IsFreshCode() {
		return crypto.Keccak256Hash(a.FreshCode()), nil
	}
	return a.CodeHash, nil
}

// CodeSize returns len(code(addr)) via the process-wide CodeSizeCache.
func (s *State) CodeSize(addr common.Address) (int, error) {
	a, err := s.account(addr, false)
	if err != nil {
		return 0, err
	}
	if a == nil {
		return 0, nil
	}
	hash, err := s.CodeHash(addr)
	if err != nil {
		return 0, err
	}
	if size, ok := s.codeSizeCache.Get(hash); ok {
		return size, nil
	}
	code, err := s.Code(addr)
	if err != nil {
		return 0, err
	}
	s.codeSizeCache.Set(hash, len(code))
	return len(code), nil
}

// RootHash returns the current trie root.
func (s *State) RootHash() common.Hash {
	return s.trie.Root()
}

// Addresses enumerates every address known to the state: the union of trie
// keys and alive cache entries. It fails with ErrInterfaceNotSupported
// unless the State was constructed WithFatDB.
func (s *State) Addresses() (map[common.Address]uint256.Int, error) {
	if !s.fatDB {
		return nil, ErrInterfaceNotSupported
	}
	out := make(map[common.Address]uint256.Int)
	err := s.trie.Iterate(func(e trie.Entry) error {
		var dec accountRLP
		if err := rlp.DecodeBytes(e.Value, &dec); err != nil {
			return err
		}
		var addr common.Address
		copy(addr[:], e.Key)
		out[addr] = *dec.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	for addr, a := range s.cache.entries {
		if a.IsAlive() {
			out[addr] = a.Balance
		} else {
			delete(out, addr)
		}
	}
	return out, nil
}

// ---- Write operations ----

// IncNonce increments addr's nonce, creating the account with
// (start_nonce+1, 0) if absent.
func (s *State) IncNonce(addr common.Address) error {
	a, err := s.account(addr, false)
	if err != nil {
		return err
	}
	if a == nil {
		nonce := s.accountStartNonce
		nonce.AddUint64(&nonce, 1)
		a = NewNormal(nonce, uint256.Int{})
		s.cache.installDirty(addr, a)
	} else {
		a.IncNonce()
	}
	s.touch(addr, a)
	return nil
}

// AddBalance adds amount to addr's balance, creating the account with
// (start_nonce, amount) if absent.
func (s *State) AddBalance(addr common.Address, amount uint256.Int) error {
	a, err := s.account(addr, false)
	if err != nil {
		return err
	}
	if a == nil {
		a = NewNormal(s.accountStartNonce, amount)
		s.cache.installDirty(addr, a)
	} else {
		a.AddBalance(amount.ToBig())
	}
	s.touch(addr, a)
	return nil
}

// SubBalance subtracts amount from addr's balance. It is a no-op for a zero
// amount and fails with ErrNotEnoughCash if the account is absent or its
// balance is less than amount.
func (s *State) SubBalance(addr common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	a, err := s.account(addr, false)
	if err != nil {
		return err
	}
	if a == nil || a.Balance.ToBig().Cmp(amount) < 0 {
		return ErrNotEnoughCash
	}
	neg := SubBalanceDelta(amount)
	a.AddBalance(neg)
	objpool.Put(neg)
	s.touch(addr, a)
	return nil
}

// CreateContract overwrites addr's cache entry with a fresh contract
// account, preserving any existing balance, awaiting code.
func (s *State) CreateContract(addr common.Address, incrementNonce bool) error {
	existing, err := s.account(addr, false)
	if err != nil {
		return err
	}
	var balance uint256.Int
	if existing != nil {
		balance = existing.Balance
	}
	nonce := s.accountStartNonce
	if incrementNonce {
		nonce.AddUint64(&nonce, 1)
	}
	a := NewContract(nonce, balance)
	s.cache.installDirty(addr, a)
	s.touch(addr, a)
	return nil
}

// EnsureAccountExists is a no-op if addr is present, else creates a normal,
// empty, dirty account.
func (s *State) EnsureAccountExists(addr common.Address) error {
	existing, err := s.account(addr, false)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	a := NewNormal(s.accountStartNonce, uint256.Int{})
	s.cache.installDirty(addr, a)
	s.touch(addr, a)
	return nil
}

// Kill marks addr's account killed. An address present only in the trie is
// loaded into the cache first, so the subsequent commit actually deletes
// its trie row (see DESIGN.md's resolution of the corresponding open
// question); an address absent from both cache and trie is a no-op.
func (s *State) Kill(addr common.Address) error {
	a, err := s.account(addr, false)
	if err != nil {
		return err
	}
	if a == nil {
		return nil
	}
	a.Kill()
	s.touch(addr, a)
	return nil
}

// SetRoot clears the cache and rebinds the trie to root. It fails with
// ErrDirtyCacheOnSetRoot if the cache holds dirty entries, refusing to
// silently discard pending work rather than clearing unconditionally.
func (s *State) SetRoot(root common.Hash) error {
	for _, a := range s.cache.entries {
		if a.IsDirty() {
			return ErrDirtyCacheOnSetRoot
		}
	}
	s.cache.reset()
	s.trie.SetRoot(root)
	return nil
}

// PopulateFrom bulk-installs an address->account map into the trie, for
// genesis or snapshot restore. It implicitly commits with
// KeepEmptyAccounts.
func (s *State) PopulateFrom(accounts map[common.Address]*Account) error {
	for addr, a := range accounts {
		a.markDirty()
		s.cache.installDirty(addr, a)
		s.touched.Add(addr)
	}
	return s.Commit(KeepEmptyAccounts)
}

// ---- Commit ----

// Commit folds the cache into the trie, producing a new root. It does not
// flush the object store to disk; callers must separately call the
// overlay's CommitFlush to make the write durable. This is intentional
// (batching across transactions) — see DESIGN.md.
func (s *State) Commit(behaviour CommitBehaviour) error {
	if behaviour == RemoveEmptyAccounts {
		for _, a := range s.cache.entries {
			if a.IsDirty() && a.IsEmpty() {
				a.Kill()
			}
		}
	}

	for addr, a := range s.cache.entries {
		switch a.status {
		case DirtyKilled:
			if err := s.trie.Remove(addr.Bytes()); err != nil {
				return fmt.Errorf("state: removing %s at commit: %w", addr, err)
			}
			log.Debug("commit: killed account", "address", addr)
		case DirtyAlive:
			if err := s.foldAlive(addr, a); err != nil {
				return err
			}
		case Unchanged:
			// nothing to fold
		}
		if a.IsDirty() {
			s.touched.Add(addr)
		}
	}

	s.cache.reset()
	return nil
}

func (s *State) foldAlive(addr common.Address, a *Account) error {
	if a.IsFreshCode() {
		codeHash := crypto.Keccak256Hash(a.FreshCode())
		s.db.Insert(codeHash, a.FreshCode())
		a.CodeHash = codeHash
		a.freshCode = nil
		a.hasFresh = false
	}

	if len(a.storageOverlay) > 0 {
		storageTrie, err := trie.NewSecure(a.StorageRoot, s.db, s.storagePreimages)
		if err != nil {
			return fmt.Errorf("state: opening storage trie for %s: %w", addr, err)
		}
		for key, val := range a.storageOverlay {
			raw := append([]byte{}, key.Bytes()...)
			if val.IsZero() {
				if err := storageTrie.Remove(raw); err != nil {
					return fmt.Errorf("state: removing storage slot for %s: %w", addr, err)
				}
				continue
			}
			blob, err := rlp.EncodeToBytes(&val)
			if err != nil {
				return err
			}
			if err := storageTrie.Insert(raw, blob); err != nil {
				return fmt.Errorf("state: writing storage slot for %s: %w", addr, err)
			}
		}
		a.StorageRoot = storageTrie.Root()
		a.storageOverlay = nil
	}

	nonce, balance := a.Nonce, a.Balance
	enc := accountRLP{Nonce: &nonce, Balance: &balance, StorageRoot: a.StorageRoot, CodeHash: a.CodeHash}
	blob, err := rlp.EncodeToBytes(&enc)
	if err != nil {
		return err
	}
	if err := s.trie.Insert(addr.Bytes(), blob); err != nil {
		return fmt.Errorf("state: writing account %s at commit: %w", addr, err)
	}
	log.Debug("commit: folded account", "address", addr, "nonce", a.Nonce.String(), "balance", a.Balance.String())
	return nil
}

// ---- Copy / fork ----

// Copy clones the state cheaply: the clone shares the overlay object store,
// duplicates the cache entries, and reopens the trie at the same root with
// Skip verification (a root already trusted need not be re-verified).
func (s *State) Copy() (*State, error) {
	t, err := trie.OpenSecure(s.db, s.trie.Root(), trie.Skip, s.trie.Preimages())
	if err != nil {
		return nil, err
	}
	return &State{
		db:                s.db,
		trie:              t,
		cache:             s.cache.clone(),
		accountStartNonce: s.accountStartNonce,
		startNonceSet:     s.startNonceSet,
		touched:           s.touched.Clone(),
		codeSizeCache:     s.codeSizeCache,
		fatDB:             s.fatDB,
		storagePreimages:  s.storagePreimages,
	}, nil
}

// Touched returns the set of addresses dirtied since construction.
func (s *State) Touched() mapset.Set[common.Address] {
	return s.touched
}

// Database exposes the underlying object store, e.g. for a caller-driven
// CommitFlush.
func (s *State) Database() *triedb.Database {
	return s.db
}
