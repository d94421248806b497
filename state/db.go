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
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/basechain/worldstate/triedb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// databaseVersion is embedded in the on-disk path layout so an incompatible
// future encoding does not collide with data written by this version.
const databaseVersion = "v1"

// Existing selects what OpenDatabase does with a pre-existing database
// directory.
type Existing int

const (
	// ExistingUse opens whatever is already on disk.
	ExistingUse Existing = iota
	// ExistingKill recursively deletes the database directory
	// (<base>/<genesis-prefix>/<version>/state) before opening.
	ExistingKill
)

// minFreeBytes is the free-space floor below which OpenDatabase refuses to
// open a database and returns ErrNotEnoughAvailableSpace.
const minFreeBytes = 1 << 20 // 1 MiB headroom for the lock file and manifest

// DatabaseConfig configures OpenDatabase. See state/config.go for loading
// this from TOML.
type DatabaseConfig struct {
	// BasePath is the root directory under which the versioned, per-genesis
	// database directory is created. Empty means the current directory.
	BasePath string
	// GenesisHash selects the per-chain subdirectory; only its first four
	// bytes are used, hex-encoded.
	GenesisHash common.Hash
	// Existing selects Use or Kill semantics for a pre-existing directory.
	Existing Existing
}

// path returns <base>/<first-4-bytes-of-genesis-hash-in-hex>/<version>/state.
func (c DatabaseConfig) path() string {
	base := c.BasePath
	if base == "" {
		base = "."
	}
	prefix := hex.EncodeToString(c.GenesisHash.Bytes()[:4])
	return filepath.Join(base, prefix, databaseVersion, "state")
}

// openDatabase holds the handles OpenDatabase acquires so Close can release
// them in reverse order.
type openDatabase struct {
	*triedb.Database
	backend *triedb.LevelDBBackend
	lock    *flock.Flock
}

// Close releases the LevelDB handle and the exclusive directory lock.
func (o *openDatabase) Close() error {
	err := o.backend.Close()
	if unlockErr := o.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}

// OpenDatabase acquires an exclusive directory lock, honors
// Existing{Use,Kill}, and opens a LevelDB instance with max_open_files=256
// and create_if_missing=true (triedb.LevelDBOptions).
func OpenDatabase(cfg DatabaseConfig) (*triedb.Database, io.Closer, error) {
	dir := cfg.path()
	if cfg.Existing == ExistingKill {
		if err := os.RemoveAll(dir); err != nil {
			return nil, nil, fmt.Errorf("state: removing existing database at %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("state: creating database directory %s: %w", dir, err)
	}
	if free, err := availableSpace(dir); err == nil && free < minFreeBytes {
		return nil, nil, fmt.Errorf("%w: %s has %d bytes free", ErrNotEnoughAvailableSpace, dir, free)
	}

	// LevelDB flocks its own <dir>/LOCK; a second flock on that same file
	// from this process would always fail, so this lock uses its own file.
	lockPath := filepath.Join(dir, "wstate.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("state: acquiring lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("%w: %s", ErrDatabaseAlreadyOpen, dir)
	}

	backend, err := triedb.OpenLevelDB(dir)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, fmt.Errorf("state: opening leveldb at %s: %w", dir, err)
	}
	log.Info("opened world-state database", "path", dir)

	db := triedb.NewDatabase(backend)
	return db, &openDatabase{Database: db, backend: backend, lock: lock}, nil
}

func availableSpace(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
