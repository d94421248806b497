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
	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBBackend is the default persistent Backend.
type LevelDBBackend struct {
	db *leveldb.DB
}

// LevelDBOptions fixes a bounded number of open file descriptors and
// create-if-missing semantics.
var LevelDBOptions = &opt.Options{
	OpenFilesCacheCapacity: 256,
	ErrorIfMissing:         false,
}

// OpenLevelDB opens (or creates) a LevelDB instance at path.
func OpenLevelDB(path string) (*LevelDBBackend, error) {
	db, err := leveldb.OpenFile(path, LevelDBOptions)
	if err != nil {
		if errors.IsCorrupted(err) {
			db, err = leveldb.RecoverFile(path, LevelDBOptions)
		}
		if err != nil {
			return nil, err
		}
	}
	return &LevelDBBackend{db: db}, nil
}

func (b *LevelDBBackend) Get(hash common.Hash) ([]byte, bool, error) {
	v, err := b.db.Get(hash.Bytes(), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (b *LevelDBBackend) Batch(puts map[common.Hash][]byte, deletes []common.Hash) error {
	batch := new(leveldb.Batch)
	for h, v := range puts {
		batch.Put(h.Bytes(), v)
	}
	for _, h := range deletes {
		batch.Delete(h.Bytes())
	}
	return b.db.Write(batch, nil)
}

func (b *LevelDBBackend) Close() error {
	return b.db.Close()
}
