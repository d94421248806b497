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

// MemoryBackend is an in-memory Backend used by tests and by genesis
// construction that never touches disk.
type MemoryBackend struct {
	lock sync.RWMutex
	data map[common.Hash][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[common.Hash][]byte)}
}

func (m *MemoryBackend) Get(hash common.Hash) ([]byte, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	v, ok := m.data[hash]
	return v, ok, nil
}

func (m *MemoryBackend) Batch(puts map[common.Hash][]byte, deletes []common.Hash) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for h, v := range puts {
		m.data[h] = v
	}
	for _, h := range deletes {
		delete(m.data, h)
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
