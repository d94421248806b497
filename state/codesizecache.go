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
	"encoding/binary"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
)

// codeSizeCacheBytes bounds the process-wide code-size memo. Sizes are tiny
// (4 bytes each) so a modest cache covers a very large working set of
// distinct code hashes.
const codeSizeCacheBytes = 4 * 1024 * 1024

// CodeSizeCache memoizes code_hash -> len(code) so State.CodeSize does not
// need to re-read (and re-materialize) full code bytes just to measure them.
// It is process-wide and shared across every State and clone; fastcache is
// already safe for concurrent reads and writes.
type CodeSizeCache struct {
	cache *fastcache.Cache
}

// globalCodeSizeCache is the single process-wide instance. Every State
// shares it by default; tests may construct a private CodeSizeCache instead
// to avoid cross-test pollution.
var globalCodeSizeCache = NewCodeSizeCache()

// NewCodeSizeCache constructs an independent code-size cache.
func NewCodeSizeCache() *CodeSizeCache {
	return &CodeSizeCache{cache: fastcache.New(codeSizeCacheBytes)}
}

// Get returns the cached size for codeHash, if present.
func (c *CodeSizeCache) Get(codeHash common.Hash) (int, bool) {
	buf, ok := c.cache.HasGet(nil, codeHash.Bytes())
	if !ok {
		return 0, false
	}
	return int(binary.LittleEndian.Uint32(buf)), true
}

// Set records size for codeHash. Concurrent writers may race; the last
// write wins, which is acceptable since the mapping is a pure function of
// codeHash and any writer's value is correct.
func (c *CodeSizeCache) Set(codeHash common.Hash, size int) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(size))
	c.cache.Set(codeHash.Bytes(), buf[:])
}
