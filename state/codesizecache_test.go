package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func TestCodeSizeCacheMissThenRoundTrip(t *testing.T) {
	c := NewCodeSizeCache()
	hash := crypto.Keccak256Hash([]byte("some code"))

	_, ok := c.Get(hash)
	assert.False(t, ok)

	c.Set(hash, 1234)
	size, ok := c.Get(hash)
	assert.True(t, ok)
	assert.Equal(t, 1234, size)
}

func TestCodeSizeCacheIndependentInstances(t *testing.T) {
	a := NewCodeSizeCache()
	b := NewCodeSizeCache()
	hash := crypto.Keccak256Hash([]byte("x"))

	a.Set(hash, 42)
	_, ok := b.Get(hash)
	assert.False(t, ok, "two independently constructed caches must not share state")
}
