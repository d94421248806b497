package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// u256 builds a *uint256.Int for test literals, dereferenced at call sites.
func u256(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// addrN builds a distinct, deterministic address from a small integer so
// tests can generate many addresses without colliding.
func addrN(n int) common.Address {
	var a common.Address
	a[len(a)-4] = byte(n >> 24)
	a[len(a)-3] = byte(n >> 16)
	a[len(a)-2] = byte(n >> 8)
	a[len(a)-1] = byte(n)
	return a
}
